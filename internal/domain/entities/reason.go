package entities

var reasonLabels = map[Reason]string{
	ReasonCuriosity:   "Curiosité / Information personnelle",
	ReasonSale:        "Préparation à une vente",
	ReasonDivorce:     "Séparation / Divorce",
	ReasonInheritance: "Succession / Partage",
	ReasonNotarial:    "Préparation de discussion notariale",
	ReasonOther:       "Autre motif",
}

var reasonDisclaimers = map[Reason]string{
	ReasonCuriosity:   "Cette estimation est fournie à titre informatif exclusif pour vous aider dans vos réflexions personnelles. Elle ne pourrait être invoquée dans aucun contexte juridique ou contractuel.",
	ReasonSale:        "Ce document est un pré-diagnostic destiné à faciliter vos négociations. Une expertise immobilière professionnelle indépendante reste recommandée avant signature de compromis.",
	ReasonDivorce:     "Ce document ne constitue pas une expertise opposable devant une juridiction. En cas de litige, seule une expertise ordonnée par le tribunal a valeur probante.",
	ReasonInheritance: "Cette estimation est un pré-diagnostic informatif. La taxation de la succession dépend d'une expertise officielle qui sera ordonnée par l'autorité fiscale.",
	ReasonNotarial:    "Ce document prépare votre discussion avec un notaire. L'expertise officielle du bien demeure obligatoire pour tout acte.",
	ReasonOther:       "Cette estimation a un caractère informatif et n'engage en aucun cas la responsabilité de l'éditeur.",
}

// BaseConsentText is shown for every reason, before the reason disclaimer.
const BaseConsentText = "J'ai compris que cette estimation est indicative, qu'elle ne constitue pas une expertise immobilière (non-expertise) et qu'elle est fournie à titre informatif, sous forme de fourchette de valeurs."

func (r Reason) Label() string {
	if l, ok := reasonLabels[r]; ok {
		return l
	}
	return reasonLabels[ReasonOther]
}

// Disclaimer is the legal text attached to the report and to the consent for r.
func (r Reason) Disclaimer() string {
	if d, ok := reasonDisclaimers[r]; ok {
		return d
	}
	return reasonDisclaimers[ReasonOther]
}

// ConsentText is the full text the client accepts for r.
func (r Reason) ConsentText() string {
	return BaseConsentText + "\n\n" + r.Disclaimer()
}
