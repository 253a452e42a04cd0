package reports

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"juragites_estimation/internal/domain/entities"

	"github.com/go-pdf/fpdf"
)

const ContentType = "application/pdf"

const nonExpertiseNotice = "Cette estimation a un caractère purement indicatif. Elle ne constitue en aucun cas une expertise immobilière officielle, une valeur vénale certifiée ou un engagement de valeur."

var confidenceLabels = map[entities.ConfidenceLevel]string{
	entities.ConfidenceHigh:   "Élevé",
	entities.ConfidenceMedium: "Moyen",
	entities.ConfidenceLow:    "Faible",
}

type section struct {
	title string
	lines []string
	boxed bool
	// withRange prints the value band before the lines.
	withRange bool
}

type valueRange struct {
	low, median, high string
}

type document struct {
	title    string
	subtitle string
	sections []section
	values   valueRange
	footer   string
}

// compose lays out the report content. The value is always shown as a range
// with its confidence level and margin.
func compose(e entities.Estimation, profile entities.ClientProfile, at time.Time) (document, error) {
	if e.Result == nil {
		return document{}, fmt.Errorf("estimation %s has no result", e.ID)
	}
	r := e.Result
	a := e.Attributes

	header := []string{
		"Référence: " + shortRef(e.ID),
		"Date: " + e.CreatedAt.UTC().Format("02/01/2006"),
	}
	if profile.ID != "" {
		header = append(header, "Client: "+profile.FullName, "Email: "+profile.Email)
	}

	property := []string{
		fmt.Sprintf("Type de bien: %s", a.PropertyType),
		fmt.Sprintf("Surface habitable: %s m²", formatArea(a.HabitableArea)),
	}
	if a.PostalCode != "" {
		property = append(property, "Code postal: "+a.PostalCode)
	}
	property = append(property, fmt.Sprintf("État du bien: %s", a.Condition))
	if a.TerrainArea != nil {
		property = append(property, fmt.Sprintf("Surface terrain: %s m²", formatArea(*a.TerrainArea)))
	}
	if a.ConstructionYear != nil {
		property = append(property, fmt.Sprintf("Année de construction: %d", *a.ConstructionYear))
	}
	if len(a.Amenities) > 0 {
		amenities := append([]string(nil), a.Amenities...)
		sort.Strings(amenities)
		property = append(property, "Options et équipements: "+strings.Join(amenities, ", "))
	}

	return document{
		title:    "RAPPORT D'ESTIMATION IMMOBILIÈRE",
		subtitle: "Document indicatif",
		sections: []section{
			{title: "Informations principales", lines: header},
			{title: "Avis important", lines: []string{nonExpertiseNotice}, boxed: true},
			{title: "1. Contexte et motif d'estimation", lines: []string{
				"Motif déclaré: " + e.Reason.Label(),
				"Cadre légal applicable:",
				e.Reason.Disclaimer(),
			}},
			{title: "2. Description du bien", lines: property},
			{title: "3. Méthodologie de calcul", lines: []string{
				fmt.Sprintf("• Prix de référence au m² (%s): %s €", r.Breakdown.PriceSource, r.Breakdown.PricePerM2.StringFixed(2)),
				fmt.Sprintf("• Coefficients: type ×%s, état ×%s, terrain ×%s",
					r.Breakdown.TypeCoefficient.String(), r.Breakdown.ConditionCoefficient.String(), r.Breakdown.TerrainCoefficient.String()),
				fmt.Sprintf("• Ajustements équipements: %s%% et %s €",
					r.Breakdown.PercentageAdjustment.String(), r.Breakdown.FixedAdjustment.StringFixed(0)),
				"• Sources: données déclarées par le client, pas de visite sur site",
				"• Version des règles: " + r.RuleVersionID,
			}},
			{title: "4. Résultats", withRange: true, lines: []string{
				fmt.Sprintf("Estimation de valeur: %s € à %s €", formatEuros(r.Low), formatEuros(r.High)),
				fmt.Sprintf("Valeur médiane: %s €", formatEuros(r.Median)),
				"Niveau de confiance: " + confidenceLabel(r.ConfidenceLevel),
				fmt.Sprintf("Marge d'incertitude: ±%d%%", r.ConfidenceMargin),
				fmt.Sprintf("Complétude des données: %d%%", r.Completeness),
			}},
		},
		values: valueRange{
			low:    formatEuros(r.Low) + " €",
			median: formatEuros(r.Median) + " €",
			high:   formatEuros(r.High) + " €",
		},
		footer: "Document généré le " + at.UTC().Format(time.RFC3339),
	}, nil
}

// Render writes the client report of a calculated estimation as an A4 PDF.
func Render(e entities.Estimation, profile entities.ClientProfile, at time.Time) ([]byte, error) {
	doc, err := compose(e, profile, at)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetTitle(doc.title, true)
	pdf.SetCreator("juragites-estimation", true)
	pdf.SetCreationDate(at.UTC())
	pdf.SetModificationDate(at.UTC())
	pdf.SetCatalogSort(true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	body := width - left - right

	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, tr(doc.footer), "", 0, "L", false, 0, "")
		pdf.SetX(left)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(20, 40, 80)
	pdf.CellFormat(0, 9, tr(doc.title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, tr(doc.subtitle), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	for _, s := range doc.sections {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(20, 40, 80)
		pdf.CellFormat(0, 7, tr(s.title), "B", 1, "L", false, 0, "")
		pdf.Ln(1)

		if s.withRange {
			drawRange(pdf, tr, doc.values, body)
		}

		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(30, 30, 30)
		border := ""
		if s.boxed {
			pdf.SetFillColor(255, 243, 224)
			border = "1"
		}
		for _, l := range s.lines {
			pdf.MultiCell(0, 5, tr(l), border, "L", s.boxed)
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report %s: %w", e.ID, err)
	}
	return buf.Bytes(), nil
}

func drawRange(pdf *fpdf.Fpdf, tr func(string) string, v valueRange, width float64) {
	col := width / 3
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	for _, label := range []string{"Basse", "Médiane", "Haute"} {
		pdf.CellFormat(col, 6, tr(label), "LTR", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(20, 40, 80)
	pdf.SetFillColor(232, 240, 250)
	for _, amount := range []string{v.low, v.median, v.high} {
		pdf.CellFormat(col, 10, tr(amount), "LBR", 0, "C", true, 0, "")
	}
	pdf.Ln(12)
}

// ObjectKey is stable per estimation so a regenerated report replaces the previous one.
func ObjectKey(e entities.Estimation) string {
	return "estimations/" + e.ClientID + "/" + FileName(e)
}

func FileName(e entities.Estimation) string {
	return "estimation_" + e.ID + ".pdf"
}

func shortRef(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

func confidenceLabel(l entities.ConfidenceLevel) string {
	if s, ok := confidenceLabels[l]; ok {
		return s
	}
	return string(l)
}

func formatArea(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// formatEuros groups thousands with a space, as in "225 000".
func formatEuros(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%d", v)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
