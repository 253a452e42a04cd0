package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAuditEvent_TypedPayloadSurvivesStorage(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ev := NewAuditEvent("ev-1", "est-1", &CalculatedData{
		RuleVersionID:     "v3",
		RuleVersionNumber: 3,
		Results:           CalculationOutputs{Low: 202500, Median: 225000, High: 247500, ConfidenceLevel: ConfidenceMedium, ConfidenceMargin: 10},
	}, RequestMeta{IPAddress: "10.0.0.1", UserAgent: "test"}, at)

	if ev.Type != EventCalculated {
		t.Fatalf("expected type derived from payload, got %s", ev.Type)
	}

	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back AuditEvent
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data, ok := back.Data.(*CalculatedData)
	if !ok {
		t.Fatalf("expected *CalculatedData, got %T", back.Data)
	}
	if data.Results.Median != 225000 || data.RuleVersionNumber != 3 {
		t.Fatalf("unexpected payload: %+v", data)
	}
	if back.IPAddress != "10.0.0.1" || !back.CreatedAt.Equal(at) {
		t.Fatalf("unexpected envelope: %+v", back)
	}
}

func TestDecodeEventData_RejectsUnknownType(t *testing.T) {
	if _, err := DecodeEventData("deleted", json.RawMessage(`{}`)); err == nil {
		t.Fatalf("expected error for unknown event type")
	}
}

func TestAuditEvent_SortKeyOrdersByTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := NewAuditEvent("b", "est", &SubmittedData{}, RequestMeta{}, base)
	b := NewAuditEvent("a", "est", &SubmittedData{}, RequestMeta{}, base.Add(time.Nanosecond))
	if !(a.SortKey() < b.SortKey()) {
		t.Fatalf("expected %q < %q", a.SortKey(), b.SortKey())
	}
}

func TestEstimationChanges_Apply(t *testing.T) {
	now := time.Now().UTC()
	status := EstimationStatusCalculated
	result := ValuationResult{Median: 10, RuleVersionID: "v2", RuleVersionNumber: 2}
	amount := decimal.RequireFromString("49.00")

	e := EstimationChanges{Status: &status, Result: &result, AmountPaid: &amount, UpdatedAt: now}.Apply(Estimation{ID: "est-1", Status: EstimationStatusPaymentConfirmed})

	if e.Status != EstimationStatusCalculated || e.Result == nil || e.Result.Median != 10 {
		t.Fatalf("unexpected estimation: %+v", e)
	}
	if e.RuleVersionID != "v2" || e.RuleVersionNumber != 2 {
		t.Fatalf("expected rule version pinned from result, got %s/%d", e.RuleVersionID, e.RuleVersionNumber)
	}
	if !e.AmountPaid.Equal(amount) || !e.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected amount/updated_at: %+v", e)
	}
}

func TestPropertyAttributes_CloneDoesNotAlias(t *testing.T) {
	area := 300.0
	a := PropertyAttributes{TerrainArea: &area, Amenities: []string{"pool"}}
	c := a.Clone()
	*c.TerrainArea = 1
	c.Amenities[0] = "view"
	if *a.TerrainArea != 300 || a.Amenities[0] != "pool" {
		t.Fatalf("clone aliases the original: %+v", a)
	}
}

func TestCaller_CanAccess(t *testing.T) {
	e := Estimation{ClientID: "c-1"}
	if !(Caller{ClientID: "c-1", Role: RoleClient}).CanAccess(e) {
		t.Fatalf("owner must access")
	}
	if (Caller{ClientID: "c-2", Role: RoleClient}).CanAccess(e) {
		t.Fatalf("other client must not access")
	}
	if !(Caller{ClientID: "ops", Role: RoleAdmin}).CanAccess(e) {
		t.Fatalf("admin must access")
	}
	if (Caller{}).CanAccess(Estimation{}) {
		t.Fatalf("anonymous caller must not match an estimation without owner")
	}
}

func TestCondition_Rank(t *testing.T) {
	if !(ConditionToRenovate.Rank() < ConditionFair.Rank() && ConditionGood.Rank() < ConditionExcellent.Rank()) {
		t.Fatalf("conditions are not ordered")
	}
	if PropertyCondition("ruined").Rank() != -1 {
		t.Fatalf("unknown condition must rank -1")
	}
}
