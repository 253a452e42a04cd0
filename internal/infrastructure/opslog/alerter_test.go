package opslog

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestAlertWritesSortedFields(t *testing.T) {
	var buf bytes.Buffer
	a := New(&buf)

	a.Alert("audit", "audit event append failed", errors.New("table unavailable"), map[string]string{
		"event_type":    "payment_completed",
		"estimation_id": "est-1",
	})

	line := buf.String()
	want := `[ops][alert] component=audit msg="audit event append failed" estimation_id=est-1 event_type=payment_completed err="table unavailable"`
	if !strings.Contains(line, want) {
		t.Fatalf("unexpected line:\n%s\nwant suffix:\n%s", line, want)
	}
	if a.Count() != 1 {
		t.Fatalf("expected count 1, got %d", a.Count())
	}
}

func TestAlertWithoutError(t *testing.T) {
	var buf bytes.Buffer
	a := New(&buf)
	a.Alert("payment", "stuck", nil, nil)
	if strings.Contains(buf.String(), "err=") {
		t.Fatalf("unexpected err field: %s", buf.String())
	}
}
