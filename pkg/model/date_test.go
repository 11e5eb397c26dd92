package model

import (
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2025-12-01")
	if err != nil {
		t.Fatalf("ParseDay() error: %v", err)
	}
	if day.Year() != 2025 || day.Month() != time.December || day.Day() != 1 {
		t.Fatalf("unexpected day %v", day)
	}

	if _, err := ParseDay("2025-02-30"); err == nil {
		t.Fatalf("expected error for invalid calendar date")
	}
	if _, err := ParseDay("01/12/2025"); err == nil {
		t.Fatalf("expected error for wrong layout")
	}
}

func TestDaysBetweenIgnoresClock(t *testing.T) {
	from := time.Date(2025, 12, 1, 23, 59, 0, 0, time.UTC)
	to := time.Date(2025, 12, 4, 0, 1, 0, 0, time.UTC)
	if got := DaysBetween(from, to); got != 3 {
		t.Fatalf("expected 3 days, got %d", got)
	}
	if got := DaysBetween(to, from); got != -3 {
		t.Fatalf("expected -3 days, got %d", got)
	}
}

func TestDocumentStatusPredicates(t *testing.T) {
	cases := []struct {
		status        DocumentStatus
		reviewable    bool
		resubmittable bool
	}{
		{DocumentEnviado, true, false},
		{DocumentCorrigido, true, false},
		{DocumentAjustesSolicitados, false, true},
		{DocumentReprovado, false, true},
		{DocumentAprovado, false, false},
		{DocumentSubstituido, false, false},
		{DocumentFinalizado, false, false},
	}
	for _, tc := range cases {
		if tc.status.Reviewable() != tc.reviewable {
			t.Fatalf("%s: expected reviewable=%v", tc.status, tc.reviewable)
		}
		if tc.status.Resubmittable() != tc.resubmittable {
			t.Fatalf("%s: expected resubmittable=%v", tc.status, tc.resubmittable)
		}
	}
	if DocumentStatus("arquivado").Valid() {
		t.Fatalf("unknown status must be invalid")
	}
}
