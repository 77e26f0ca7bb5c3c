package domain

import (
	"testing"

	"outreach_backend/platform/apperr"
)

func intPtr(v int) *int { return &v }

func TestFilterValidateScoreRange(t *testing.T) {
	f := &Filter{MinScore: intPtr(60), MaxScore: intPtr(40)}
	err := f.Validate()
	if err == nil {
		t.Fatal("inverted score range accepted")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("got kind %v, want validation", apperr.GetKind(err))
	}

	f = &Filter{MinScore: intPtr(40), MaxScore: intPtr(40)}
	if err := f.Validate(); err != nil {
		t.Errorf("equal bounds rejected: %v", err)
	}
}

func TestFilterValidateBounds(t *testing.T) {
	if err := (&Filter{MinScore: intPtr(-1)}).Validate(); err == nil {
		t.Error("negative min_score accepted")
	}
	if err := (&Filter{MaxScore: intPtr(101)}).Validate(); err == nil {
		t.Error("max_score above 100 accepted")
	}
}

func TestFilterValidateEnums(t *testing.T) {
	bad := Status("archived")
	if err := (&Filter{Status: &bad}).Validate(); err == nil {
		t.Error("unknown status accepted")
	}

	badSource := Source("tiktok")
	if err := (&Filter{Source: &badSource}).Validate(); err == nil {
		t.Error("unknown source accepted")
	}
}

func TestNilFilterIsValid(t *testing.T) {
	var f *Filter
	if err := f.Validate(); err != nil {
		t.Errorf("nil filter rejected: %v", err)
	}
}
