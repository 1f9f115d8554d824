package executor

import (
	"testing"

	"github.com/partitura/partitura/internal/domain"
)

// --- Policy Tests ---

func TestPolicy_Decide(t *testing.T) {
	failed := []domain.StepResult{{StepName: "x", Success: false, Error: "boom"}}

	tests := []struct {
		name     string
		critical []string
		phase    string
		errs     []domain.StepResult
		want     Decision
	}{
		{
			name:     "critical phase with errors aborts",
			critical: []string{"security", "deploy"},
			phase:    "security",
			errs:     failed,
			want:     DecisionAbort,
		},
		{
			name:     "critical phase without errors continues",
			critical: []string{"security"},
			phase:    "security",
			errs:     nil,
			want:     DecisionContinue,
		},
		{
			name:     "non-critical phase with errors continues",
			critical: []string{"deploy"},
			phase:    "documentation",
			errs:     failed,
			want:     DecisionContinue,
		},
		{
			name:     "empty critical set never aborts",
			critical: nil,
			phase:    "deploy",
			errs:     failed,
			want:     DecisionContinue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicy(tt.critical)
			if got := p.Decide(tt.phase, tt.errs); got != tt.want {
				t.Errorf("Decide() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPolicy_IsCritical(t *testing.T) {
	p := NewPolicy([]string{"security", "deploy"})

	if !p.IsCritical("security") {
		t.Error("security should be critical")
	}
	if p.IsCritical("design") {
		t.Error("design should not be critical")
	}
}

func TestPolicy_IgnoresBlankPhases(t *testing.T) {
	p := NewPolicy([]string{"", "  ", "deploy"})

	if p.CriticalPhases() != 1 {
		t.Errorf("expected 1 critical phase, got %d", p.CriticalPhases())
	}
	if p.IsCritical("") {
		t.Error("blank phase must not be critical")
	}
}
