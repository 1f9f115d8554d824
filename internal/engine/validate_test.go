package engine

import (
	"errors"
	"testing"

	"github.com/partitura/partitura/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		template *domain.Template
		wantErr  error // nil — шаблон корректен
	}{
		{
			name: "valid template",
			template: makeTemplate([]string{"design", "build"},
				step("a", "design", true),
				step("b", "build", false),
			),
			wantErr: nil,
		},
		{
			name:     "no steps",
			template: makeTemplate([]string{"design"}),
			wantErr:  ErrNoSteps,
		},
		{
			name: "no phases",
			template: makeTemplate(nil,
				step("a", "design", false),
			),
			wantErr: ErrNoPhases,
		},
		{
			name: "duplicate step name",
			template: makeTemplate([]string{"design"},
				step("a", "design", false),
				step("a", "design", true),
			),
			wantErr: ErrDuplicateStep,
		},
		{
			name: "duplicate phase",
			template: makeTemplate([]string{"design", "design"},
				step("a", "design", false),
			),
			wantErr: ErrDuplicatePhase,
		},
		{
			name: "empty step name",
			template: makeTemplate([]string{"design"},
				step("", "design", false),
			),
			wantErr: ErrEmptyStepName,
		},
		{
			name: "undeclared phase",
			template: makeTemplate([]string{"design"},
				step("a", "ship", false),
			),
			wantErr: ErrUnknownPhase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.template)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_ErrorContext(t *testing.T) {
	template := makeTemplate([]string{"design"},
		step("review", "ship", false),
	)

	err := Validate(template)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
	if cfgErr.Step != "review" {
		t.Errorf("expected step review, got %q", cfgErr.Step)
	}
	if cfgErr.Field != "phase" {
		t.Errorf("expected field phase, got %q", cfgErr.Field)
	}
}

func TestWarnings(t *testing.T) {
	template := makeTemplate([]string{"p"},
		step("a", "p", false),
		step("b", "p", false),
	)
	template.Dependencies = []domain.Dependency{
		{Predecessor: "a", Successor: "b"},
		{Predecessor: "b", Successor: "missing"},
	}

	warnings := Warnings(template)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
}
