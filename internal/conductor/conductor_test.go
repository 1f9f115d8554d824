package conductor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/partitura/partitura/internal/catalog"
	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/mq"
	"github.com/partitura/partitura/internal/steps"
)

// --- Config Tests ---

func TestNew_Defaults(t *testing.T) {
	c := New(Config{Catalog: catalog.Default()})

	if c.pollInterval != defaultPollInterval {
		t.Errorf("expected default poll interval, got %v", c.pollInterval)
	}
	if c.batchSize != defaultBatchSize {
		t.Errorf("expected default batch size, got %d", c.batchSize)
	}
	if c.fallback != steps.FallbackSucceed {
		t.Errorf("expected succeed fallback, got %q", c.fallback)
	}
	if c.logger == nil {
		t.Error("logger should default to slog.Default")
	}
	if c.trigger == nil {
		t.Error("trigger channel should be initialized")
	}
}

func TestNew_Overrides(t *testing.T) {
	c := New(Config{
		Catalog:      catalog.Default(),
		PollInterval: time.Minute,
		BatchSize:    3,
		Fallback:     steps.FallbackFail,
	})

	if c.pollInterval != time.Minute {
		t.Errorf("expected 1m poll interval, got %v", c.pollInterval)
	}
	if c.batchSize != 3 {
		t.Errorf("expected batch size 3, got %d", c.batchSize)
	}
	if c.fallback != steps.FallbackFail {
		t.Errorf("expected fail fallback, got %q", c.fallback)
	}
}

// --- Graft Tests ---

func TestGraft_TransfersOutcomeKeepsIdentity(t *testing.T) {
	claimID := uuid.New()
	created := time.Now().Add(-time.Minute)
	claimed := &domain.Run{
		ID:             claimID,
		TemplateName:   "feature",
		Status:         domain.RunStatusRunning,
		Inputs:         map[string]any{"project": "atlas"},
		CriticalPhases: []string{"deploy"},
		CreatedAt:      created,
	}

	start := time.Now().Add(-2 * time.Second)
	finish := time.Now()
	result := &domain.Run{
		ID:           uuid.New(),
		TemplateID:   uuid.New(),
		TemplateName: "feature",
		Status:       domain.RunStatusCompleted,
		CurrentPhase: "deploy",
		Phases:       []string{"design", "deploy"},
		ResultsByPhase: map[string][]domain.StepResult{
			"design": {{StepName: "a", Phase: "design", Success: true}},
			"deploy": {{StepName: "b", Phase: "deploy", Success: true}},
		},
		ErrorsByPhase: map[string][]domain.StepResult{},
		StartedAt:     &start,
		FinishedAt:    &finish,
	}

	graft(claimed, result)

	// Идентичность и параметры запуска остаются заявленными
	if claimed.ID != claimID {
		t.Error("claimed run ID must survive graft")
	}
	if !claimed.CreatedAt.Equal(created) {
		t.Error("claimed CreatedAt must survive graft")
	}
	if claimed.Inputs["project"] != "atlas" {
		t.Error("claimed inputs must survive graft")
	}
	if len(claimed.CriticalPhases) != 1 || claimed.CriticalPhases[0] != "deploy" {
		t.Error("claimed critical phases must survive graft")
	}

	// Исход выполнения переезжает
	if claimed.Status != domain.RunStatusCompleted {
		t.Errorf("expected COMPLETED after graft, got %s", claimed.Status)
	}
	if claimed.TemplateID != result.TemplateID {
		t.Error("template ID should transfer")
	}
	if claimed.CurrentPhase != "deploy" {
		t.Errorf("expected current phase deploy, got %q", claimed.CurrentPhase)
	}
	if len(claimed.Phases) != 2 {
		t.Errorf("expected 2 entered phases, got %d", len(claimed.Phases))
	}
	if len(claimed.ResultsByPhase["design"]) != 1 {
		t.Error("results should transfer")
	}
	if claimed.StartedAt != result.StartedAt || claimed.FinishedAt != result.FinishedAt {
		t.Error("executor timestamps should transfer")
	}
}

// --- Policy Tests ---

func TestPolicyFor_Default(t *testing.T) {
	c := New(Config{
		Catalog:        catalog.Default(),
		CriticalPhases: []string{"security", "deploy"},
	})

	policy := c.policyFor(&domain.Run{})

	if !policy.IsCritical("security") || !policy.IsCritical("deploy") {
		t.Error("default critical phases should apply")
	}
	if policy.IsCritical("design") {
		t.Error("design should not be critical by default")
	}
}

func TestPolicyFor_PerRunOverride(t *testing.T) {
	c := New(Config{
		Catalog:        catalog.Default(),
		CriticalPhases: []string{"security", "deploy"},
	})

	policy := c.policyFor(&domain.Run{CriticalPhases: []string{"design"}})

	if !policy.IsCritical("design") {
		t.Error("per-run critical phase should apply")
	}
	if policy.IsCritical("security") {
		t.Error("override replaces the default set, not extends it")
	}
}

// --- Template Resolution Tests ---

func TestResolveTemplate_CatalogPreset(t *testing.T) {
	c := New(Config{Catalog: catalog.Default()})
	run := domain.NewRun("feature", nil)

	tpl, err := c.resolveTemplate(context.Background(), run)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.Name != "feature" {
		t.Errorf("expected feature preset, got %q", tpl.Name)
	}
	if len(tpl.Steps) == 0 {
		t.Error("resolved preset should have steps")
	}
}

// --- Event Handler Tests ---

func TestHandleRunQueued_TriggersPoll(t *testing.T) {
	c := New(Config{Catalog: catalog.Default()})

	delivery := &mq.Delivery{
		Message: mq.Message{
			ID:   "m1",
			Type: mq.MessageTypeRunPending,
			Payload: map[string]any{
				"run_id":        uuid.New().String(),
				"template_name": "feature",
			},
		},
	}

	if err := c.handleRunQueued(context.Background(), delivery); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-c.trigger:
	default:
		t.Error("expected poll trigger after run.pending event")
	}
}

func TestHandleRunQueued_BadPayload(t *testing.T) {
	c := New(Config{Catalog: catalog.Default()})

	delivery := &mq.Delivery{
		Message: mq.Message{
			ID:      "m2",
			Type:    mq.MessageTypeRunPending,
			Payload: map[string]any{"run_id": "not-a-uuid"},
		},
	}

	if err := c.handleRunQueued(context.Background(), delivery); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestNudge_DoesNotBlock(t *testing.T) {
	c := New(Config{Catalog: catalog.Default()})

	// Повторные уведомления без читателя не должны блокировать
	c.nudge()
	c.nudge()
	c.nudge()

	select {
	case <-c.trigger:
	default:
		t.Error("expected pending trigger")
	}
}
