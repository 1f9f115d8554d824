package executor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/partitura/partitura/internal/domain"
)

// --- BuildReport Tests ---

func finishedRun(t *testing.T, runner StepRunner, policy *Policy, template *domain.Template) *domain.Run {
	t.Helper()
	ex := New(Config{Runner: runner, Policy: policy})
	run, err := ex.Execute(context.Background(), template, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return run
}

func TestBuildReport_Completeness(t *testing.T) {
	template := makeTemplate([]string{"design", "build"},
		step("a", "design", false),
		step("b", "design", true),
		step("c", "design", true),
		step("d", "build", false),
	)
	runner := &scriptRunner{fail: map[string]bool{"b": true}}
	run := finishedRun(t, runner, nil, template)

	report, err := BuildReport(run)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.RunID != run.ID {
		t.Errorf("expected run id %s, got %s", run.ID, report.RunID)
	}
	if report.TemplateName != "test" {
		t.Errorf("expected template name, got %q", report.TemplateName)
	}
	if report.Status != domain.RunStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", report.Status)
	}
	if report.Duration < 0 {
		t.Errorf("duration must be non-negative, got %v", report.Duration)
	}

	// По каждой фазе — объявленный порядок и полный счёт шагов.
	if len(report.PerPhase) != 2 {
		t.Fatalf("expected 2 phase entries, got %d", len(report.PerPhase))
	}
	if report.PerPhase[0].Phase != "design" || report.PerPhase[1].Phase != "build" {
		t.Errorf("phase order broken: %+v", report.PerPhase)
	}
	if report.PerPhase[0].StepCount != 3 || report.PerPhase[0].SuccessCount != 2 || report.PerPhase[0].ErrorCount != 1 {
		t.Errorf("design: expected {3 2 1}, got %+v", report.PerPhase[0])
	}

	if report.TotalSteps != 4 || report.TotalSuccesses != 3 || report.TotalFailures != 1 {
		t.Errorf("totals: expected 4/3/1, got %d/%d/%d",
			report.TotalSteps, report.TotalSuccesses, report.TotalFailures)
	}
	if report.SuccessRate != 0.75 {
		t.Errorf("expected success rate 0.75, got %v", report.SuccessRate)
	}
}

func TestBuildReport_Idempotent(t *testing.T) {
	// Два вызова над одним завершённым run дают байт-в-байт
	// одинаковый отчёт.
	template := makeTemplate([]string{"design", "deploy"},
		step("a", "design", true),
		step("b", "design", true),
		step("c", "deploy", false),
	)
	runner := &scriptRunner{fail: map[string]bool{"a": true}}
	run := finishedRun(t, runner, nil, template)

	first, err := BuildReport(run)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildReport(run)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	firstJSON, _ := json.Marshal(first)
	secondJSON, _ := json.Marshal(second)
	if string(firstJSON) != string(secondJSON) {
		t.Errorf("reports differ:\n%s\n%s", firstJSON, secondJSON)
	}
}

func TestBuildReport_AbortedRun(t *testing.T) {
	// После abort отчёт покрывает только пройденные фазы:
	// deploy не входит ни в PerPhase, ни в TotalSteps.
	template := makeTemplate([]string{"security", "deploy"},
		step("audit", "security", false),
		step("release", "deploy", false),
	)
	runner := &scriptRunner{fail: map[string]bool{"audit": true}}
	run := finishedRun(t, runner, NewPolicy([]string{"security"}), template)

	report, err := BuildReport(run)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Status != domain.RunStatusFailed {
		t.Errorf("expected FAILED, got %s", report.Status)
	}
	if len(report.PerPhase) != 1 || report.PerPhase[0].Phase != "security" {
		t.Errorf("expected only security in report, got %+v", report.PerPhase)
	}
	if report.TotalSteps != 1 {
		t.Errorf("expected 1 total step, got %d", report.TotalSteps)
	}
	if report.SuccessRate != 0 {
		t.Errorf("expected success rate 0, got %v", report.SuccessRate)
	}
}

func TestBuildReport_EmptyPhases(t *testing.T) {
	// Пустые фазы дают нулевые счётчики, а не деление на ноль.
	template := makeTemplate([]string{"design", "review"},
		step("a", "design", false),
	)
	run := finishedRun(t, &scriptRunner{}, nil, template)

	report, err := BuildReport(run)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.PerPhase) != 2 {
		t.Fatalf("expected 2 phase entries, got %d", len(report.PerPhase))
	}
	review := report.PerPhase[1]
	if review.StepCount != 0 || review.SuccessCount != 0 || review.ErrorCount != 0 {
		t.Errorf("empty phase should count zeros, got %+v", review)
	}
	if report.SuccessRate != 1 {
		t.Errorf("expected success rate 1, got %v", report.SuccessRate)
	}
}

func TestBuildReport_NotTerminal(t *testing.T) {
	run := domain.NewRun("test", nil)

	_, err := BuildReport(run)
	if !errors.Is(err, ErrRunNotTerminal) {
		t.Errorf("expected ErrRunNotTerminal, got %v", err)
	}
}

func TestBuildReport_NilRun(t *testing.T) {
	_, err := BuildReport(nil)
	if !errors.Is(err, ErrNilRun) {
		t.Errorf("expected ErrNilRun, got %v", err)
	}
}
