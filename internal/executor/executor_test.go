package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/engine"
)

// makeTemplate — шорткат для сборки шаблона в тестах.
func makeTemplate(phases []string, steps ...domain.Step) *domain.Template {
	return &domain.Template{
		Name:   "test",
		Steps:  steps,
		Phases: phases,
	}
}

func step(name, phase string, parallel bool) domain.Step {
	return domain.Step{Name: name, Phase: phase, ParallelEligible: parallel}
}

// scriptRunner — Step Runner для тестов: отказывает шагам из fail,
// задерживает шаги из delay и протоколирует порядок вызовов.
type scriptRunner struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
	delay map[string]time.Duration
	panic map[string]bool
}

func (r *scriptRunner) RunStep(_ context.Context, s domain.Step, _ map[string]any) Outcome {
	r.mu.Lock()
	r.calls = append(r.calls, s.Name)
	r.mu.Unlock()

	if d := r.delay[s.Name]; d > 0 {
		time.Sleep(d)
	}
	if r.panic[s.Name] {
		panic("boom in " + s.Name)
	}
	if r.fail[s.Name] {
		return Failure(fmt.Errorf("step %s exploded", s.Name))
	}
	return Success(map[string]any{"step": s.Name})
}

func (r *scriptRunner) called() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// --- Execute Tests ---

func TestExecute_PhaseOrdering(t *testing.T) {
	template := makeTemplate([]string{"design", "build", "verify"},
		step("d1", "design", false),
		step("b1", "build", false),
		step("v1", "verify", false),
	)
	runner := &scriptRunner{}
	ex := New(Config{Runner: runner})

	run, err := ex.Execute(context.Background(), template, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.Status != domain.RunStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", run.Status)
	}
	// Фазы проходятся строго в объявленном порядке.
	if !reflect.DeepEqual(run.Phases, []string{"design", "build", "verify"}) {
		t.Errorf("expected declared phase order, got %v", run.Phases)
	}
	if !reflect.DeepEqual(runner.called(), []string{"d1", "b1", "v1"}) {
		t.Errorf("expected call order [d1 b1 v1], got %v", runner.called())
	}
}

func TestExecute_SequentialBatchOrder(t *testing.T) {
	// Последовательные batch внутри фазы выполняются строго по порядку.
	template := makeTemplate([]string{"p"},
		step("first", "p", false),
		step("second", "p", false),
		step("third", "p", false),
	)
	runner := &scriptRunner{}
	ex := New(Config{Runner: runner})

	_, err := ex.Execute(context.Background(), template, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(runner.called(), []string{"first", "second", "third"}) {
		t.Errorf("expected strict order, got %v", runner.called())
	}
}

func TestExecute_ParallelFanOut(t *testing.T) {
	// Три шага по 50ms в одном параллельном batch должны выполниться
	// одновременно, а не за 150ms.
	template := makeTemplate([]string{"p"},
		step("a", "p", true),
		step("b", "p", true),
		step("c", "p", true),
	)
	runner := &scriptRunner{delay: map[string]time.Duration{
		"a": 50 * time.Millisecond,
		"b": 50 * time.Millisecond,
		"c": 50 * time.Millisecond,
	}}
	ex := New(Config{Runner: runner})

	start := time.Now()
	run, err := ex.Execute(context.Background(), template, nil)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Status != domain.RunStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", run.Status)
	}
	if elapsed > 120*time.Millisecond {
		t.Errorf("parallel batch took %v, expected concurrent execution", elapsed)
	}
}

func TestExecute_ResultOrderWithinPhase(t *testing.T) {
	// Порядок результатов в фазе — порядок объявления шагов,
	// даже если параллельные шаги завершаются в обратном порядке.
	template := makeTemplate([]string{"p"},
		step("slow", "p", true),
		step("fast", "p", true),
	)
	runner := &scriptRunner{delay: map[string]time.Duration{
		"slow": 60 * time.Millisecond,
	}}
	ex := New(Config{Runner: runner})

	run, err := ex.Execute(context.Background(), template, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := run.ResultsByPhase["p"]
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].StepName != "slow" || results[1].StepName != "fast" {
		t.Errorf("expected declared order [slow fast], got [%s %s]",
			results[0].StepName, results[1].StepName)
	}
}

func TestExecute_FaultContainment(t *testing.T) {
	// Отказ b в параллельном batch [a b c] не трогает исходы a и c.
	template := makeTemplate([]string{"p"},
		step("a", "p", true),
		step("b", "p", true),
		step("c", "p", true),
	)
	runner := &scriptRunner{fail: map[string]bool{"b": true}}
	ex := New(Config{Runner: runner})

	run, err := ex.Execute(context.Background(), template, nil)
	if err != nil {
		t.Fatalf("step faults must not surface as Execute errors: %v", err)
	}

	results := run.ResultsByPhase["p"]
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, res := range results {
		switch res.StepName {
		case "a", "c":
			if !res.Success {
				t.Errorf("step %s should keep its own success, got error %q", res.StepName, res.Error)
			}
		case "b":
			if res.Success {
				t.Error("step b should have failed")
			}
			if res.Error == "" {
				t.Error("step b should carry error detail")
			}
		}
	}

	errs := run.ErrorsByPhase["p"]
	if len(errs) != 1 || errs[0].StepName != "b" {
		t.Errorf("expected only b in phase errors, got %v", errs)
	}
}

func TestExecute_PanicContainment(t *testing.T) {
	// Паника runner'а превращается в failed StepResult и не убивает
	// ни соседей, ни сам run.
	template := makeTemplate([]string{"p"},
		step("a", "p", true),
		step("bomb", "p", true),
		step("c", "p", true),
	)
	runner := &scriptRunner{panic: map[string]bool{"bomb": true}}
	ex := New(Config{Runner: runner})

	run, err := ex.Execute(context.Background(), template, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := run.ResultsByPhase["p"]
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, res := range results {
		if res.StepName == "bomb" {
			if res.Success {
				t.Error("panicked step should be failed")
			}
			continue
		}
		if !res.Success {
			t.Errorf("step %s should succeed despite sibling panic", res.StepName)
		}
	}
}

func TestExecute_CriticalPhaseAbort(t *testing.T) {
	// Отказ в критической фазе security прерывает run: фазы после
	// security не выполняются.
	template := makeTemplate([]string{"build", "security", "deploy"},
		step("compile", "build", false),
		step("audit", "security", false),
		step("release", "deploy", false),
	)
	runner := &scriptRunner{fail: map[string]bool{"audit": true}}
	ex := New(Config{
		Runner: runner,
		Policy: NewPolicy([]string{"security"}),
	})

	run, err := ex.Execute(context.Background(), template, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.Status != domain.RunStatusFailed {
		t.Errorf("expected FAILED, got %s", run.Status)
	}
	if !reflect.DeepEqual(run.Phases, []string{"build", "security"}) {
		t.Errorf("expected run to stop after security, got phases %v", run.Phases)
	}
	for _, name := range runner.called() {
		if name == "release" {
			t.Error("release must not execute after critical abort")
		}
	}
	if run.FinishedAt == nil {
		t.Error("aborted run should still have FinishedAt")
	}
	if run.Error == "" {
		t.Error("aborted run should carry the abort reason")
	}
}

func TestExecute_NonCriticalContinuation(t *testing.T) {
	// Отказ в некритической фазе documentation не мешает следующим
	// фазам выполниться.
	template := makeTemplate([]string{"documentation", "deploy"},
		step("write_docs", "documentation", false),
		step("release", "deploy", false),
	)
	runner := &scriptRunner{fail: map[string]bool{"write_docs": true}}
	ex := New(Config{
		Runner: runner,
		Policy: NewPolicy([]string{"deploy"}),
	})

	run, err := ex.Execute(context.Background(), template, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.Status != domain.RunStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", run.Status)
	}
	if !reflect.DeepEqual(run.Phases, []string{"documentation", "deploy"}) {
		t.Errorf("expected both phases entered, got %v", run.Phases)
	}
	if len(run.ErrorsByPhase["documentation"]) != 1 {
		t.Error("documentation error should be recorded")
	}
}

func TestExecute_DesignDeployScenario(t *testing.T) {
	// design: a (seq), b и c (параллельная серия); deploy: d (seq).
	// deploy критическая, design — нет. b отказывает: design даёт
	// 2 успеха и 1 ошибку, deploy всё равно выполняется, run COMPLETED.
	template := makeTemplate([]string{"design", "deploy"},
		step("a", "design", false),
		step("b", "design", true),
		step("c", "design", true),
		step("d", "deploy", false),
	)
	runner := &scriptRunner{fail: map[string]bool{"b": true}}
	ex := New(Config{
		Runner: runner,
		Policy: NewPolicy([]string{"deploy"}),
	})

	run, err := ex.Execute(context.Background(), template, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := BuildReport(run)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Status != domain.RunStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", report.Status)
	}
	if len(report.PerPhase) != 2 {
		t.Fatalf("expected 2 phases in report, got %d", len(report.PerPhase))
	}

	design := report.PerPhase[0]
	if design.Phase != "design" || design.StepCount != 3 || design.SuccessCount != 2 || design.ErrorCount != 1 {
		t.Errorf("design phase: expected {3 2 1}, got {%d %d %d}",
			design.StepCount, design.SuccessCount, design.ErrorCount)
	}

	deploy := report.PerPhase[1]
	if deploy.Phase != "deploy" || deploy.StepCount != 1 || deploy.ErrorCount != 0 {
		t.Errorf("deploy phase: expected {1 1 0}, got {%d %d %d}",
			deploy.StepCount, deploy.SuccessCount, deploy.ErrorCount)
	}

	if report.TotalSteps != 4 || report.TotalSuccesses != 3 || report.TotalFailures != 1 {
		t.Errorf("totals: expected 4/3/1, got %d/%d/%d",
			report.TotalSteps, report.TotalSuccesses, report.TotalFailures)
	}
}

func TestExecute_ConfigurationError(t *testing.T) {
	// Некорректный шаблон отклоняется до начала выполнения:
	// ни один шаг не запускается.
	template := makeTemplate([]string{"design"},
		step("a", "design", false),
		step("b", "ship", false),
	)
	runner := &scriptRunner{}
	ex := New(Config{Runner: runner})

	run, err := ex.Execute(context.Background(), template, nil)
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !errors.Is(err, engine.ErrUnknownPhase) {
		t.Errorf("expected ErrUnknownPhase, got %v", err)
	}
	if run != nil {
		t.Error("malformed template must not produce a run")
	}
	if len(runner.called()) != 0 {
		t.Errorf("no steps should execute, got %v", runner.called())
	}
}

func TestExecute_NilTemplate(t *testing.T) {
	ex := New(Config{Runner: &scriptRunner{}})

	_, err := ex.Execute(context.Background(), nil, nil)
	if !errors.Is(err, ErrNilTemplate) {
		t.Errorf("expected ErrNilTemplate, got %v", err)
	}
}

func TestExecute_NoRunner(t *testing.T) {
	ex := New(Config{})

	_, err := ex.Execute(context.Background(), makeTemplate([]string{"p"}, step("a", "p", false)), nil)
	if !errors.Is(err, ErrNoRunner) {
		t.Errorf("expected ErrNoRunner, got %v", err)
	}
}

func TestExecute_CallerContext(t *testing.T) {
	// Caller context доходит до каждого шага без изменений.
	var mu sync.Mutex
	seen := make(map[string]any)

	runner := RunnerFunc(func(_ context.Context, s domain.Step, callerCtx map[string]any) Outcome {
		mu.Lock()
		seen[s.Name] = callerCtx["project"]
		mu.Unlock()
		return Success(nil)
	})
	ex := New(Config{Runner: runner})

	template := makeTemplate([]string{"p"},
		step("a", "p", true),
		step("b", "p", true),
	)
	_, err := ex.Execute(context.Background(), template, map[string]any{"project": "atlas"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"a", "b"} {
		if seen[name] != "atlas" {
			t.Errorf("step %s should see caller context, got %v", name, seen[name])
		}
	}
}

func TestExecute_EmptyPhaseEntered(t *testing.T) {
	// Объявленная пустая фаза проходится и попадает в Run.Phases.
	template := makeTemplate([]string{"design", "review"},
		step("a", "design", false),
	)
	ex := New(Config{Runner: &scriptRunner{}})

	run, err := ex.Execute(context.Background(), template, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(run.Phases, []string{"design", "review"}) {
		t.Errorf("expected both phases entered, got %v", run.Phases)
	}
}

func TestNew_Defaults(t *testing.T) {
	ex := New(Config{Runner: &scriptRunner{}})

	if ex.policy == nil {
		t.Error("policy should default to empty critical set")
	}
	if ex.logger == nil {
		t.Error("logger should default to slog.Default")
	}
}
