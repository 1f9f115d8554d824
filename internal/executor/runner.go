package executor

import (
	"context"

	"github.com/partitura/partitura/internal/domain"
)

// Outcome — исход одного обращения к Step Runner.
//
// Вариант определяется полем Err: nil — успех с Output, иначе —
// отказ с описанием. Код, принимающий решения по исходу, ветвится
// по Err, а не по содержимому строк.
type Outcome struct {
	// Output — данные, возвращённые шагом.
	Output map[string]any

	// Err — отказ шага. Любой не-nil Err превращается в failed
	// StepResult; до вызывающего он не поднимается.
	Err error
}

// Failed возвращает true, если шаг отказал.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Success строит успешный исход.
func Success(output map[string]any) Outcome {
	return Outcome{Output: output}
}

// Failure строит исход-отказ.
func Failure(err error) Outcome {
	return Outcome{Err: err}
}

// StepRunner — внешний исполнитель шагов.
//
// Оркестратор не знает, что делает шаг: он передаёт runner'у имя шага
// (внутри Step) и caller context и ждёт исход. Тайм-ауты и повторы —
// зона ответственности runner'а; оркестратор не навязывает дедлайнов.
type StepRunner interface {
	// RunStep выполняет именованный шаг.
	//
	// Возвращаемый Outcome интерпретируется по Err; паника внутри
	// RunStep перехватывается исполнителем и также становится
	// failed StepResult.
	RunStep(ctx context.Context, step domain.Step, callerCtx map[string]any) Outcome
}

// RunnerFunc — адаптер функции к интерфейсу StepRunner.
type RunnerFunc func(ctx context.Context, step domain.Step, callerCtx map[string]any) Outcome

// RunStep реализует StepRunner.
func (f RunnerFunc) RunStep(ctx context.Context, step domain.Step, callerCtx map[string]any) Outcome {
	return f(ctx, step, callerCtx)
}
