// Package steps выполняет шаги шаблона по их привязкам.
//
// # Обзор
//
// Шаблон описывает структуру работы: имена шагов, фазы, пригодность
// к параллельному выполнению. Содержимое шага задаётся отдельно —
// привязкой (domain.StepBinding): вид (http, delay, static) и
// конфигурация. Runner соединяет одно с другим:
//   - находит привязку по имени шага;
//   - рендерит конфигурацию через Scope (Go templates);
//   - передаёт её обработчику соответствующего вида;
//   - преобразует результат в executor.Outcome.
//
// Шаг без привязки — не ошибка конфигурации: по умолчанию он
// выполняется как успешный no-op (поведение настраивается через
// Fallback).
//
// # Интерфейс Handler
//
// Все обработчики реализуют интерфейс Handler:
//
//	type Handler interface {
//	    Kind() string
//	    Run(ctx context.Context, req *Request) (*Response, error)
//	}
//
// Request содержит:
//   - StepName — имя шага из шаблона
//   - Phase — фаза шага
//   - Config — конфигурация (уже отрендеренная)
//
// Response содержит:
//   - Outputs — результаты выполнения (map[string]any)
//
// Обработчик может вернуть Response вместе с ошибкой — это логический
// отказ с сохранёнными outputs (например, HTTP-ответ с кодом >= 400).
//
// # Registry
//
// Registry — фабрика для получения Handler по виду:
//
//	registry := steps.DefaultRegistry()  // http, delay, static
//	handler, err := registry.Get("http")
//	if err != nil {
//	    // неизвестный вид
//	}
//
// # Виды привязок
//
// ## HTTP (http.go)
//
// Выполняет HTTP запросы к внешним API.
//
// Конфигурация:
//
//	{
//	    "method": "POST",
//	    "url": "https://api.example.com/data",
//	    "headers": {"Authorization": "Bearer {{ .Inputs.token }}"},
//	    "body": {"key": "value"},
//	    "follow_redirects": true,
//	    "validate_ssl": true,
//	    "timeout_sec": 30
//	}
//
// Outputs:
//
//	{
//	    "status_code": 200,
//	    "headers": {"Content-Type": "application/json"},
//	    "body": {...}  // parsed JSON или string
//	}
//
// ## Delay (delay.go)
//
// Пауза указанной длительности.
//
// Конфигурация:
//
//	{"duration_sec": 5}   // или
//	{"duration_ms": 500}
//
// Outputs:
//
//	{"duration_ms": 5000}
//
// ## Static (static.go)
//
// Возвращает отрендеренный output как результат шага. С "fail": true
// шаг детерминированно отказывает (для проверок политики отказов).
//
// Конфигурация:
//
//	{
//	    "output": {"artifact": "{{ .Inputs.project }}-{{ .Step }}"},
//	    "fail": false,
//	    "message": "optional failure detail"
//	}
//
// # Рендеринг конфигурации
//
// Строки конфигурации могут содержать Go template выражения над Scope:
//
//	{{ .Inputs.project }}   — caller context данного run
//	{{ .Step }}             — имя текущего шага
//	{{ .Phase }}            — фаза текущего шага
//
// Дополнительные функции: json, default, coalesce, lower, upper,
// trim, replace, join, split, contains.
//
// # Использование
//
// Типичный flow при выполнении run:
//
//	// 1. Собрать Runner с привязками run
//	runner := steps.NewRunner(steps.RunnerConfig{
//	    Bindings: bindings,
//	    Logger:   logger,
//	})
//
//	// 2. Передать его Executor
//	ex := executor.New(executor.Config{
//	    Runner: runner,
//	    Policy: policy,
//	    Logger: logger,
//	})
//
//	run, err := ex.Execute(ctx, template, callerCtx)
//
// # Обработка ошибок
//
// Обработчики возвращают типизированные ошибки:
//
//	var (
//	    ErrKindNotFound    // вид привязки не найден
//	    ErrUnboundStep     // нет привязки при Fallback == fail
//	    ErrInvalidConfig   // неверная конфигурация
//	    ErrCancelled       // context cancelled
//	    ErrHTTPRequest     // ошибка HTTP запроса
//	    ErrStaticFault     // static шаг сконфигурирован на отказ
//	    ErrScopeParse      // ошибка разбора template в конфигурации
//	    ErrScopeRender     // ошибка рендеринга template
//	)
//
// Сдерживание отказов — забота executor, обработчики просто
// возвращают ошибки.
//
// # Файлы пакета
//
//   - step.go       — интерфейс Handler, Request, Response
//   - errors.go     — типизированные ошибки
//   - registry.go   — Registry для получения Handler по виду
//   - runner.go     — Runner (executor.StepRunner поверх привязок)
//   - render.go     — Scope и рендеринг конфигурации
//   - instrument.go — обёртка runner'а с метриками шагов
//   - http.go       — HTTPStep
//   - delay.go      — DelayStep
//   - static.go     — StaticStep
package steps
