package executor

import "errors"

var (
	// ErrNilTemplate — Execute вызван без шаблона.
	ErrNilTemplate = errors.New("template is nil")

	// ErrNilRun — отчёт запрошен по nil run.
	ErrNilRun = errors.New("run is nil")

	// ErrNoRunner — исполнитель создан без Step Runner.
	ErrNoRunner = errors.New("step runner is not configured")

	// ErrRunNotTerminal — отчёт запрошен по незавершённому run.
	ErrRunNotTerminal = errors.New("run is not in a terminal status")
)
