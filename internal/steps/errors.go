package steps

import "errors"

// Ошибки выполнения шагов.
var (
	// ErrKindNotFound — вид привязки не найден в реестре.
	ErrKindNotFound = errors.New("binding kind not found")

	// ErrUnboundStep — у шага нет привязки, а fallback настроен на отказ.
	ErrUnboundStep = errors.New("step has no binding")

	// ErrInvalidConfig — невалидная конфигурация привязки.
	ErrInvalidConfig = errors.New("invalid binding config")

	// ErrCancelled — выполнение шага отменено.
	ErrCancelled = errors.New("step execution cancelled")

	// ErrHTTPRequest — HTTP-запрос не удалось выполнить.
	ErrHTTPRequest = errors.New("http request failed")

	// ErrStaticFault — статический шаг сконфигурирован на отказ.
	ErrStaticFault = errors.New("static step fault")

	// ErrScopeParse — не удалось разобрать шаблон в конфигурации.
	ErrScopeParse = errors.New("config template parse error")

	// ErrScopeRender — не удалось отрендерить шаблон в конфигурации.
	ErrScopeRender = errors.New("config template render error")
)
