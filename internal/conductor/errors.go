package conductor

import "errors"

// Ошибки conductor'а.
var (
	// ErrTemplateNotFound — имя шаблона не найдено ни в каталоге,
	// ни среди сохранённых.
	ErrTemplateNotFound = errors.New("template not found")
)
