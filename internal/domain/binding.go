package domain

import "time"

// StepBinding — привязка имени шага к исполняемой реализации.
//
// Ядро оркестратора не знает, ЧТО делает шаг: conductor собирает
// реестр Step Runner'а из привязок перед каждым run. Шаги без привязки
// получают поведение по умолчанию (см. steps.Registry).
type StepBinding struct {
	// StepName — имя шага, к которому привязана реализация.
	// Привязки глобальны: одно имя шага означает одну реализацию
	// во всех шаблонах.
	StepName string `json:"step_name"`

	// Kind — вид реализации: "http", "delay" или "static".
	Kind string `json:"kind"`

	// Config — конфигурация реализации. Состав зависит от Kind;
	// строковые значения поддерживают шаблоны {{ .Inputs.x }}.
	Config map[string]any `json:"config,omitempty"`

	// CreatedAt — время создания привязки.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления.
	UpdatedAt time.Time `json:"updated_at"`
}
