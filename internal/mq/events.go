package mq

import (
	"time"

	"github.com/google/uuid"
	"github.com/partitura/partitura/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunPending   MessageType = "run.pending"
	MessageTypeRunCompleted MessageType = "run.completed"
	MessageTypeRunFailed    MessageType = "run.failed"
)

// Message — конверт сообщения.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RunQueuedEvent — payload уведомления о run, поставленном в очередь.
// Несёт только идентификацию: conductor забирает сам run из БД.
type RunQueuedEvent struct {
	RunID        uuid.UUID `json:"run_id"`
	TemplateName string    `json:"template_name"`
}

// RunFinishedEvent — payload события завершения run.
//
// Отчёт едет внутри события: collector архивирует его, не обращаясь
// к таблице runs, и остаётся чистым потребителем артефакта.
type RunFinishedEvent struct {
	RunID        uuid.UUID        `json:"run_id"`
	TemplateName string           `json:"template_name"`
	Status       domain.RunStatus `json:"status"`
	Error        string           `json:"error,omitempty"`
	Report       *domain.Report   `json:"report"`
	FinishedAt   time.Time        `json:"finished_at"`
}

// RoutingKey возвращает ключ маршрутизации по статусу run.
func (e *RunFinishedEvent) RoutingKey() RoutingKey {
	if e.Status == domain.RunStatusFailed {
		return RoutingKeyRunFailed
	}
	return RoutingKeyRunCompleted
}

// Type возвращает тип сообщения по статусу run.
func (e *RunFinishedEvent) Type() MessageType {
	if e.Status == domain.RunStatusFailed {
		return MessageTypeRunFailed
	}
	return MessageTypeRunCompleted
}
