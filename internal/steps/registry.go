package steps

import (
	"fmt"
	"sort"
	"sync"
)

// Registry — реестр обработчиков по виду привязки.
//
// Позволяет регистрировать и получать реализации Handler по виду.
// Потокобезопасен.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// DefaultRegistry создаёт реестр со всеми стандартными обработчиками.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Регистрируем все стандартные виды
	r.Register(NewHTTPStep())
	r.Register(NewDelayStep())
	r.Register(NewStaticStep())

	return r
}

// Register регистрирует обработчик в реестре.
// Если обработчик такого вида уже существует, он будет перезаписан.
func (r *Registry) Register(handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[handler.Kind()] = handler
}

// Get возвращает обработчик по виду привязки.
// Возвращает ErrKindNotFound, если обработчик не найден.
func (r *Registry) Get(kind string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, exists := r.handlers[kind]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrKindNotFound, kind)
	}

	return handler, nil
}

// Has проверяет, зарегистрирован ли вид привязки.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.handlers[kind]
	return exists
}

// Kinds возвращает список всех зарегистрированных видов привязок.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Count возвращает количество зарегистрированных обработчиков.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Unregister удаляет обработчик из реестра.
func (r *Registry) Unregister(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, kind)
}
