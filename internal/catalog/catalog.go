package catalog

import (
	"errors"
	"fmt"

	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/engine"
)

// Ошибки каталога.
var (
	// ErrPresetNotFound — пресет с таким именем не найден.
	ErrPresetNotFound = errors.New("preset not found")

	// ErrDuplicatePreset — пресет с таким именем уже есть в каталоге.
	ErrDuplicatePreset = errors.New("duplicate preset name")

	// ErrEmptyGoal — пустая цель при составлении шаблона.
	ErrEmptyGoal = errors.New("compose goal is empty")
)

// Source — источник композиционных шаблонов.
//
// Неизменяемый реестр именованных пресетов, собираемый один раз на
// старте и передаваемый потребителям как значение. Шаблоны отдаются
// копиями: изменения у получателя не затрагивают каталог.
type Source struct {
	presets map[string]*domain.Template
	order   []string
}

// New создаёт Source из набора пресетов.
//
// Каждый пресет проверяется инвариантами шаблона; порядок аргументов
// сохраняется для Names().
func New(presets ...*domain.Template) (*Source, error) {
	s := &Source{
		presets: make(map[string]*domain.Template, len(presets)),
		order:   make([]string, 0, len(presets)),
	}
	for _, tpl := range presets {
		if err := engine.Validate(tpl); err != nil {
			return nil, fmt.Errorf("preset %q: %w", tpl.Name, err)
		}
		if _, exists := s.presets[tpl.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePreset, tpl.Name)
		}
		s.presets[tpl.Name] = tpl.Clone()
		s.order = append(s.order, tpl.Name)
	}
	return s, nil
}

// Default создаёт Source со стандартными пресетами:
// feature, hotfix, migration, audit.
func Default() *Source {
	s, err := New(
		FeaturePreset(),
		HotfixPreset(),
		MigrationPreset(),
		AuditPreset(),
	)
	if err != nil {
		// Стандартные пресеты фиксированы; ошибка здесь — дефект сборки.
		panic(fmt.Sprintf("catalog: invalid default preset: %v", err))
	}
	return s
}

// Get возвращает копию пресета по имени.
func (s *Source) Get(name string) (*domain.Template, error) {
	tpl, ok := s.presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	return tpl.Clone(), nil
}

// Has проверяет, есть ли пресет с таким именем.
func (s *Source) Has(name string) bool {
	_, ok := s.presets[name]
	return ok
}

// Names возвращает имена пресетов в порядке регистрации.
func (s *Source) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Count возвращает число пресетов в каталоге.
func (s *Source) Count() int {
	return len(s.presets)
}
