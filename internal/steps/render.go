package steps

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/partitura/partitura/internal/domain"
)

// Scope — контекст для рендеринга конфигурации шага.
//
// Доступен в Go templates:
//   - {{ .Inputs.param_name }}
//   - {{ .Step }} / {{ .Phase }}
type Scope struct {
	// Inputs — caller context данного run.
	Inputs map[string]any `json:"inputs"`

	// Step — имя текущего шага.
	Step string `json:"step"`

	// Phase — фаза текущего шага.
	Phase string `json:"phase"`
}

// NewScope создаёт scope для шага с заданным caller context.
func NewScope(step domain.Step, inputs map[string]any) *Scope {
	if inputs == nil {
		inputs = make(map[string]any)
	}
	return &Scope{
		Inputs: inputs,
		Step:   step.Name,
		Phase:  step.Phase,
	}
}

// scopeFuncs — дополнительные функции для шаблонов конфигурации.
var scopeFuncs = template.FuncMap{
	// json — сериализует значение в JSON строку
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},

	// default — возвращает значение по умолчанию, если первый аргумент пустой
	"default": func(def, val any) any {
		if val == nil {
			return def
		}
		if s, ok := val.(string); ok && s == "" {
			return def
		}
		return val
	},

	// coalesce — возвращает первое непустое значение
	"coalesce": func(values ...any) any {
		for _, v := range values {
			if v != nil {
				if s, ok := v.(string); ok && s == "" {
					continue
				}
				return v
			}
		}
		return nil
	},

	// join — объединяет слайс строк
	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},

	// split — разбивает строку на слайс
	"split": func(sep, s string) []string {
		return strings.Split(s, sep)
	},

	// contains — проверяет, содержит ли строка подстроку
	"contains": strings.Contains,

	// lower — приводит к нижнему регистру
	"lower": strings.ToLower,

	// upper — приводит к верхнему регистру
	"upper": strings.ToUpper,

	// trim — удаляет пробелы по краям
	"trim": strings.TrimSpace,

	// replace — заменяет подстроку
	"replace": strings.ReplaceAll,
}

// Render рендерит строковый шаблон со scope.
//
// Шаблон может содержать Go template выражения:
//
//	{{ .Inputs.project }}
//	{{ .Step }}-{{ .Phase }}
func Render(tmpl string, scope *Scope) (string, error) {
	// Строки без шаблонных выражений возвращаются как есть
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(scopeFuncs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrScopeParse, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, scope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrScopeRender, err)
	}

	return buf.String(), nil
}

// RenderValue рендерит произвольное значение.
// Рекурсивно обрабатывает map и slice.
func RenderValue(value any, scope *Scope) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch v := value.(type) {
	case string:
		return Render(v, scope)

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			rendered, err := RenderValue(val, scope)
			if err != nil {
				return nil, err
			}
			result[key] = rendered
		}
		return result, nil

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			rendered, err := RenderValue(val, scope)
			if err != nil {
				return nil, err
			}
			result[i] = rendered
		}
		return result, nil

	case map[string]string:
		result := make(map[string]string, len(v))
		for key, val := range v {
			rendered, err := Render(val, scope)
			if err != nil {
				return nil, err
			}
			result[key] = rendered
		}
		return result, nil

	case []string:
		result := make([]string, len(v))
		for i, val := range v {
			rendered, err := Render(val, scope)
			if err != nil {
				return nil, err
			}
			result[i] = rendered
		}
		return result, nil

	default:
		// Скалярные типы (int, float, bool) возвращаются как есть
		return value, nil
	}
}

// RenderConfig рендерит конфигурацию привязки шага.
func RenderConfig(config map[string]any, scope *Scope) (map[string]any, error) {
	if config == nil {
		return make(map[string]any), nil
	}

	rendered, err := RenderValue(config, scope)
	if err != nil {
		return nil, err
	}

	result, ok := rendered.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected map, got %T", ErrScopeRender, rendered)
	}

	return result, nil
}
