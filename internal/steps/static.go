package steps

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	// KindStatic — вид статической привязки.
	KindStatic = "static"

	// Ключи конфигурации static.
	configOutput  = "output"
	configFail    = "fail"
	configMessage = "message"
)

// StaticStep — обработчик привязки вида "static".
//
// Возвращает отрендеренный output как результат шага. Используется
// для заглушек, фикстур и шагов, чьё содержимое целиком описывается
// данными. С "fail": true шаг детерминированно отказывает — удобно
// для проверки политики отказов на стендах.
//
// Конфигурация:
//
//	{
//	    "output": {
//	        "artifact": "{{ .Inputs.project }}-{{ .Step }}",
//	        "checked": "true"
//	    },
//	    "fail": false,
//	    "message": "optional failure detail"
//	}
//
// Outputs: значения output после рендеринга; строки, содержащие
// JSON-литералы, приводятся к соответствующим типам.
type StaticStep struct{}

// NewStaticStep создаёт новый StaticStep.
func NewStaticStep() *StaticStep {
	return &StaticStep{}
}

// Kind возвращает вид привязки.
func (s *StaticStep) Kind() string {
	return KindStatic
}

// Run возвращает сконфигурированный output.
func (s *StaticStep) Run(ctx context.Context, req *Request) (*Response, error) {
	// Проверяем context
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	default:
	}

	outputs := make(map[string]any)
	for key, val := range GetConfigMap(req.Config, configOutput) {
		if str, ok := val.(string); ok {
			outputs[key] = s.parseValue(str)
			continue
		}
		outputs[key] = val
	}

	if GetConfigBool(req.Config, configFail, false) {
		message := GetConfigString(req.Config, configMessage)
		if message == "" {
			message = "configured to fail"
		}
		// Логический отказ: outputs сохраняются
		return NewResponse(outputs), fmt.Errorf("%w: %s", ErrStaticFault, message)
	}

	return NewResponse(outputs), nil
}

// parseValue пытается распарсить строку как JSON.
// Если не получается — возвращает строку как есть.
func (s *StaticStep) parseValue(value string) any {
	// Пробуем как JSON object
	var obj map[string]any
	if err := json.Unmarshal([]byte(value), &obj); err == nil {
		return obj
	}

	// Пробуем как JSON array
	var arr []any
	if err := json.Unmarshal([]byte(value), &arr); err == nil {
		return arr
	}

	// Пробуем как JSON number
	var num json.Number
	if err := json.Unmarshal([]byte(value), &num); err == nil {
		// Пробуем как int
		if i, err := num.Int64(); err == nil {
			return i
		}
		// Иначе как float
		if f, err := num.Float64(); err == nil {
			return f
		}
	}

	// Пробуем как JSON bool
	if value == "true" {
		return true
	}
	if value == "false" {
		return false
	}

	// Возвращаем как строку
	return value
}
