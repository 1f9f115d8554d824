package steps

import (
	"context"
)

// Handler — интерфейс обработчика вида привязки.
//
// Каждый вид привязки (http, delay, static) реализует этот интерфейс.
type Handler interface {
	// Kind возвращает вид привязки.
	Kind() string

	// Run выполняет шаг и возвращает результат.
	// Обработчик должен проверять ctx.Done() для graceful shutdown.
	Run(ctx context.Context, req *Request) (*Response, error)
}

// Request — входные данные для выполнения шага.
type Request struct {
	// StepName — имя шага из шаблона.
	StepName string

	// Phase — фаза, в которой выполняется шаг.
	Phase string

	// Config — конфигурация привязки (уже отрендеренная через RenderConfig).
	Config map[string]any
}

// Response — результат выполнения шага.
//
// Обработчик может вернуть Response вместе с ошибкой: это логический
// отказ с сохранёнными выходными данными (например, HTTP-ответ с кодом
// ошибки). Инфраструктурные ошибки возвращаются без Response.
type Response struct {
	// Outputs — выходные данные шага.
	Outputs map[string]any
}

// NewRequest создаёт новый Request.
func NewRequest(stepName, phase string, config map[string]any) *Request {
	if config == nil {
		config = make(map[string]any)
	}
	return &Request{
		StepName: stepName,
		Phase:    phase,
		Config:   config,
	}
}

// NewResponse создаёт новый Response с outputs.
func NewResponse(outputs map[string]any) *Response {
	if outputs == nil {
		outputs = make(map[string]any)
	}
	return &Response{
		Outputs: outputs,
	}
}

// EmptyResponse возвращает пустой Response.
func EmptyResponse() *Response {
	return &Response{
		Outputs: make(map[string]any),
	}
}

// GetConfigString извлекает строковое значение из конфига.
func GetConfigString(config map[string]any, key string) string {
	if v, ok := config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetConfigInt извлекает числовое значение из конфига.
func GetConfigInt(config map[string]any, key string) int {
	if v, ok := config[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

// GetConfigBool извлекает булево значение из конфига.
func GetConfigBool(config map[string]any, key string, defaultVal bool) bool {
	if v, ok := config[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// GetConfigMap извлекает map из конфига.
func GetConfigMap(config map[string]any, key string) map[string]any {
	if v, ok := config[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// GetConfigMapString извлекает map[string]string из конфига.
func GetConfigMapString(config map[string]any, key string) map[string]string {
	if v, ok := config[key]; ok {
		switch m := v.(type) {
		case map[string]string:
			return m
		case map[string]any:
			result := make(map[string]string)
			for k, val := range m {
				if s, ok := val.(string); ok {
					result[k] = s
				}
			}
			return result
		}
	}
	return nil
}
