package steps

import (
	"errors"
	"testing"

	"github.com/partitura/partitura/internal/domain"
)

func testScope(inputs map[string]any) *Scope {
	return NewScope(domain.Step{Name: "build", Phase: "design"}, inputs)
}

func TestNewScope(t *testing.T) {
	// С nil inputs
	scope := testScope(nil)
	if scope.Inputs == nil {
		t.Error("Inputs should not be nil")
	}
	if scope.Step != "build" || scope.Phase != "design" {
		t.Errorf("scope should carry step and phase, got %q/%q", scope.Step, scope.Phase)
	}

	// С inputs
	scope = testScope(map[string]any{"key": "value"})
	if scope.Inputs["key"] != "value" {
		t.Error("Inputs should contain provided values")
	}
}

func TestRender_SimpleInput(t *testing.T) {
	scope := testScope(map[string]any{
		"name":  "atlas",
		"count": 42,
	})

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "string input",
			template: "Project: {{ .Inputs.name }}",
			expected: "Project: atlas",
		},
		{
			name:     "number input",
			template: "Count: {{ .Inputs.count }}",
			expected: "Count: 42",
		},
		{
			name:     "step and phase",
			template: "{{ .Step }}@{{ .Phase }}",
			expected: "build@design",
		},
		{
			name:     "no template",
			template: "Plain text",
			expected: "Plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Render(tt.template, scope)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRender_Functions(t *testing.T) {
	scope := testScope(map[string]any{
		"text": "Hello World",
		"list": []string{"a", "b", "c"},
	})

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "lower",
			template: "{{ lower .Inputs.text }}",
			expected: "hello world",
		},
		{
			name:     "upper",
			template: "{{ upper .Inputs.text }}",
			expected: "HELLO WORLD",
		},
		{
			name:     "contains",
			template: "{{ contains .Inputs.text \"World\" }}",
			expected: "true",
		},
		{
			name:     "default with value",
			template: "{{ default \"fallback\" .Inputs.text }}",
			expected: "Hello World",
		},
		{
			name:     "default with nil",
			template: "{{ default \"fallback\" .Inputs.missing }}",
			expected: "fallback",
		},
		{
			name:     "coalesce",
			template: "{{ coalesce .Inputs.missing .Inputs.text }}",
			expected: "Hello World",
		},
		{
			name:     "json",
			template: `{{ json .Inputs.list }}`,
			expected: `["a","b","c"]`,
		},
		{
			name:     "join",
			template: `{{ join "," .Inputs.list }}`,
			expected: "a,b,c",
		},
		{
			name:     "replace",
			template: `{{ replace .Inputs.text "World" "Go" }}`,
			expected: "Hello Go",
		},
		{
			name:     "trim",
			template: "{{ trim \"  padded  \" }}",
			expected: "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Render(tt.template, scope)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRender_InvalidTemplate(t *testing.T) {
	scope := testScope(nil)

	// Некорректный синтаксис
	_, err := Render("{{ .Invalid syntax", scope)
	if err == nil {
		t.Fatal("expected error for invalid template")
	}
	if !errors.Is(err, ErrScopeParse) {
		t.Errorf("expected ErrScopeParse, got %v", err)
	}
}

func TestRenderValue(t *testing.T) {
	scope := testScope(map[string]any{"name": "atlas"})

	tests := []struct {
		name     string
		value    any
		expected any
	}{
		{
			name:     "nil",
			value:    nil,
			expected: nil,
		},
		{
			name:     "string without template",
			value:    "plain",
			expected: "plain",
		},
		{
			name:     "string with template",
			value:    "run for {{ .Inputs.name }}",
			expected: "run for atlas",
		},
		{
			name:     "int",
			value:    42,
			expected: 42,
		},
		{
			name:     "bool",
			value:    true,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderValue(tt.value, scope)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestRenderValue_Map(t *testing.T) {
	scope := testScope(map[string]any{
		"name": "atlas",
		"url":  "https://example.com",
	})

	value := map[string]any{
		"method": "POST",
		"url":    "{{ .Inputs.url }}/api",
		"body": map[string]any{
			"name": "{{ .Inputs.name }}",
		},
	}

	result, err := RenderValue(value, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resultMap, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", result)
	}

	if resultMap["url"] != "https://example.com/api" {
		t.Errorf("expected rendered url, got %v", resultMap["url"])
	}

	body, ok := resultMap["body"].(map[string]any)
	if !ok {
		t.Fatal("expected body to be map")
	}
	if body["name"] != "atlas" {
		t.Errorf("expected rendered name, got %v", body["name"])
	}
}

func TestRenderValue_Slice(t *testing.T) {
	scope := testScope(map[string]any{"prefix": "item"})

	value := []any{
		"{{ .Inputs.prefix }}_1",
		"{{ .Inputs.prefix }}_2",
		42,
	}

	result, err := RenderValue(value, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resultSlice, ok := result.([]any)
	if !ok {
		t.Fatalf("expected slice, got %T", result)
	}

	if len(resultSlice) != 3 {
		t.Errorf("expected 3 items, got %d", len(resultSlice))
	}
	if resultSlice[0] != "item_1" {
		t.Errorf("expected item_1, got %v", resultSlice[0])
	}
	if resultSlice[2] != 42 {
		t.Errorf("expected 42, got %v", resultSlice[2])
	}
}

func TestRenderConfig(t *testing.T) {
	scope := testScope(map[string]any{
		"api_url": "https://api.example.com",
		"token":   "secret123",
	})

	config := map[string]any{
		"method": "GET",
		"url":    "{{ .Inputs.api_url }}/users",
		"headers": map[string]any{
			"Authorization": "Bearer {{ .Inputs.token }}",
		},
	}

	result, err := RenderConfig(config, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result["url"] != "https://api.example.com/users" {
		t.Error("expected rendered url")
	}

	headers, ok := result["headers"].(map[string]any)
	if !ok {
		t.Fatal("expected headers to be map")
	}
	if headers["Authorization"] != "Bearer secret123" {
		t.Error("expected rendered auth header")
	}
}

func TestRenderConfig_Nil(t *testing.T) {
	result, err := RenderConfig(nil, testScope(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Error("result should not be nil")
	}
	if len(result) != 0 {
		t.Error("result should be empty")
	}
}
