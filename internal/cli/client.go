package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// StepSpec — шаг шаблона из API.
type StepSpec struct {
	Name             string `json:"name"`
	Phase            string `json:"phase"`
	ParallelEligible bool   `json:"parallel_eligible"`
}

// DependencySpec — объявленная зависимость между шагами.
type DependencySpec struct {
	Predecessor string `json:"predecessor"`
	Successor   string `json:"successor"`
}

// TemplateResponse — шаблон из API.
type TemplateResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Steps        []StepSpec       `json:"steps"`
	Phases       []string         `json:"phases"`
	Dependencies []DependencySpec `json:"dependencies,omitempty"`
	Source       string           `json:"source"`
	CreatedAt    string           `json:"created_at"`
}

// PlanBatch — batch плана выполнения.
type PlanBatch struct {
	Kind  string     `json:"kind"`
	Steps []StepSpec `json:"steps"`
}

// PhasePlan — план одной фазы.
type PhasePlan struct {
	Phase   string      `json:"phase"`
	Batches []PlanBatch `json:"batches"`
}

// PlanResponse — план выполнения шаблона из API.
type PlanResponse struct {
	Template   string      `json:"template"`
	Source     string      `json:"source"`
	Phases     []string    `json:"phases"`
	TotalSteps int         `json:"total_steps"`
	Plan       []PhasePlan `json:"plan"`
}

// GraphResponse — граф зависимостей шаблона из API.
type GraphResponse struct {
	Template  string              `json:"template"`
	Source    string              `json:"source"`
	Edges     int                 `json:"edges"`
	Adjacency map[string][]string `json:"adjacency"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// StepResult — результат шага из API.
type StepResult struct {
	StepName   string         `json:"step_name"`
	Phase      string         `json:"phase"`
	StartedAt  string         `json:"started_at"`
	FinishedAt string         `json:"finished_at"`
	Success    bool           `json:"success"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// RunResponse — run из API.
type RunResponse struct {
	ID             string                  `json:"id"`
	TemplateID     string                  `json:"template_id,omitempty"`
	TemplateName   string                  `json:"template_name"`
	Status         string                  `json:"status"`
	Inputs         map[string]any          `json:"inputs,omitempty"`
	CurrentPhase   string                  `json:"current_phase,omitempty"`
	Phases         []string                `json:"phases,omitempty"`
	ResultsByPhase map[string][]StepResult `json:"results_by_phase,omitempty"`
	ErrorsByPhase  map[string][]StepResult `json:"errors_by_phase,omitempty"`
	CriticalPhases []string                `json:"critical_phases,omitempty"`
	Error          string                  `json:"error,omitempty"`
	CreatedAt      string                  `json:"created_at"`
	StartedAt      string                  `json:"started_at,omitempty"`
	FinishedAt     string                  `json:"finished_at,omitempty"`
}

// PhaseReport — итог одной фазы из отчёта.
type PhaseReport struct {
	Phase        string `json:"phase"`
	StepCount    int    `json:"step_count"`
	SuccessCount int    `json:"success_count"`
	ErrorCount   int    `json:"error_count"`
}

// ReportResponse — отчёт run из API.
type ReportResponse struct {
	RunID          string        `json:"run_id"`
	TemplateName   string        `json:"template_name,omitempty"`
	Status         string        `json:"status"`
	Duration       int64         `json:"duration"`
	PerPhase       []PhaseReport `json:"per_phase"`
	TotalSteps     int           `json:"total_steps"`
	TotalSuccesses int           `json:"total_successes"`
	TotalFailures  int           `json:"total_failures"`
	SuccessRate    float64       `json:"success_rate"`
}

// ScheduleResponse — schedule из API.
type ScheduleResponse struct {
	ID             string         `json:"id"`
	TemplateName   string         `json:"template_name"`
	Name           string         `json:"name,omitempty"`
	CronExpr       string         `json:"cron_expr,omitempty"`
	IntervalSec    int            `json:"interval_sec,omitempty"`
	Timezone       string         `json:"timezone"`
	Enabled        bool           `json:"enabled"`
	NextDueAt      string         `json:"next_due_at,omitempty"`
	LastRunAt      string         `json:"last_run_at,omitempty"`
	LastRunID      string         `json:"last_run_id,omitempty"`
	Inputs         map[string]any `json:"inputs,omitempty"`
	CriticalPhases []string       `json:"critical_phases,omitempty"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
}

// --- Request types ---

// CreateTemplateRequest — создание шаблона.
type CreateTemplateRequest struct {
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Steps        []StepSpec       `json:"steps"`
	Phases       []string         `json:"phases"`
	Dependencies []DependencySpec `json:"dependencies,omitempty"`
}

// ComposeTemplateRequest — составление шаблона из требований.
type ComposeTemplateRequest struct {
	Goal string   `json:"goal"`
	Tags []string `json:"tags,omitempty"`
	Save bool     `json:"save,omitempty"`
}

// CreateRunRequest — создание run.
type CreateRunRequest struct {
	Inputs         map[string]any `json:"inputs,omitempty"`
	CriticalPhases []string       `json:"critical_phases,omitempty"`
}

// CreateScheduleRequest — создание schedule.
type CreateScheduleRequest struct {
	Name           string         `json:"name"`
	CronExpr       string         `json:"cron_expr,omitempty"`
	IntervalSec    int            `json:"interval_sec,omitempty"`
	Timezone       string         `json:"timezone,omitempty"`
	Enabled        bool           `json:"enabled"`
	Inputs         map[string]any `json:"inputs,omitempty"`
	CriticalPhases []string       `json:"critical_phases,omitempty"`
}

// UpdateScheduleRequest — обновление schedule.
type UpdateScheduleRequest struct {
	Name           *string   `json:"name,omitempty"`
	CronExpr       *string   `json:"cron_expr,omitempty"`
	IntervalSec    *int      `json:"interval_sec,omitempty"`
	Timezone       *string   `json:"timezone,omitempty"`
	CriticalPhases *[]string `json:"critical_phases,omitempty"`
}

// ListRunsOpts — параметры фильтрации runs.
type ListRunsOpts struct {
	Template string
	Status   string
	Limit    int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Partitura API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Templates ---

// ListTemplates возвращает все шаблоны: пресеты каталога и сохранённые.
func (c *Client) ListTemplates() ([]TemplateResponse, error) {
	var templates []TemplateResponse
	err := c.list("/api/v1/templates", nil, &templates)
	return templates, err
}

// CreateTemplate сохраняет новый шаблон.
func (c *Client) CreateTemplate(req CreateTemplateRequest) (*TemplateResponse, error) {
	var tpl TemplateResponse
	err := c.post("/api/v1/templates", req, &tpl)
	return &tpl, err
}

// ComposeTemplate составляет шаблон из цели и тегов требований.
func (c *Client) ComposeTemplate(req ComposeTemplateRequest) (*TemplateResponse, error) {
	var tpl TemplateResponse
	err := c.post("/api/v1/templates/compose", req, &tpl)
	return &tpl, err
}

// GetTemplate возвращает шаблон по UUID или имени.
func (c *Client) GetTemplate(ref string) (*TemplateResponse, error) {
	var tpl TemplateResponse
	err := c.get("/api/v1/templates/"+url.PathEscape(ref), &tpl)
	return &tpl, err
}

// DeleteTemplate удаляет сохранённый шаблон.
func (c *Client) DeleteTemplate(ref string) error {
	return c.delete("/api/v1/templates/" + url.PathEscape(ref))
}

// GetPlan возвращает план выполнения шаблона.
func (c *Client) GetPlan(ref string) (*PlanResponse, error) {
	var plan PlanResponse
	err := c.get("/api/v1/templates/"+url.PathEscape(ref)+"/plan", &plan)
	return &plan, err
}

// GetGraph возвращает граф объявленных зависимостей шаблона.
func (c *Client) GetGraph(ref string) (*GraphResponse, error) {
	var graph GraphResponse
	err := c.get("/api/v1/templates/"+url.PathEscape(ref)+"/graph", &graph)
	return &graph, err
}

// --- Runs ---

// ListRuns возвращает список runs с фильтрацией.
func (c *Client) ListRuns(opts ListRunsOpts) ([]RunResponse, error) {
	params := url.Values{}
	if opts.Template != "" {
		params.Set("template", opts.Template)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var runs []RunResponse
	err := c.list("/api/v1/runs", params, &runs)
	return runs, err
}

// CreateRun ставит run шаблона в очередь.
func (c *Client) CreateRun(ref string, req CreateRunRequest) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/templates/"+url.PathEscape(ref)+"/runs", req, &run)
	return &run, err
}

// GetRun возвращает run по ID.
func (c *Client) GetRun(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.get("/api/v1/runs/"+id, &run)
	return &run, err
}

// GetRunReport возвращает отчёт завершённого run.
func (c *Client) GetRunReport(id string) (*ReportResponse, error) {
	var report ReportResponse
	err := c.get("/api/v1/runs/"+id+"/report", &report)
	return &report, err
}

// --- Schedules ---

// ListSchedules возвращает schedules. Если template не пустой — фильтрует.
func (c *Client) ListSchedules(template string) ([]ScheduleResponse, error) {
	params := url.Values{}
	if template != "" {
		params.Set("template", template)
	}

	var schedules []ScheduleResponse
	err := c.list("/api/v1/schedules", params, &schedules)
	return schedules, err
}

// CreateSchedule создаёт schedule для шаблона.
func (c *Client) CreateSchedule(ref string, req CreateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.post("/api/v1/templates/"+url.PathEscape(ref)+"/schedules", req, &schedule)
	return &schedule, err
}

// GetSchedule возвращает schedule по ID.
func (c *Client) GetSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.get("/api/v1/schedules/"+id, &schedule)
	return &schedule, err
}

// UpdateSchedule обновляет schedule.
func (c *Client) UpdateSchedule(id string, req UpdateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.put("/api/v1/schedules/"+id, req, &schedule)
	return &schedule, err
}

// DeleteSchedule удаляет schedule.
func (c *Client) DeleteSchedule(id string) error {
	return c.delete("/api/v1/schedules/" + id)
}

// EnableSchedule включает schedule.
func (c *Client) EnableSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": true}
	err := c.put("/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// DisableSchedule выключает schedule.
func (c *Client) DisableSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": false}
	err := c.put("/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
