package stridesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal Stride HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Project represents the API project model.
type Project struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	TaskCount   int     `json:"taskCount"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// ProjectDetail is a project with its tasks embedded.
type ProjectDetail struct {
	Project
	Tasks []Task `json:"tasks"`
}

// Task represents the API task model.
type Task struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"projectId"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// Stats mirrors the /stats response.
type Stats struct {
	Projects struct {
		Total    int            `json:"total"`
		ByStatus map[string]int `json:"byStatus"`
	} `json:"projects"`
	Tasks struct {
		Total      int            `json:"total"`
		ByStatus   map[string]int `json:"byStatus"`
		ByPriority map[string]int `json:"byPriority"`
	} `json:"tasks"`
}

// TaskFilter narrows task listings. Zero values mean "no filter".
type TaskFilter struct {
	ProjectID string
	Status    string
	Query     string
	Take      int
	Skip      int
}

func (f TaskFilter) query() string {
	v := url.Values{}
	if f.ProjectID != "" {
		v.Set("projectId", f.ProjectID)
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Take > 0 {
		v.Set("take", strconv.Itoa(f.Take))
	}
	if f.Skip > 0 {
		v.Set("skip", strconv.Itoa(f.Skip))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ListProjects returns all projects owned by the caller.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var resp []Project
	err := c.do(ctx, http.MethodGet, "v1/projects", nil, &resp)
	return resp, err
}

// CreateProject creates a project. Body keys follow the API schema, so
// partial payloads and explicit nulls pass through untouched.
func (c *Client) CreateProject(ctx context.Context, body map[string]any) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, "v1/projects", body, &resp)
	return resp, err
}

// GetProject fetches a project with its tasks.
func (c *Client) GetProject(ctx context.Context, id string) (ProjectDetail, error) {
	var resp ProjectDetail
	err := c.do(ctx, http.MethodGet, "v1/projects/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// UpdateProject applies a partial update. Omit a key to leave the field
// alone; send an explicit null to clear a clearable field.
func (c *Client) UpdateProject(ctx context.Context, id string, body map[string]any) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPut, "v1/projects/"+url.PathEscape(id), body, &resp)
	return resp, err
}

// DeleteProject deletes a project and all of its tasks.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "v1/projects/"+url.PathEscape(id), nil, nil)
}

// ListProjectTasks returns tasks within one project.
func (c *Client) ListProjectTasks(ctx context.Context, projectID string, filter TaskFilter) ([]Task, error) {
	filter.ProjectID = ""
	var resp []Task
	endpoint := fmt.Sprintf("v1/projects/%s/tasks%s", url.PathEscape(projectID), filter.query())
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// ListTasks returns tasks across all owned projects.
func (c *Client) ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	var resp []Task
	err := c.do(ctx, http.MethodGet, "v1/tasks"+filter.query(), nil, &resp)
	return resp, err
}

// CreateTask creates a task in an owned project.
func (c *Client) CreateTask(ctx context.Context, body map[string]any) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, "v1/tasks", body, &resp)
	return resp, err
}

// GetTask fetches a task by id.
func (c *Client) GetTask(ctx context.Context, id string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodGet, "v1/tasks/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, id string, body map[string]any) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPut, "v1/tasks/"+url.PathEscape(id), body, &resp)
	return resp, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "v1/tasks/"+url.PathEscape(id), nil, nil)
}

// GetStats returns counters for the caller's projects and tasks.
func (c *Client) GetStats(ctx context.Context) (Stats, error) {
	var resp Stats
	err := c.do(ctx, http.MethodGet, "v1/stats", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
