package server

import (
	"stride/internal/domain"
	"stride/internal/tracker"
)

// Response payloads

type ProjectResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Status      string  `json:"status" enum:"ACTIVE,COMPLETED,ARCHIVED"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	TaskCount   int     `json:"taskCount"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type ProjectDetailResponse struct {
	ProjectResponse
	Tasks []TaskResponse `json:"tasks"`
}

type TaskResponse struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"projectId"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status" enum:"TODO,IN_PROGRESS,DONE"`
	Priority    string  `json:"priority" enum:"LOW,MEDIUM,HIGH"`
	DueDate     *string `json:"dueDate"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type StatsResponse struct {
	Projects StatGroup     `json:"projects"`
	Tasks    TaskStatGroup `json:"tasks"`
}

type StatGroup struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

type TaskStatGroup struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	ByPriority map[string]int `json:"byPriority"`
}

func projectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		TaskCount:   p.TaskCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func taskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func mapProjects(items []domain.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(items))
	for _, p := range items {
		out = append(out, projectResponse(p))
	}
	return out
}

func mapTasks(items []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(items))
	for _, t := range items {
		out = append(out, taskResponse(t))
	}
	return out
}

func statsResponse(s tracker.Stats) StatsResponse {
	return StatsResponse{
		Projects: StatGroup{Total: s.Projects.Total, ByStatus: s.Projects.ByStatus},
		Tasks: TaskStatGroup{
			Total:      s.Tasks.Total,
			ByStatus:   s.Tasks.ByStatus,
			ByPriority: s.Tasks.ByPriority,
		},
	}
}
