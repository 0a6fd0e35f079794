// Package tracker implements the owner-scoped operations over projects and
// tasks. The requesting user id is an explicit argument on every call; nothing
// here reads identity from ambient state.
package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stride/internal/domain"
	"stride/internal/repo"
	"stride/internal/validate"
)

// ErrProjectNotFound signals that a referenced project (the parent on task
// creation, or the destination on reassignment) is missing or not owned by
// the requester. It is distinct from repo.ErrNotFound so callers can tell
// which reference failed.
var ErrProjectNotFound = errors.New("project not found")

type Tracker struct {
	DB   *sql.DB
	Repo repo.Repo
	Now  func() time.Time
}

func New(db *sql.DB) Tracker {
	return Tracker{DB: db, Repo: repo.Repo{DB: db}, Now: time.Now}
}

func (t Tracker) now() string {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return now().UTC().Format(time.RFC3339)
}

func (t Tracker) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	return t.Repo.ListProjects(ctx, userID)
}

func (t Tracker) CreateProject(ctx context.Context, userID string, in validate.ProjectCreate) (domain.Project, error) {
	now := t.now()
	p := domain.Project{
		ID:          uuid.NewString(),
		OwnerID:     userID,
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Status == "" {
		p.Status = domain.ProjectActive
	}
	if err := t.Repo.InsertProject(ctx, p); err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (t Tracker) GetProject(ctx context.Context, userID, id string) (domain.Project, error) {
	return t.Repo.GetProject(ctx, userID, id)
}

// ProjectDetail returns an owned project with its tasks, newest first.
func (t Tracker) ProjectDetail(ctx context.Context, userID, id string) (domain.Project, []domain.Task, error) {
	p, err := t.Repo.GetProject(ctx, userID, id)
	if err != nil {
		return domain.Project{}, nil, err
	}
	tasks, err := t.Repo.ListTasks(ctx, userID, repo.TaskFilters{ProjectID: id})
	if err != nil {
		return domain.Project{}, nil, err
	}
	return p, tasks, nil
}

func (t Tracker) UpdateProject(ctx context.Context, userID, id string, in validate.ProjectUpdate) (domain.Project, error) {
	set := resolveProjectWrites(in)
	set = append(set, repo.Change{Column: "updated_at", Value: t.now()})
	if err := t.Repo.UpdateProject(ctx, userID, id, set); err != nil {
		return domain.Project{}, err
	}
	return t.Repo.GetProject(ctx, userID, id)
}

func (t Tracker) DeleteProject(ctx context.Context, userID, id string) error {
	return t.Repo.DeleteProject(ctx, userID, id)
}

// ListProjectTasks lists tasks within one owned project. The ownership check
// short-circuits before any task query runs.
func (t Tracker) ListProjectTasks(ctx context.Context, userID, projectID string, f repo.TaskFilters) ([]domain.Task, error) {
	if _, err := t.Repo.GetProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	f.ProjectID = projectID
	return t.Repo.ListTasks(ctx, userID, f)
}

// ListTasks lists tasks across all of the user's projects. An unowned
// f.ProjectID yields an empty result, not an error: the base scope already
// excludes other users' projects, so the extra predicate cannot leak.
func (t Tracker) ListTasks(ctx context.Context, userID string, f repo.TaskFilters) ([]domain.Task, error) {
	return t.Repo.ListTasks(ctx, userID, f)
}

func (t Tracker) CreateTask(ctx context.Context, userID string, in validate.TaskCreate) (domain.Task, error) {
	if _, err := t.Repo.GetProject(ctx, userID, in.ProjectID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Task{}, ErrProjectNotFound
		}
		return domain.Task{}, err
	}
	now := t.now()
	task := domain.Task{
		ID:          uuid.NewString(),
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Status == "" {
		task.Status = domain.TaskTodo
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if err := t.Repo.InsertTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (t Tracker) GetTask(ctx context.Context, userID, id string) (domain.Task, error) {
	return t.Repo.GetTask(ctx, userID, id)
}

// UpdateTask applies a partial update. A projectId reassignment re-validates
// ownership of the destination before anything is written, so a rejected
// reassignment leaves the task untouched.
func (t Tracker) UpdateTask(ctx context.Context, userID, id string, in validate.TaskUpdate) (domain.Task, error) {
	if in.ProjectID.Present {
		if _, err := t.Repo.GetProject(ctx, userID, in.ProjectID.Value); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.Task{}, ErrProjectNotFound
			}
			return domain.Task{}, err
		}
	}
	set := resolveTaskWrites(in)
	set = append(set, repo.Change{Column: "updated_at", Value: t.now()})
	if err := t.Repo.UpdateTask(ctx, userID, id, set); err != nil {
		return domain.Task{}, err
	}
	return t.Repo.GetTask(ctx, userID, id)
}

func (t Tracker) DeleteTask(ctx context.Context, userID, id string) error {
	return t.Repo.DeleteTask(ctx, userID, id)
}
