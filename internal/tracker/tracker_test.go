package tracker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"stride/internal/db"
	"stride/internal/domain"
	"stride/internal/migrate"
	"stride/internal/repo"
	"stride/internal/tracker"
	"stride/internal/validate"
)

type testEnv struct {
	Tracker tracker.Tracker
	Ctx     context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	if _, err := db.EnsureWorkspace(dir); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	tr := tracker.New(conn)
	tr.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return testEnv{Tracker: tr, Ctx: context.Background()}
}

func mustProject(t *testing.T, env testEnv, userID, name string) domain.Project {
	t.Helper()
	p, err := env.Tracker.CreateProject(env.Ctx, userID, validate.ProjectCreate{Name: name})
	if err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return p
}

func mustTask(t *testing.T, env testEnv, userID string, in validate.TaskCreate) domain.Task {
	t.Helper()
	task, err := env.Tracker.CreateTask(env.Ctx, userID, in)
	if err != nil {
		t.Fatalf("create task %s: %v", in.Title, err)
	}
	return task
}

func TestCreateDefaults(t *testing.T) {
	env := newTestEnv(t)
	p := mustProject(t, env, "alice", "Roadmap")
	if p.Status != domain.ProjectActive {
		t.Errorf("project status = %s, want %s", p.Status, domain.ProjectActive)
	}
	if p.CreatedAt != "2026-01-01T00:00:00Z" || p.UpdatedAt != p.CreatedAt {
		t.Errorf("timestamps = %s / %s", p.CreatedAt, p.UpdatedAt)
	}

	task := mustTask(t, env, "alice", validate.TaskCreate{ProjectID: p.ID, Title: "First"})
	if task.Status != domain.TaskTodo {
		t.Errorf("task status = %s, want %s", task.Status, domain.TaskTodo)
	}
	if task.Priority != domain.PriorityMedium {
		t.Errorf("task priority = %s, want %s", task.Priority, domain.PriorityMedium)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	env := newTestEnv(t)
	p := mustProject(t, env, "alice", "Private")
	task := mustTask(t, env, "alice", validate.TaskCreate{ProjectID: p.ID, Title: "Secret"})

	if _, err := env.Tracker.GetProject(env.Ctx, "bob", p.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("get project as bob: %v, want ErrNotFound", err)
	}
	if _, err := env.Tracker.UpdateProject(env.Ctx, "bob", p.ID, validate.ProjectUpdate{
		Name: validate.Set("Stolen"),
	}); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("update project as bob: %v, want ErrNotFound", err)
	}
	if err := env.Tracker.DeleteProject(env.Ctx, "bob", p.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("delete project as bob: %v, want ErrNotFound", err)
	}

	if _, err := env.Tracker.GetTask(env.Ctx, "bob", task.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("get task as bob: %v, want ErrNotFound", err)
	}
	if _, err := env.Tracker.UpdateTask(env.Ctx, "bob", task.ID, validate.TaskUpdate{
		Title: validate.Set("Stolen"),
	}); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("update task as bob: %v, want ErrNotFound", err)
	}
	if err := env.Tracker.DeleteTask(env.Ctx, "bob", task.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("delete task as bob: %v, want ErrNotFound", err)
	}

	// Nothing above should have changed alice's data.
	got, err := env.Tracker.GetProject(env.Ctx, "alice", p.ID)
	if err != nil || got.Name != "Private" {
		t.Fatalf("project after bob's attempts: %+v, %v", got, err)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	env := newTestEnv(t)
	p := mustProject(t, env, "alice", "Doomed")
	keep := mustProject(t, env, "alice", "Kept")
	for _, title := range []string{"a", "b", "c"} {
		mustTask(t, env, "alice", validate.TaskCreate{ProjectID: p.ID, Title: title})
	}
	survivor := mustTask(t, env, "alice", validate.TaskCreate{ProjectID: keep.ID, Title: "survivor"})

	if err := env.Tracker.DeleteProject(env.Ctx, "alice", p.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	tasks, err := env.Tracker.ListTasks(env.Ctx, "alice", repo.TaskFilters{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != survivor.ID {
		t.Fatalf("expected only the survivor task, got %d", len(tasks))
	}
}

func TestPartialUpdatePresence(t *testing.T) {
	env := newTestEnv(t)
	p := mustProject(t, env, "alice", "Roadmap")
	desc := "x"
	task := mustTask(t, env, "alice", validate.TaskCreate{ProjectID: p.ID, Title: "T", Description: &desc})

	// Omitted field stays put.
	got, err := env.Tracker.UpdateTask(env.Ctx, "alice", task.ID, validate.TaskUpdate{
		Title: validate.Set("T2"),
	})
	if err != nil {
		t.Fatalf("update title: %v", err)
	}
	if got.Description == nil || *got.Description != "x" {
		t.Errorf("description after omit = %v, want x", got.Description)
	}

	// Explicit null clears.
	got, err = env.Tracker.UpdateTask(env.Ctx, "alice", task.ID, validate.TaskUpdate{
		Description: validate.Null[string](),
	})
	if err != nil {
		t.Fatalf("clear description: %v", err)
	}
	if got.Description != nil {
		t.Errorf("description after null = %q, want nil", *got.Description)
	}

	// A value sets.
	got, err = env.Tracker.UpdateTask(env.Ctx, "alice", task.ID, validate.TaskUpdate{
		Description: validate.Set("y"),
	})
	if err != nil {
		t.Fatalf("set description: %v", err)
	}
	if got.Description == nil || *got.Description != "y" {
		t.Errorf("description after set = %v, want y", got.Description)
	}
}

func TestCreateTaskInUnownedProject(t *testing.T) {
	env := newTestEnv(t)
	p := mustProject(t, env, "alice", "Private")
	_, err := env.Tracker.CreateTask(env.Ctx, "bob", validate.TaskCreate{ProjectID: p.ID, Title: "Sneaky"})
	if !errors.Is(err, tracker.ErrProjectNotFound) {
		t.Fatalf("create task in alice's project as bob: %v, want ErrProjectNotFound", err)
	}
}

func TestReassignmentToUnownedProject(t *testing.T) {
	env := newTestEnv(t)
	mine := mustProject(t, env, "alice", "Mine")
	theirs := mustProject(t, env, "bob", "Theirs")
	task := mustTask(t, env, "alice", validate.TaskCreate{ProjectID: mine.ID, Title: "Movable"})

	_, err := env.Tracker.UpdateTask(env.Ctx, "alice", task.ID, validate.TaskUpdate{
		ProjectID: validate.Set(theirs.ID),
	})
	if !errors.Is(err, tracker.ErrProjectNotFound) {
		t.Fatalf("reassign to bob's project: %v, want ErrProjectNotFound", err)
	}

	got, err := env.Tracker.GetTask(env.Ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.ProjectID != mine.ID {
		t.Errorf("projectId = %s, want %s (unchanged)", got.ProjectID, mine.ID)
	}
}

func TestReassignmentBetweenOwnedProjects(t *testing.T) {
	env := newTestEnv(t)
	src := mustProject(t, env, "alice", "Src")
	dst := mustProject(t, env, "alice", "Dst")
	task := mustTask(t, env, "alice", validate.TaskCreate{ProjectID: src.ID, Title: "Movable"})

	got, err := env.Tracker.UpdateTask(env.Ctx, "alice", task.ID, validate.TaskUpdate{
		ProjectID: validate.Set(dst.ID),
	})
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if got.ProjectID != dst.ID {
		t.Errorf("projectId = %s, want %s", got.ProjectID, dst.ID)
	}
}

func TestSearchScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	mine := mustProject(t, env, "alice", "Mine")
	theirs := mustProject(t, env, "bob", "Theirs")
	mustTask(t, env, "alice", validate.TaskCreate{ProjectID: mine.ID, Title: "Deploy Widget"})
	other := "widget polish notes"
	mustTask(t, env, "bob", validate.TaskCreate{ProjectID: theirs.ID, Title: "Unrelated", Description: &other})

	tasks, err := env.Tracker.ListTasks(env.Ctx, "alice", repo.TaskFilters{Query: "WIDGET"})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Deploy Widget" {
		t.Fatalf("expected only alice's match, got %d", len(tasks))
	}
}

func TestSearchMatchesDescription(t *testing.T) {
	env := newTestEnv(t)
	p := mustProject(t, env, "alice", "Roadmap")
	desc := "upgrade the DATABASE schema"
	mustTask(t, env, "alice", validate.TaskCreate{ProjectID: p.ID, Title: "Chore", Description: &desc})
	mustTask(t, env, "alice", validate.TaskCreate{ProjectID: p.ID, Title: "Other"})

	tasks, err := env.Tracker.ListTasks(env.Ctx, "alice", repo.TaskFilters{Query: "database"})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Chore" {
		t.Fatalf("expected the description match, got %d", len(tasks))
	}
}

func TestListTasksUnownedProjectFilterYieldsEmpty(t *testing.T) {
	env := newTestEnv(t)
	theirs := mustProject(t, env, "bob", "Theirs")
	mustTask(t, env, "bob", validate.TaskCreate{ProjectID: theirs.ID, Title: "Hidden"})

	tasks, err := env.Tracker.ListTasks(env.Ctx, "alice", repo.TaskFilters{ProjectID: theirs.ID})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected empty result for unowned projectId filter, got %d", len(tasks))
	}
}

func TestListProjectTasksGuardsOwnership(t *testing.T) {
	env := newTestEnv(t)
	theirs := mustProject(t, env, "bob", "Theirs")
	_, err := env.Tracker.ListProjectTasks(env.Ctx, "alice", theirs.ID, repo.TaskFilters{})
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("list tasks of bob's project as alice: %v, want ErrNotFound", err)
	}
}

func TestProjectDetailAndTaskCount(t *testing.T) {
	env := newTestEnv(t)
	p := mustProject(t, env, "alice", "Roadmap")
	mustTask(t, env, "alice", validate.TaskCreate{ProjectID: p.ID, Title: "a"})
	mustTask(t, env, "alice", validate.TaskCreate{ProjectID: p.ID, Title: "b"})

	got, tasks, err := env.Tracker.ProjectDetail(env.Ctx, "alice", p.ID)
	if err != nil {
		t.Fatalf("project detail: %v", err)
	}
	if got.TaskCount != 2 {
		t.Errorf("taskCount = %d, want 2", got.TaskCount)
	}
	if len(tasks) != 2 {
		t.Errorf("len(tasks) = %d, want 2", len(tasks))
	}
}

func TestInvalidStatusFilterIgnoredAtRepoLevel(t *testing.T) {
	env := newTestEnv(t)
	p := mustProject(t, env, "alice", "Roadmap")
	mustTask(t, env, "alice", validate.TaskCreate{ProjectID: p.ID, Title: "a", Status: domain.TaskDone})
	mustTask(t, env, "alice", validate.TaskCreate{ProjectID: p.ID, Title: "b"})

	tasks, err := env.Tracker.ListTasks(env.Ctx, "alice", repo.TaskFilters{Status: domain.TaskDone})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "a" {
		t.Fatalf("status filter: got %d tasks", len(tasks))
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	p := mustProject(t, env, "alice", "Roadmap")
	mustProject(t, env, "alice", "Backlog")
	mustProject(t, env, "bob", "Other")
	mustTask(t, env, "alice", validate.TaskCreate{ProjectID: p.ID, Title: "a", Status: domain.TaskDone, Priority: domain.PriorityHigh})
	mustTask(t, env, "alice", validate.TaskCreate{ProjectID: p.ID, Title: "b"})

	s, err := env.Tracker.Stats(env.Ctx, "alice")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Projects.Total != 2 {
		t.Errorf("projects total = %d, want 2", s.Projects.Total)
	}
	if s.Tasks.Total != 2 || s.Tasks.ByStatus[domain.TaskDone] != 1 || s.Tasks.ByPriority[domain.PriorityHigh] != 1 {
		t.Errorf("task stats = %+v", s.Tasks)
	}
}

func TestEmptyDescriptionSurvivesRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	empty := ""
	p, err := env.Tracker.CreateProject(env.Ctx, "alice", validate.ProjectCreate{Name: "Roadmap", Description: &empty})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if p.Description == nil || *p.Description != "" {
		t.Fatalf("create returned description %v, want empty string", p.Description)
	}
	got, err := env.Tracker.GetProject(env.Ctx, "alice", p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if got.Description == nil || *got.Description != "" {
		t.Fatalf("read back description %v, want empty string", got.Description)
	}

	task, err := env.Tracker.CreateTask(env.Ctx, "alice", validate.TaskCreate{ProjectID: p.ID, Title: "a", Description: &empty})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	gotTask, err := env.Tracker.GetTask(env.Ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if gotTask.Description == nil || *gotTask.Description != "" {
		t.Fatalf("read back task description %v, want empty string", gotTask.Description)
	}
}
