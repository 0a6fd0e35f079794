package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"stride/internal/domain"
)

const taskColumns = `t.id, t.project_id, t.title, t.description, t.status, t.priority, t.due_date, t.created_at, t.updated_at`

// TaskFilters narrows a transitively owner-scoped task listing. ProjectID is
// an additional predicate only; it is never re-validated for ownership because
// the base scope already excludes other users' projects.
type TaskFilters struct {
	ProjectID string
	Status    string
	Query     string
	Limit     int
	Offset    int
}

func scanTask(scan func(dest ...any) error) (domain.Task, error) {
	var t domain.Task
	var description, dueDate sql.NullString
	err := scan(&t.ID, &t.ProjectID, &t.Title, &description, &t.Status, &t.Priority, &dueDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.String
	}
	return t, nil
}

func (r Repo) InsertTask(ctx context.Context, t domain.Task) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO tasks(id,project_id,title,description,status,priority,due_date,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		t.ID, t.ProjectID, t.Title, nullableStringPtr(t.Description), t.Status, t.Priority,
		nullableStringPtr(t.DueDate), t.CreatedAt, t.UpdatedAt)
	return err
}

// GetTask is the ownership guard for tasks. Ownership is resolved through the
// parent project, never off the task row itself.
func (r Repo) GetTask(ctx context.Context, ownerID, id string) (domain.Task, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t JOIN projects p ON p.id = t.project_id WHERE t.id=? AND p.owner_id=?`, id, ownerID)
	t, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

func escapeLike(s string) string {
	repl := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return repl.Replace(s)
}

func (r Repo) ListTasks(ctx context.Context, ownerID string, f TaskFilters) ([]domain.Task, error) {
	clauses := []string{"p.owner_id=?"}
	args := []any{ownerID}
	if f.ProjectID != "" {
		clauses = append(clauses, "t.project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		clauses = append(clauses, "t.status=?")
		args = append(args, f.Status)
	}
	if f.Query != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Query)) + "%"
		clauses = append(clauses, `(LOWER(t.title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(t.description,'')) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	query := `SELECT ` + taskColumns + ` FROM tasks t JOIN projects p ON p.id = t.project_id WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY t.created_at DESC, t.id DESC`
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// UpdateTask applies a resolved write set scoped by the owning project.
func (r Repo) UpdateTask(ctx context.Context, ownerID, id string, set WriteSet) error {
	if len(set) == 0 {
		return nil
	}
	assign, args := set.assignments()
	args = append(args, id, ownerID)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE tasks SET %s WHERE id=? AND project_id IN (SELECT id FROM projects WHERE owner_id=?)`, assign), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteTask(ctx context.Context, ownerID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id=? AND project_id IN (SELECT id FROM projects WHERE owner_id=?)`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) CountTasksByStatus(ctx context.Context, ownerID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT t.status, COUNT(*) FROM tasks t JOIN projects p ON p.id = t.project_id WHERE p.owner_id=? GROUP BY t.status`, ownerID)
	if err != nil {
		return nil, err
	}
	return countsByKey(rows)
}

func (r Repo) CountTasksByPriority(ctx context.Context, ownerID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT t.priority, COUNT(*) FROM tasks t JOIN projects p ON p.id = t.project_id WHERE p.owner_id=? GROUP BY t.priority`, ownerID)
	if err != nil {
		return nil, err
	}
	return countsByKey(rows)
}
