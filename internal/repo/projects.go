package repo

import (
	"context"
	"database/sql"
	"fmt"

	"stride/internal/domain"
)

const projectColumns = `p.id, p.owner_id, p.name, p.description, p.status, p.start_date, p.end_date, p.created_at, p.updated_at,
(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id) AS task_count`

func scanProject(scan func(dest ...any) error) (domain.Project, error) {
	var p domain.Project
	var description, startDate, endDate sql.NullString
	err := scan(&p.ID, &p.OwnerID, &p.Name, &description, &p.Status, &startDate, &endDate, &p.CreatedAt, &p.UpdatedAt, &p.TaskCount)
	if err != nil {
		return p, err
	}
	if description.Valid {
		p.Description = &description.String
	}
	if startDate.Valid {
		p.StartDate = &startDate.String
	}
	if endDate.Valid {
		p.EndDate = &endDate.String
	}
	return p, nil
}

func (r Repo) InsertProject(ctx context.Context, p domain.Project) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO projects(id,owner_id,name,description,status,start_date,end_date,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		p.ID, p.OwnerID, p.Name, nullableStringPtr(p.Description), p.Status,
		nullableStringPtr(p.StartDate), nullableStringPtr(p.EndDate), p.CreatedAt, p.UpdatedAt)
	return err
}

// GetProject is the ownership guard for projects: a single lookup filtered by
// both id and owner. Missing and unowned are the same ErrNotFound.
func (r Repo) GetProject(ctx context.Context, ownerID, id string) (domain.Project, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id=? AND p.owner_id=?`, id, ownerID)
	p, err := scanProject(row.Scan)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

func (r Repo) ListProjects(ctx context.Context, ownerID string) ([]domain.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.owner_id=? ORDER BY p.created_at DESC, p.id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// UpdateProject applies a resolved write set scoped by (id, owner). Zero rows
// matched means not found or not owned; the caller cannot distinguish.
func (r Repo) UpdateProject(ctx context.Context, ownerID, id string, set WriteSet) error {
	if len(set) == 0 {
		return nil
	}
	assign, args := set.assignments()
	args = append(args, id, ownerID)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE projects SET %s WHERE id=? AND owner_id=?`, assign), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProject deletes a project and all its tasks in one transaction. Either
// both deletions commit or neither does.
func (r Repo) DeleteProject(ctx context.Context, ownerID, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id IN (SELECT id FROM projects WHERE id=? AND owner_id=?)`, id, ownerID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id=? AND owner_id=?`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (r Repo) CountProjectsByStatus(ctx context.Context, ownerID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM projects WHERE owner_id=? GROUP BY status`, ownerID)
	if err != nil {
		return nil, err
	}
	return countsByKey(rows)
}
