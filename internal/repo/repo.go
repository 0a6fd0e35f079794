package repo

import (
	"database/sql"
	"errors"
	"strings"
)

// Repo wraps the SQLite handle. Every query that touches projects or tasks is
// scoped to an owner id; there is no unscoped read or write path.
type Repo struct {
	DB *sql.DB
}

// ErrNotFound covers both "does not exist" and "exists but not owned by the
// requester". Callers cannot tell the two apart, so resource ids cannot be
// probed across accounts.
var ErrNotFound = errors.New("not found")

// Change is one resolved column write.
type Change struct {
	Column string
	Value  any
}

// WriteSet is the minimal set of columns an update will persist, computed by
// presence-checking a partial-update payload.
type WriteSet []Change

func (ws WriteSet) assignments() (string, []any) {
	cols := make([]string, 0, len(ws))
	args := make([]any, 0, len(ws))
	for _, c := range ws {
		cols = append(cols, c.Column+"=?")
		args = append(args, c.Value)
	}
	return strings.Join(cols, ", "), args
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// nullableStringPtr maps only a nil pointer to SQL NULL. A pointed-to empty
// string is a real value and is stored verbatim.
func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func countsByKey(rows *sql.Rows) (map[string]int, error) {
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
