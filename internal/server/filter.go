package server

import (
	"strconv"

	"stride/internal/domain"
	"stride/internal/repo"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// taskFilters translates raw query parameters into a repository filter.
// The parameters are deliberately lenient: an unknown status means "no
// status filter", and non-numeric or out-of-range take/skip values fall
// back to the defaults instead of erroring.
func taskFilters(q, status, take, skip string) repo.TaskFilters {
	f := repo.TaskFilters{
		Query: q,
		Limit: defaultPageSize,
	}
	if domain.ValidTaskStatus(status) {
		f.Status = status
	}
	if n, err := strconv.Atoi(take); err == nil && n > 0 {
		if n > maxPageSize {
			n = maxPageSize
		}
		f.Limit = n
	}
	if n, err := strconv.Atoi(skip); err == nil && n > 0 {
		f.Offset = n
	}
	return f
}
