package tracker

import (
	"stride/internal/repo"
	"stride/internal/validate"
)

// The write resolvers compute the exact columns an update will touch. A field
// absent from the payload never appears; explicit null maps to a NULL write on
// clearable columns. Presence is checked explicitly, so a set empty string or
// a set zero still produces a write.

func resolveProjectWrites(in validate.ProjectUpdate) repo.WriteSet {
	var set repo.WriteSet
	if in.Name.Present {
		set = append(set, repo.Change{Column: "name", Value: in.Name.Value})
	}
	set = appendClearable(set, "description", in.Description)
	if in.Status.Present {
		set = append(set, repo.Change{Column: "status", Value: in.Status.Value})
	}
	set = appendClearable(set, "start_date", in.StartDate)
	set = appendClearable(set, "end_date", in.EndDate)
	return set
}

func resolveTaskWrites(in validate.TaskUpdate) repo.WriteSet {
	var set repo.WriteSet
	if in.ProjectID.Present {
		set = append(set, repo.Change{Column: "project_id", Value: in.ProjectID.Value})
	}
	if in.Title.Present {
		set = append(set, repo.Change{Column: "title", Value: in.Title.Value})
	}
	set = appendClearable(set, "description", in.Description)
	if in.Status.Present {
		set = append(set, repo.Change{Column: "status", Value: in.Status.Value})
	}
	if in.Priority.Present {
		set = append(set, repo.Change{Column: "priority", Value: in.Priority.Value})
	}
	set = appendClearable(set, "due_date", in.DueDate)
	return set
}

func appendClearable(set repo.WriteSet, column string, f validate.Optional[string]) repo.WriteSet {
	if !f.Present {
		return set
	}
	if f.Null {
		return append(set, repo.Change{Column: column, Value: nil})
	}
	return append(set, repo.Change{Column: column, Value: f.Value})
}
