// Package validate checks create/update payloads for projects and tasks.
// Validators take raw JSON bytes and either return a typed payload or an
// *Error listing every violated field, never just the first one. Field
// presence is read off the raw body so that "absent" and "null" survive into
// the update payloads as distinct states.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stride/internal/domain"
)

const (
	maxProjectName     = 120
	maxProjectDesc     = 2000
	maxTaskTitle       = 200
	maxTaskDescription = 5000
)

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error is a validation failure. It aggregates all field violations found in
// one pass over the body.
type Error struct {
	Fields []FieldError `json:"fields"`
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "invalid body"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "invalid body: " + strings.Join(parts, "; ")
}

func (e *Error) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *Error) or() *Error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ProjectCreate is a validated create-project payload.
type ProjectCreate struct {
	Name        string
	Description *string
	Status      string
	StartDate   *string
	EndDate     *string
}

// ProjectUpdate is a validated partial-update payload for a project. Fields
// not present in the body are zero Optionals.
type ProjectUpdate struct {
	Name        Optional[string]
	Description Optional[string]
	Status      Optional[string]
	StartDate   Optional[string]
	EndDate     Optional[string]
}

// TaskCreate is a validated create-task payload.
type TaskCreate struct {
	ProjectID   string
	Title       string
	Description *string
	Status      string
	Priority    string
	DueDate     *string
}

// TaskUpdate is a validated partial-update payload for a task.
type TaskUpdate struct {
	ProjectID   Optional[string]
	Title       Optional[string]
	Description Optional[string]
	Status      Optional[string]
	Priority    Optional[string]
	DueDate     Optional[string]
}

// CreateProject validates a create-project body.
func CreateProject(raw []byte) (ProjectCreate, *Error) {
	body, verr := parseBody(raw)
	if verr != nil {
		return ProjectCreate{}, verr
	}
	var (
		out  ProjectCreate
		errs Error
	)
	out.Name = requiredString(body, &errs, "name", maxProjectName)
	out.Description = clearableStringValue(body, &errs, "description", maxProjectDesc)
	out.Status = enumValue(body, &errs, "status", domain.ValidProjectStatus)
	out.StartDate = dateValue(body, &errs, "startDate")
	out.EndDate = dateValue(body, &errs, "endDate")
	return out, errs.or()
}

// UpdateProject validates a partial project update. Every field is optional;
// name and status cannot be cleared to null.
func UpdateProject(raw []byte) (ProjectUpdate, *Error) {
	body, verr := parseBody(raw)
	if verr != nil {
		return ProjectUpdate{}, verr
	}
	var (
		out  ProjectUpdate
		errs Error
	)
	out.Name = optionalString(body, &errs, "name", maxProjectName)
	out.Description = clearableString(body, &errs, "description", maxProjectDesc)
	out.Status = optionalEnum(body, &errs, "status", domain.ValidProjectStatus)
	out.StartDate = clearableDate(body, &errs, "startDate")
	out.EndDate = clearableDate(body, &errs, "endDate")
	return out, errs.or()
}

// CreateTask validates a create-task body.
func CreateTask(raw []byte) (TaskCreate, *Error) {
	body, verr := parseBody(raw)
	if verr != nil {
		return TaskCreate{}, verr
	}
	var (
		out  TaskCreate
		errs Error
	)
	out.ProjectID = requiredString(body, &errs, "projectId", 0)
	out.Title = requiredString(body, &errs, "title", maxTaskTitle)
	out.Description = clearableStringValue(body, &errs, "description", maxTaskDescription)
	out.Status = enumValue(body, &errs, "status", domain.ValidTaskStatus)
	out.Priority = enumValue(body, &errs, "priority", domain.ValidTaskPriority)
	out.DueDate = dateValue(body, &errs, "dueDate")
	return out, errs.or()
}

// UpdateTask validates a partial task update. Only description and dueDate
// can be cleared to null.
func UpdateTask(raw []byte) (TaskUpdate, *Error) {
	body, verr := parseBody(raw)
	if verr != nil {
		return TaskUpdate{}, verr
	}
	var (
		out  TaskUpdate
		errs Error
	)
	out.ProjectID = optionalString(body, &errs, "projectId", 0)
	out.Title = optionalString(body, &errs, "title", maxTaskTitle)
	out.Description = clearableString(body, &errs, "description", maxTaskDescription)
	out.Status = optionalEnum(body, &errs, "status", domain.ValidTaskStatus)
	out.Priority = optionalEnum(body, &errs, "priority", domain.ValidTaskPriority)
	out.DueDate = clearableDate(body, &errs, "dueDate")
	return out, errs.or()
}

func parseBody(raw []byte) (map[string]json.RawMessage, *Error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		e := &Error{}
		e.add("body", "required")
		return nil, e
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		e := &Error{}
		e.add("body", "must be a JSON object")
		return nil, e
	}
	return body, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && bytes.Equal(trimmed, []byte("null"))
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// requiredString reads a mandatory non-empty string field. maxLen 0 means
// unbounded.
func requiredString(body map[string]json.RawMessage, errs *Error, name string, maxLen int) string {
	raw, ok := body[name]
	if !ok || isNull(raw) {
		errs.add(name, "required")
		return ""
	}
	s, ok := decodeString(raw)
	if !ok {
		errs.add(name, "must be a string")
		return ""
	}
	return checkString(errs, name, s, maxLen)
}

// optionalString reads a field that may be omitted but not cleared.
func optionalString(body map[string]json.RawMessage, errs *Error, name string, maxLen int) Optional[string] {
	raw, ok := body[name]
	if !ok {
		return Optional[string]{}
	}
	if isNull(raw) {
		errs.add(name, "must not be null")
		return Optional[string]{}
	}
	s, ok := decodeString(raw)
	if !ok {
		errs.add(name, "must be a string")
		return Optional[string]{}
	}
	return Set(checkString(errs, name, s, maxLen))
}

// clearableString reads a field that may be omitted, set, or cleared to null.
func clearableString(body map[string]json.RawMessage, errs *Error, name string, maxLen int) Optional[string] {
	raw, ok := body[name]
	if !ok {
		return Optional[string]{}
	}
	if isNull(raw) {
		return Null[string]()
	}
	s, ok := decodeString(raw)
	if !ok {
		errs.add(name, "must be a string")
		return Optional[string]{}
	}
	if maxLen > 0 && len(s) > maxLen {
		errs.add(name, fmt.Sprintf("must be at most %d characters", maxLen))
		return Optional[string]{}
	}
	return Set(s)
}

// clearableStringValue is clearableString for create payloads, where null and
// absent both mean "no value".
func clearableStringValue(body map[string]json.RawMessage, errs *Error, name string, maxLen int) *string {
	opt := clearableString(body, errs, name, maxLen)
	if !opt.Present || opt.Null {
		return nil
	}
	v := opt.Value
	return &v
}

func checkString(errs *Error, name, s string, maxLen int) string {
	if s == "" {
		errs.add(name, "must not be empty")
		return ""
	}
	if maxLen > 0 && len(s) > maxLen {
		errs.add(name, fmt.Sprintf("must be at most %d characters", maxLen))
		return ""
	}
	return s
}

func enumValue(body map[string]json.RawMessage, errs *Error, name string, valid func(string) bool) string {
	opt := optionalEnum(body, errs, name, valid)
	if !opt.Present {
		return ""
	}
	return opt.Value
}

func optionalEnum(body map[string]json.RawMessage, errs *Error, name string, valid func(string) bool) Optional[string] {
	raw, ok := body[name]
	if !ok {
		return Optional[string]{}
	}
	if isNull(raw) {
		errs.add(name, "must not be null")
		return Optional[string]{}
	}
	s, ok := decodeString(raw)
	if !ok || !valid(s) {
		errs.add(name, "unknown value")
		return Optional[string]{}
	}
	return Set(s)
}

// parseDate accepts RFC 3339 timestamps and normalizes them to UTC.
func parseDate(s string) (string, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(time.RFC3339), nil
}

// dateValue reads an optional create-time date. Unlike updates, create
// payloads have nothing to clear, so explicit null is rejected.
func dateValue(body map[string]json.RawMessage, errs *Error, name string) *string {
	raw, ok := body[name]
	if !ok {
		return nil
	}
	if isNull(raw) {
		errs.add(name, "must not be null")
		return nil
	}
	opt := clearableDate(body, errs, name)
	if !opt.Present {
		return nil
	}
	v := opt.Value
	return &v
}

func clearableDate(body map[string]json.RawMessage, errs *Error, name string) Optional[string] {
	raw, ok := body[name]
	if !ok {
		return Optional[string]{}
	}
	if isNull(raw) {
		return Null[string]()
	}
	s, ok := decodeString(raw)
	if !ok {
		errs.add(name, "must be a string")
		return Optional[string]{}
	}
	normalized, err := parseDate(s)
	if err != nil {
		errs.add(name, "must be an RFC 3339 timestamp")
		return Optional[string]{}
	}
	return Set(normalized)
}
