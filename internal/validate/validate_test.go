package validate_test

import (
	"strings"
	"testing"

	"stride/internal/validate"
)

func fieldReasons(err *validate.Error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}
	for _, f := range err.Fields {
		out[f.Field] = f.Reason
	}
	return out
}

func TestCreateProjectAggregatesAllViolations(t *testing.T) {
	body := []byte(`{"name":"","status":"FINISHED","startDate":"not-a-date"}`)
	_, err := validate.CreateProject(body)
	if err == nil {
		t.Fatal("expected validation error")
	}
	reasons := fieldReasons(err)
	if len(reasons) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(reasons), err.Fields)
	}
	if reasons["name"] != "must not be empty" {
		t.Errorf("name: %q", reasons["name"])
	}
	if reasons["status"] != "unknown value" {
		t.Errorf("status: %q", reasons["status"])
	}
	if reasons["startDate"] != "must be an RFC 3339 timestamp" {
		t.Errorf("startDate: %q", reasons["startDate"])
	}
}

func TestCreateProjectMinimal(t *testing.T) {
	out, err := validate.CreateProject([]byte(`{"name":"Roadmap"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != "Roadmap" {
		t.Errorf("name: %q", out.Name)
	}
	if out.Description != nil || out.Status != "" || out.StartDate != nil {
		t.Errorf("expected zero optionals, got %+v", out)
	}
}

func TestCreateProjectNullDescriptionAllowed(t *testing.T) {
	out, err := validate.CreateProject([]byte(`{"name":"Roadmap","description":null}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Description != nil {
		t.Errorf("description should be nil, got %q", *out.Description)
	}
}

func TestCreateProjectNullDateRejected(t *testing.T) {
	_, err := validate.CreateProject([]byte(`{"name":"Roadmap","startDate":null}`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if fieldReasons(err)["startDate"] != "must not be null" {
		t.Errorf("startDate: %v", err.Fields)
	}
}

func TestCreateProjectNormalizesDates(t *testing.T) {
	out, err := validate.CreateProject([]byte(`{"name":"Roadmap","startDate":"2026-03-01T10:00:00+02:00"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.StartDate == nil || *out.StartDate != "2026-03-01T08:00:00Z" {
		t.Errorf("startDate = %v", out.StartDate)
	}
}

func TestCreateProjectNameTooLong(t *testing.T) {
	body := []byte(`{"name":"` + strings.Repeat("a", 121) + `"}`)
	_, err := validate.CreateProject(body)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := fieldReasons(err)["name"]; got != "must be at most 120 characters" {
		t.Errorf("name: %q", got)
	}
}

func TestCreateTaskRequiredFields(t *testing.T) {
	_, err := validate.CreateTask([]byte(`{}`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	reasons := fieldReasons(err)
	if reasons["projectId"] != "required" || reasons["title"] != "required" {
		t.Errorf("got %v", err.Fields)
	}
}

func TestCreateTaskTitleTooLong(t *testing.T) {
	body := []byte(`{"projectId":"p1","title":"` + strings.Repeat("x", 201) + `"}`)
	_, err := validate.CreateTask(body)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := fieldReasons(err)["title"]; got != "must be at most 200 characters" {
		t.Errorf("title: %q", got)
	}
}

func TestUpdateTaskThreeStateDescription(t *testing.T) {
	out, err := validate.UpdateTask([]byte(`{"title":"new"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Description.Present {
		t.Error("omitted description should be absent")
	}

	out, err = validate.UpdateTask([]byte(`{"description":null}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Description.Present || !out.Description.Null {
		t.Errorf("null description should be present+null, got %+v", out.Description)
	}

	out, err = validate.UpdateTask([]byte(`{"description":"y"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Description.Present || out.Description.Null || out.Description.Value != "y" {
		t.Errorf("set description should carry the value, got %+v", out.Description)
	}
}

func TestUpdateTaskNullTitleRejected(t *testing.T) {
	_, err := validate.UpdateTask([]byte(`{"title":null}`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := fieldReasons(err)["title"]; got != "must not be null" {
		t.Errorf("title: %q", got)
	}
}

func TestUpdateProjectEmptyObjectValid(t *testing.T) {
	out, err := validate.UpdateProject([]byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name.Present || out.Description.Present || out.Status.Present {
		t.Errorf("all fields should be absent, got %+v", out)
	}
}

func TestParseBodyErrors(t *testing.T) {
	_, err := validate.UpdateProject(nil)
	if err == nil || fieldReasons(err)["body"] != "required" {
		t.Errorf("empty body: %v", err)
	}
	_, err = validate.UpdateProject([]byte(`[1,2]`))
	if err == nil || fieldReasons(err)["body"] != "must be a JSON object" {
		t.Errorf("non-object body: %v", err)
	}
}
