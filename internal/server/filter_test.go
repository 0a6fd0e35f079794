package server

import (
	"testing"

	"stride/internal/domain"
)

func TestTaskFiltersDefaults(t *testing.T) {
	f := taskFilters("", "", "", "")
	if f.Limit != 50 || f.Offset != 0 || f.Status != "" || f.Query != "" {
		t.Errorf("defaults: %+v", f)
	}
}

func TestTaskFiltersTakeClamping(t *testing.T) {
	cases := []struct {
		take string
		want int
	}{
		{"9999", 100},
		{"100", 100},
		{"7", 7},
		{"-5", 50},
		{"0", 50},
		{"abc", 50},
		{"", 50},
	}
	for _, c := range cases {
		if got := taskFilters("", "", c.take, "").Limit; got != c.want {
			t.Errorf("take=%q: limit = %d, want %d", c.take, got, c.want)
		}
	}
}

func TestTaskFiltersSkipFloor(t *testing.T) {
	cases := []struct {
		skip string
		want int
	}{
		{"25", 25},
		{"-10", 0},
		{"abc", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := taskFilters("", "", "", c.skip).Offset; got != c.want {
			t.Errorf("skip=%q: offset = %d, want %d", c.skip, got, c.want)
		}
	}
}

func TestTaskFiltersInvalidStatusIgnored(t *testing.T) {
	if got := taskFilters("", "SHIPPED", "", "").Status; got != "" {
		t.Errorf("invalid status should be dropped, got %q", got)
	}
	if got := taskFilters("", domain.TaskDone, "", "").Status; got != domain.TaskDone {
		t.Errorf("valid status should pass through, got %q", got)
	}
}
