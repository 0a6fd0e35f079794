package domain

// Project status values as stored and served.
const (
	ProjectActive    = "ACTIVE"
	ProjectCompleted = "COMPLETED"
	ProjectArchived  = "ARCHIVED"
)

// Task status values.
const (
	TaskTodo       = "TODO"
	TaskInProgress = "IN_PROGRESS"
	TaskDone       = "DONE"
)

// Task priority values.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// ValidProjectStatus reports whether s is a known project status.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

// ValidTaskStatus reports whether s is a known task status.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

// ValidTaskPriority reports whether s is a known task priority.
func ValidTaskPriority(s string) bool {
	switch s {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Project struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"-"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status" enum:"ACTIVE,COMPLETED,ARCHIVED"`
	StartDate   *string `json:"startDate,omitempty" format:"date-time"`
	EndDate     *string `json:"endDate,omitempty" format:"date-time"`
	TaskCount   int     `json:"taskCount"`
	CreatedAt   string  `json:"createdAt" format:"date-time"`
	UpdatedAt   string  `json:"updatedAt" format:"date-time"`
}

// Task ownership is transitive: the effective owner is the parent project's
// OwnerID. Tasks carry no owner column of their own.
type Task struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"projectId"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status" enum:"TODO,IN_PROGRESS,DONE"`
	Priority    string  `json:"priority" enum:"LOW,MEDIUM,HIGH"`
	DueDate     *string `json:"dueDate,omitempty" format:"date-time"`
	CreatedAt   string  `json:"createdAt" format:"date-time"`
	UpdatedAt   string  `json:"updatedAt" format:"date-time"`
}

type APIKey struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"keyHash"`
	CreatedAt string `json:"createdAt" format:"date-time"`
}
