package tracker

import "context"

// Stats aggregates a user's projects and tasks for the dashboard.
type Stats struct {
	Projects StatGroup     `json:"projects"`
	Tasks    TaskStatGroup `json:"tasks"`
}

type StatGroup struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

type TaskStatGroup struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	ByPriority map[string]int `json:"byPriority"`
}

func (t Tracker) Stats(ctx context.Context, userID string) (Stats, error) {
	var s Stats
	projectCounts, err := t.Repo.CountProjectsByStatus(ctx, userID)
	if err != nil {
		return s, err
	}
	statusCounts, err := t.Repo.CountTasksByStatus(ctx, userID)
	if err != nil {
		return s, err
	}
	priorityCounts, err := t.Repo.CountTasksByPriority(ctx, userID)
	if err != nil {
		return s, err
	}
	s.Projects.ByStatus = projectCounts
	for _, n := range projectCounts {
		s.Projects.Total += n
	}
	s.Tasks.ByStatus = statusCounts
	s.Tasks.ByPriority = priorityCounts
	for _, n := range statusCounts {
		s.Tasks.Total += n
	}
	return s, nil
}
