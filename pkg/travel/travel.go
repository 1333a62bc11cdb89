package travel

import (
	"time"
)

// Travel is the top-level planned journey. The four aggregate fields are
// computed by the remote summaries query and treated as read-only; the only
// local write is zero-filling them right after create, before the first
// recomputation.
type Travel struct {
	ID          string
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	Budget      float64
	BoundingBox []float64
	Countries   []string
	CreatedAt   time.Time
	UserId      string
	Closed      bool
	Synced      bool

	TotalExpenses   float64
	ExpensesCount   int
	TotalActivities float64
	ActivitiesCount int
}

// TravelInput is the mutable subset of Travel accepted by create and update.
type TravelInput struct {
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	Budget      float64
	BoundingBox []float64
	Countries   []string
	Closed      bool
	Synced      bool
}

// DailyPlanEntry is a per-date aggregate for one travel. One entry exists per
// date that has at least one itinerary item.
type DailyPlanEntry struct {
	Date            string
	ActivitiesCount int
	ExpensesCount   int
	TotalSpent      float64
}

// normalized returns the travel with slice fields defaulted so callers never
// see nil where the remote row had no value.
func (t Travel) normalized() Travel {
	if t.BoundingBox == nil {
		t.BoundingBox = []float64{}
	}
	if t.Countries == nil {
		t.Countries = []string{}
	}
	return t
}
