package travel

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wayplan/wayplan/pkg/itinerary"
)

// StubRepo is an in-memory Repo for tests. Aggregates are derived from seeded
// items the way the remote query would compute them. Call counters let tests
// assert how often the remote layer was hit.
type StubRepo struct {
	nextId  int
	travels map[string]Travel
	items   []itinerary.Item

	SummariesCalls int
	DailyPlanCalls int

	// Err, when set, is returned by every operation.
	Err error
}

func NewStubRepo() *StubRepo {
	return &StubRepo{travels: map[string]Travel{}}
}

func (s *StubRepo) Seed(travels ...Travel) {
	for _, travel := range travels {
		s.travels[travel.ID] = travel
	}
}

func (s *StubRepo) SeedItems(items ...itinerary.Item) {
	s.items = append(s.items, items...)
}

func (s *StubRepo) Summaries(ctx context.Context, userId string) ([]Travel, error) {
	s.SummariesCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	var travels []Travel
	for _, travel := range s.travels {
		if travel.UserId != userId {
			continue
		}
		travels = append(travels, s.withAggregates(travel))
	}
	sort.Slice(travels, func(i, j int) bool {
		if !travels[i].CreatedAt.Equal(travels[j].CreatedAt) {
			return travels[i].CreatedAt.Before(travels[j].CreatedAt)
		}
		return travels[i].ID < travels[j].ID
	})
	return travels, nil
}

func (s *StubRepo) DailyPlan(ctx context.Context, travelId string) ([]DailyPlanEntry, error) {
	s.DailyPlanCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	byDate := map[string]DailyPlanEntry{}
	for _, item := range s.items {
		if item.TravelId != travelId {
			continue
		}
		entry := byDate[item.Date]
		entry.Date = item.Date
		if item.Type == itinerary.TypeActivity {
			entry.ActivitiesCount++
		} else {
			entry.ExpensesCount++
		}
		if item.Cost != nil {
			entry.TotalSpent += *item.Cost
		}
		byDate[item.Date] = entry
	}
	var entries []DailyPlanEntry
	for _, entry := range byDate {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries, nil
}

func (s *StubRepo) Create(ctx context.Context, userId string, input TravelInput) (Travel, error) {
	if s.Err != nil {
		return Travel{}, s.Err
	}
	s.nextId++
	travel := Travel{
		ID:          fmt.Sprintf("travel-%d", s.nextId),
		Name:        input.Name,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Budget:      input.Budget,
		BoundingBox: input.BoundingBox,
		Countries:   input.Countries,
		CreatedAt:   time.Now(),
		UserId:      userId,
		Closed:      input.Closed,
		Synced:      input.Synced,
	}.normalized()
	s.travels[travel.ID] = travel
	return travel, nil
}

func (s *StubRepo) Update(ctx context.Context, userId string, travelId string, input TravelInput) (Travel, error) {
	if s.Err != nil {
		return Travel{}, s.Err
	}
	travel, ok := s.travels[travelId]
	if !ok || travel.UserId != userId {
		return Travel{}, ErrTravelNotFound
	}
	travel.Name = input.Name
	travel.StartDate = input.StartDate
	travel.EndDate = input.EndDate
	travel.Budget = input.Budget
	travel.BoundingBox = input.BoundingBox
	travel.Countries = input.Countries
	travel.Closed = input.Closed
	travel.Synced = input.Synced
	travel = travel.normalized()
	s.travels[travelId] = travel
	return s.withAggregates(travel), nil
}

func (s *StubRepo) Delete(ctx context.Context, userId string, travelId string) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	travel, ok := s.travels[travelId]
	if !ok || travel.UserId != userId {
		return false, nil
	}
	delete(s.travels, travelId)
	return true, nil
}

func (s *StubRepo) Reset() {
	s.travels = map[string]Travel{}
	s.items = nil
	s.SummariesCalls = 0
	s.DailyPlanCalls = 0
	s.Err = nil
}

func (s *StubRepo) withAggregates(travel Travel) Travel {
	travel.TotalExpenses = 0
	travel.ExpensesCount = 0
	travel.TotalActivities = 0
	travel.ActivitiesCount = 0
	for _, item := range s.items {
		if item.TravelId != travel.ID {
			continue
		}
		cost := 0.0
		if item.Cost != nil {
			cost = *item.Cost
		}
		if item.Type == itinerary.TypeActivity {
			travel.ActivitiesCount++
			travel.TotalActivities += cost
		} else {
			travel.ExpensesCount++
			travel.TotalExpenses += cost
		}
	}
	return travel
}
