package itinerary

import (
	"context"
	"sort"
)

// StubRepo is an in-memory Repo for tests. It counts remote calls so tests
// can assert that cached reads never reach the remote layer. Items are keyed
// by source id and type, so an activity and an expense sharing a source id
// can coexist the way the cache lookup contract allows.
type StubRepo struct {
	data map[stubItemKey]Item

	ForDateCalls  int
	ForRangeCalls int

	// Err, when set, is returned by every operation.
	Err error
}

type stubItemKey struct {
	sourceId string
	itemType ItemType
}

func NewStubRepo() *StubRepo {
	return &StubRepo{data: map[stubItemKey]Item{}}
}

func (s *StubRepo) Seed(items ...Item) {
	for _, item := range items {
		s.data[stubItemKey{item.SourceId, item.Type}] = item.Normalized()
	}
}

func (s *StubRepo) ForDate(ctx context.Context, userId string, travelId string, date string) ([]Item, error) {
	s.ForDateCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	var items []Item
	for _, item := range s.data {
		if item.UserId == userId && item.TravelId == travelId && item.Date == date {
			items = append(items, item)
		}
	}
	sortItems(items)
	return items, nil
}

func (s *StubRepo) ForRange(ctx context.Context, userId string, travelId string, from string, to string) (map[string][]Item, error) {
	s.ForRangeCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	buckets := map[string][]Item{}
	for _, item := range s.data {
		if item.UserId == userId && item.TravelId == travelId && item.Date >= from && item.Date <= to {
			buckets[item.Date] = append(buckets[item.Date], item)
		}
	}
	for date := range buckets {
		sortItems(buckets[date])
	}
	return buckets, nil
}

func (s *StubRepo) Create(ctx context.Context, userId string, item Item) (Item, error) {
	if s.Err != nil {
		return Item{}, s.Err
	}
	item.UserId = userId
	item = item.Normalized()
	s.data[stubItemKey{item.SourceId, item.Type}] = item
	return item, nil
}

func (s *StubRepo) Delete(ctx context.Context, userId string, sourceId string) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	deleted := false
	for key := range s.data {
		if key.sourceId == sourceId {
			delete(s.data, key)
			deleted = true
		}
	}
	return deleted, nil
}

func (s *StubRepo) SetCompleted(ctx context.Context, userId string, sourceId string, itemType ItemType, completed bool) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	key := stubItemKey{sourceId, itemType}
	item, ok := s.data[key]
	if !ok {
		return false, nil
	}
	item.IsDone = completed
	s.data[key] = item
	return true, nil
}

func (s *StubRepo) Reset() {
	s.data = map[stubItemKey]Item{}
	s.ForDateCalls = 0
	s.ForRangeCalls = 0
	s.Err = nil
}

func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Time != items[j].Time {
			return items[i].Time < items[j].Time
		}
		return items[i].SourceId < items[j].SourceId
	})
}
