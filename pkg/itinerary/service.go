package itinerary

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/wayplan/wayplan/internal/event_bus"
	"github.com/wayplan/wayplan/pkg/user"
)

var ErrItemNotFound = fmt.Errorf("itinerary item not found")

type Service interface {
	ItemsForDate(ctx context.Context, travelId string, date string) ([]Item, error)
	ItemsForRange(ctx context.Context, travelId string, from string, to string) (map[string][]Item, error)
	Create(ctx context.Context, item Item) (Item, error)
	Delete(ctx context.Context, sourceId string) error
	SetCompleted(ctx context.Context, sourceId string, itemType ItemType, completed bool) error
}

type ServiceImpl struct {
	repo     Repo
	eventBus *event_bus.EventBus
}

func NewService(repo Repo, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus}
}

func (s *ServiceImpl) ItemsForDate(ctx context.Context, travelId string, date string) ([]Item, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.ForDate(ctx, userId, travelId, date)
}

func (s *ServiceImpl) ItemsForRange(ctx context.Context, travelId string, from string, to string) (map[string][]Item, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.ForRange(ctx, userId, travelId, from, to)
}

func (s *ServiceImpl) Create(ctx context.Context, item Item) (Item, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Item{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if item.SourceId == "" {
		item.SourceId = uuid.NewString()
	}

	created, err := s.repo.Create(ctx, userId, item)
	if err != nil {
		return Item{}, err
	}

	// Created items change daily counts and trip aggregates, so both caches
	// need to recompute.
	s.announceDailyDataChanged(ctx)
	return created, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, sourceId string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	deleted, err := s.repo.Delete(ctx, userId, sourceId)
	if err != nil {
		return err
	}
	if !deleted {
		log.Warnf("item not deleted, probably because it does not exist (%s) or the user (%s) is not the owner", sourceId, userId)
		return ErrItemNotFound
	}

	s.announceDailyDataChanged(ctx)
	return nil
}

func (s *ServiceImpl) SetCompleted(ctx context.Context, sourceId string, itemType ItemType, completed bool) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	updated, err := s.repo.SetCompleted(ctx, userId, sourceId, itemType, completed)
	if err != nil {
		return err
	}
	if !updated {
		log.Warnf("item status not updated, probably because it does not exist (%s) or the user (%s) is not the owner", sourceId, userId)
		return ErrItemNotFound
	}

	// A completion toggle is announced with a targeted payload so that
	// subscribers can patch the one cached record instead of reloading.
	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.EventDailyDataChanged, event_bus.ItemStatusChanged{
		SourceId:  sourceId,
		ItemType:  string(itemType),
		Completed: completed,
	}))
	if err != nil {
		log.Errorf("failed to publish item status change: %v", err)
	}
	return nil
}

func (s *ServiceImpl) announceDailyDataChanged(ctx context.Context) {
	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.EventDailyDataChanged, nil)); err != nil {
		log.Errorf("failed to publish daily data change: %v", err)
	}
	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.EventTravelDataChanged, nil)); err != nil {
		log.Errorf("failed to publish travel data change: %v", err)
	}
}
