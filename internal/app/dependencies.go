package app

import (
	"database/sql"

	"github.com/wayplan/wayplan/internal/config"
	"github.com/wayplan/wayplan/internal/event_bus"
	"github.com/wayplan/wayplan/internal/utils"
	"github.com/wayplan/wayplan/pkg/itinerary"
	"github.com/wayplan/wayplan/pkg/querycache"
	"github.com/wayplan/wayplan/pkg/travel"
	"github.com/wayplan/wayplan/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus   *event_bus.EventBus
	QueryCache *querycache.Cache
	Clock      utils.Clock

	UserService user.Service
	UserHandler *user.Handler

	TravelRepo     travel.Repo
	SnapshotStore  *travel.SnapshotStore
	StoreRegistry  *travel.StoreRegistry
	TravelHandler  *travel.Handler

	ItemRepo    itinerary.Repo
	ItemService itinerary.Service
	ItemHandler *itinerary.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.QueryCache = querycache.NewCache()
	deps.Clock = &utils.SystemClock{}

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.TravelRepo = travel.NewRepo(db)
	deps.SnapshotStore = travel.NewSnapshotStore(cfg.Storage.SnapshotDir, deps.Clock)

	deps.ItemRepo = itinerary.NewRepo(db)
	deps.ItemService = itinerary.NewService(deps.ItemRepo, deps.EventBus)
	deps.ItemHandler = itinerary.NewHandler(deps.ItemService)

	deps.StoreRegistry = travel.NewStoreRegistry(deps.TravelRepo, deps.ItemRepo, deps.QueryCache, deps.SnapshotStore, deps.EventBus)
	deps.TravelHandler = travel.NewHandler(deps.StoreRegistry)

	return deps
}
