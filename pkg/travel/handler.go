package travel

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/wayplan/wayplan/pkg/itinerary"
	"github.com/wayplan/wayplan/pkg/user"
)

type TravelDTO struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	Budget      float64   `json:"budget"`
	BoundingBox []float64 `json:"boundingBox"`
	Countries   []string  `json:"countries"`
	CreatedAt   time.Time `json:"createdAt"`
	Closed      bool      `json:"closed"`
	Synced      bool      `json:"synced"`

	TotalExpenses   float64 `json:"totalExpenses"`
	ExpensesCount   int     `json:"expensesCount"`
	TotalActivities float64 `json:"totalActivities"`
	ActivitiesCount int     `json:"activitiesCount"`
}

type TravelInputDTO struct {
	Name        string    `json:"name"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	Budget      float64   `json:"budget"`
	BoundingBox []float64 `json:"boundingBox"`
	Countries   []string  `json:"countries"`
	Closed      bool      `json:"closed"`
	Synced      bool      `json:"synced"`
}

type DailyPlanEntryDTO struct {
	Date            string  `json:"date"`
	ActivitiesCount int     `json:"activitiesCount"`
	ExpensesCount   int     `json:"expensesCount"`
	TotalSpent      float64 `json:"totalSpent"`
}

type Handler struct {
	registry *StoreRegistry
}

func NewHandler(registry *StoreRegistry) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) ListTravels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	listStore, err := h.registry.ListStoreFor(r.Context(), currentUser)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	travels := listStore.Travels()
	dtos := make([]TravelDTO, 0, len(travels))
	for _, travel := range travels {
		dtos = append(dtos, travelToDTO(travel))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) CreateTravel(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new travel")
	w.Header().Set("Content-Type", "application/json")

	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var dto TravelInputDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input, err := dtoToInput(dto)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	listStore, err := h.registry.ListStoreFor(r.Context(), currentUser)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	created, err := listStore.Create(r.Context(), input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(travelToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) UpdateTravel(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)
	travelId := vars["travelId"]

	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var dto TravelInputDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input, err := dtoToInput(dto)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	store, err := h.registry.StoreFor(r.Context(), currentUser, travelId)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	updated, err := store.Update(r.Context(), input)
	if err != nil {
		if errors.Is(err, ErrTravelNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(travelToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) DeleteTravel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	travelId := vars["travelId"]

	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	listStore, err := h.registry.ListStoreFor(r.Context(), currentUser)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := listStore.Delete(r.Context(), travelId); err != nil {
		if errors.Is(err, ErrTravelNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetDailyPlan(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)
	travelId := vars["travelId"]

	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	store, err := h.registry.StoreFor(r.Context(), currentUser, travelId)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if store.Travel() == nil {
		http.Error(w, "travel not found", http.StatusNotFound)
		return
	}

	plan := store.DailyPlan()
	dtos := make([]DailyPlanEntryDTO, 0, len(plan))
	for _, entry := range plan {
		dtos = append(dtos, DailyPlanEntryDTO(entry))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetItems serves the detailed items of one date (?date=) or a date range
// (?from=&to=), loading through the store's cache so repeated reads do not
// hit the remote layer.
func (h *Handler) GetItems(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)
	travelId := vars["travelId"]

	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	store, err := h.registry.StoreFor(r.Context(), currentUser, travelId)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	date := r.URL.Query().Get("date")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	var dates []string
	switch {
	case date != "":
		if err := store.LoadDetailedItems(r.Context(), date); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		dates = []string{date}
	case from != "" && to != "":
		dates, err = datesBetween(from, to)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.LoadMultipleDays(r.Context(), dates); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	default:
		http.Error(w, "either date or from/to query parameters are required", http.StatusBadRequest)
		return
	}

	dtos := make([]itinerary.ItemDTO, 0)
	for _, d := range dates {
		for _, item := range store.GetDetailedItems(d) {
			dtos = append(dtos, itinerary.ItemToDTO(item))
		}
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func travelToDTO(travel Travel) TravelDTO {
	return TravelDTO{
		Id:              travel.ID,
		Name:            travel.Name,
		StartDate:       travel.StartDate.Format(dateFormat),
		EndDate:         travel.EndDate.Format(dateFormat),
		Budget:          travel.Budget,
		BoundingBox:     travel.BoundingBox,
		Countries:       travel.Countries,
		CreatedAt:       travel.CreatedAt,
		Closed:          travel.Closed,
		Synced:          travel.Synced,
		TotalExpenses:   travel.TotalExpenses,
		ExpensesCount:   travel.ExpensesCount,
		TotalActivities: travel.TotalActivities,
		ActivitiesCount: travel.ActivitiesCount,
	}
}

func dtoToInput(dto TravelInputDTO) (TravelInput, error) {
	startDate, err := time.Parse(dateFormat, dto.StartDate)
	if err != nil {
		return TravelInput{}, errors.New("startDate must be formatted as YYYY-MM-DD")
	}
	endDate, err := time.Parse(dateFormat, dto.EndDate)
	if err != nil {
		return TravelInput{}, errors.New("endDate must be formatted as YYYY-MM-DD")
	}
	if endDate.Before(startDate) {
		return TravelInput{}, errors.New("endDate must not be before startDate")
	}
	return TravelInput{
		Name:        dto.Name,
		StartDate:   startDate,
		EndDate:     endDate,
		Budget:      dto.Budget,
		BoundingBox: dto.BoundingBox,
		Countries:   dto.Countries,
		Closed:      dto.Closed,
		Synced:      dto.Synced,
	}, nil
}

func datesBetween(from string, to string) ([]string, error) {
	start, err := time.Parse(dateFormat, from)
	if err != nil {
		return nil, errors.New("from must be formatted as YYYY-MM-DD")
	}
	end, err := time.Parse(dateFormat, to)
	if err != nil {
		return nil, errors.New("to must be formatted as YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, errors.New("to must not be before from")
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateFormat))
	}
	return dates, nil
}
