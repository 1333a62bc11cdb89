package itinerary

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/wayplan/wayplan/pkg/user"
)

type ItemDTO struct {
	Id            string   `json:"id"`
	TravelId      string   `json:"travelId"`
	Type          string   `json:"type"`
	Date          string   `json:"date"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Time          string   `json:"time,omitempty"`
	Location      string   `json:"location,omitempty"`
	IsDone        bool     `json:"isDone"`
	CityId        string   `json:"cityId,omitempty"`
	DayId         string   `json:"dayId,omitempty"`
	Cost          *float64 `json:"cost,omitempty"`
	Category      string   `json:"category,omitempty"`
	Priority      *int     `json:"priority,omitempty"`
	GeneratedByAI bool     `json:"generatedByAi,omitempty"`
}

type StatusDTO struct {
	Type      string `json:"type"`
	Completed bool   `json:"completed"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new itinerary item")
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	var dto ItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.TravelId = vars["travelId"]
	item := dtoToItem(dto)
	if item.Type != TypeActivity && item.Type != TypeExpense {
		http.Error(w, "type must be activity or expense", http.StatusBadRequest)
		return
	}
	if item.Date == "" || item.Title == "" {
		http.Error(w, "date and title are required", http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), item)
	if err != nil {
		if errors.Is(err, user.ErrNoUser) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ItemToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	itemId := vars["itemId"]

	if err := h.service.Delete(r.Context(), itemId); err != nil {
		switch {
		case errors.Is(err, user.ErrNoUser):
			http.Error(w, err.Error(), http.StatusUnauthorized)
		case errors.Is(err, ErrItemNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetItemStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	itemId := vars["itemId"]

	var dto StatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.SetCompleted(r.Context(), itemId, ItemType(dto.Type), dto.Completed); err != nil {
		switch {
		case errors.Is(err, user.ErrNoUser):
			http.Error(w, err.Error(), http.StatusUnauthorized)
		case errors.Is(err, ErrItemNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func dtoToItem(dto ItemDTO) Item {
	return Item{
		SourceId:      dto.Id,
		TravelId:      dto.TravelId,
		Type:          ItemType(dto.Type),
		Date:          dto.Date,
		Title:         dto.Title,
		Description:   dto.Description,
		Time:          dto.Time,
		Location:      dto.Location,
		IsDone:        dto.IsDone,
		CityId:        dto.CityId,
		DayId:         dto.DayId,
		Cost:          dto.Cost,
		Category:      dto.Category,
		Priority:      dto.Priority,
		GeneratedByAI: dto.GeneratedByAI,
	}
}

// ItemToDTO maps an item to its wire shape. The travel endpoints reuse it
// when serving cached items.
func ItemToDTO(item Item) ItemDTO {
	return ItemDTO{
		Id:            item.SourceId,
		TravelId:      item.TravelId,
		Type:          string(item.Type),
		Date:          item.Date,
		Title:         item.Title,
		Description:   item.Description,
		Time:          item.Time,
		Location:      item.Location,
		IsDone:        item.IsDone,
		CityId:        item.CityId,
		DayId:         item.DayId,
		Cost:          item.Cost,
		Category:      item.Category,
		Priority:      item.Priority,
		GeneratedByAI: item.GeneratedByAI,
	}
}
