package app

import (
	"github.com/gorilla/mux"
	"github.com/wayplan/wayplan/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Travels
	r.HandleFunc("/api/travel", deps.TravelHandler.ListTravels).Methods("GET")
	r.HandleFunc("/api/travel", deps.TravelHandler.CreateTravel).Methods("POST")
	r.HandleFunc("/api/travel/{travelId}", deps.TravelHandler.UpdateTravel).Methods("PUT")
	r.HandleFunc("/api/travel/{travelId}", deps.TravelHandler.DeleteTravel).Methods("DELETE")
	r.HandleFunc("/api/travel/{travelId}/daily-plan", deps.TravelHandler.GetDailyPlan).Methods("GET")

	// Itinerary items
	r.HandleFunc("/api/travel/{travelId}/items", deps.TravelHandler.GetItems).Methods("GET")
	r.HandleFunc("/api/travel/{travelId}/items", deps.ItemHandler.CreateItem).Methods("POST")
	r.HandleFunc("/api/travel/{travelId}/items/{itemId}", deps.ItemHandler.DeleteItem).Methods("DELETE")
	r.HandleFunc("/api/travel/{travelId}/items/{itemId}/status", deps.ItemHandler.SetItemStatus).Methods("PATCH")

	// User
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
}
