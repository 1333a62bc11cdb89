package itinerary

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wayplan/wayplan/internal/event_bus"
	"github.com/wayplan/wayplan/internal/test_utils"
	"github.com/wayplan/wayplan/pkg/user"
)

func withTestUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := user.WithUser(r.Context(), test_utils.TestUser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func setupItemHandlerTest(t *testing.T) (*StubRepo, *mux.Router) {
	t.Helper()
	repo := NewStubRepo()
	handler := NewHandler(NewService(repo, event_bus.NewEventBus()))

	router := mux.NewRouter()
	router.HandleFunc("/api/travel/{travelId}/items", handler.CreateItem).Methods(http.MethodPost)
	router.HandleFunc("/api/travel/{travelId}/items/{itemId}", handler.DeleteItem).Methods(http.MethodDelete)
	router.HandleFunc("/api/travel/{travelId}/items/{itemId}/status", handler.SetItemStatus).Methods(http.MethodPatch)
	return repo, router
}

func doItemRequest(router *mux.Router, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	withTestUser(router).ServeHTTP(w, req)
	return w
}

func TestHandler_CreateItem(t *testing.T) {
	t.Run("creates an item under the travel from the path", func(t *testing.T) {
		_, router := setupItemHandlerTest(t)
		body, err := json.Marshal(ItemDTO{Type: "activity", Date: "2024-05-02", Title: "Museum"})
		require.NoError(t, err)

		w := doItemRequest(router, httptest.NewRequest(http.MethodPost, "/api/travel/t-1/items", bytes.NewBuffer(body)))

		require.Equal(t, http.StatusCreated, w.Code)
		var created ItemDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.Id)
		assert.Equal(t, "t-1", created.TravelId)
	})

	t.Run("rejects an unknown type", func(t *testing.T) {
		_, router := setupItemHandlerTest(t)
		body, err := json.Marshal(ItemDTO{Type: "note", Date: "2024-05-02", Title: "Museum"})
		require.NoError(t, err)

		w := doItemRequest(router, httptest.NewRequest(http.MethodPost, "/api/travel/t-1/items", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a missing date or title", func(t *testing.T) {
		_, router := setupItemHandlerTest(t)
		body, err := json.Marshal(ItemDTO{Type: "expense", Title: "Dinner"})
		require.NoError(t, err)

		w := doItemRequest(router, httptest.NewRequest(http.MethodPost, "/api/travel/t-1/items", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_DeleteItem(t *testing.T) {
	repo, router := setupItemHandlerTest(t)
	repo.Seed(serviceItem("i-1", "2024-05-02", TypeActivity))

	w := doItemRequest(router, httptest.NewRequest(http.MethodDelete, "/api/travel/t-1/items/i-1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doItemRequest(router, httptest.NewRequest(http.MethodDelete, "/api/travel/t-1/items/i-1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_SetItemStatus(t *testing.T) {
	t.Run("toggles completion", func(t *testing.T) {
		repo, router := setupItemHandlerTest(t)
		repo.Seed(serviceItem("i-1", "2024-05-02", TypeActivity))
		body, err := json.Marshal(StatusDTO{Type: "activity", Completed: true})
		require.NoError(t, err)

		w := doItemRequest(router, httptest.NewRequest(http.MethodPatch, "/api/travel/t-1/items/i-1/status", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("returns 404 for an unknown item", func(t *testing.T) {
		_, router := setupItemHandlerTest(t)
		body, err := json.Marshal(StatusDTO{Type: "activity", Completed: true})
		require.NoError(t, err)

		w := doItemRequest(router, httptest.NewRequest(http.MethodPatch, "/api/travel/t-1/items/missing/status", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
