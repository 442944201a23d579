package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bdo-market-watch/internal/market"
	"bdo-market-watch/internal/repository"
	"bdo-market-watch/internal/service"
	"bdo-market-watch/pkg/apierror"
	"bdo-market-watch/pkg/response"

	"github.com/go-chi/chi/v5"
)

// ItemHandler handles tracked-item HTTP requests.
type ItemHandler struct {
	itemService *service.ItemService
}

// NewItemHandler creates a new item handler.
func NewItemHandler(itemService *service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// ListItems handles GET /api/v1/items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.itemService.List(r.Context())
	if err != nil {
		response.Error(w, apierror.InternalError("failed to list tracked items"))
		return
	}

	response.OK(w, map[string]interface{}{
		"count": len(items),
		"items": items,
	})
}

// trackRequest is the POST /items request body.
type trackRequest struct {
	ItemID int `json:"item_id"`
	SID    int `json:"sid"`
}

// TrackItem handles POST /api/v1/items
func (h *ItemHandler) TrackItem(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	defer r.Body.Close()

	if req.ItemID <= 0 {
		response.Error(w, apierror.BadRequest("item_id must be a positive integer"))
		return
	}
	if req.SID < 0 {
		response.Error(w, apierror.BadRequest("sid must not be negative"))
		return
	}

	item, err := h.itemService.Track(r.Context(), req.ItemID, req.SID)
	if err != nil {
		response.Error(w, mapItemError(err))
		return
	}

	response.Created(w, item)
}

// GetItem handles GET /api/v1/items/{item_id}/{sid}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, sid, ok := pairParams(w, r)
	if !ok {
		return
	}

	item, err := h.itemService.Get(r.Context(), itemID, sid)
	if err != nil {
		response.Error(w, mapItemError(err))
		return
	}

	response.OK(w, item)
}

// UntrackItem handles DELETE /api/v1/items/{item_id} - removes all variants.
func (h *ItemHandler) UntrackItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.Atoi(chi.URLParam(r, "item_id"))
	if err != nil {
		response.Error(w, apierror.BadRequest("item_id must be an integer"))
		return
	}

	h.untrack(w, r, itemID, nil)
}

// UntrackVariant handles DELETE /api/v1/items/{item_id}/{sid}
func (h *ItemHandler) UntrackVariant(w http.ResponseWriter, r *http.Request) {
	itemID, sid, ok := pairParams(w, r)
	if !ok {
		return
	}

	h.untrack(w, r, itemID, &sid)
}

func (h *ItemHandler) untrack(w http.ResponseWriter, r *http.Request, itemID int, sid *int) {
	removed, err := h.itemService.Untrack(r.Context(), itemID, sid)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to remove tracked item"))
		return
	}
	if !removed {
		response.Error(w, apierror.ItemNotFound("item is not being tracked"))
		return
	}

	response.OK(w, map[string]interface{}{
		"removed": true,
		"item_id": itemID,
	})
}

func pairParams(w http.ResponseWriter, r *http.Request) (itemID, sid int, ok bool) {
	itemID, err := strconv.Atoi(chi.URLParam(r, "item_id"))
	if err != nil {
		response.Error(w, apierror.BadRequest("item_id must be an integer"))
		return 0, 0, false
	}
	sid, err = strconv.Atoi(chi.URLParam(r, "sid"))
	if err != nil {
		response.Error(w, apierror.BadRequest("sid must be an integer"))
		return 0, 0, false
	}
	return itemID, sid, true
}

// mapItemError translates service/repository errors to API errors.
func mapItemError(err error) error {
	switch {
	case errors.Is(err, repository.ErrAlreadyTracked):
		return apierror.AlreadyTracked("")
	case errors.Is(err, repository.ErrNotTracked):
		return apierror.ItemNotFound("item is not being tracked")
	case errors.Is(err, market.ErrItemNotFound):
		return apierror.ItemNotFound("the marketplace does not know this item")
	default:
		return apierror.BadGateway("market fetch failed")
	}
}
