package handler

import (
	"net/http"

	"github.com/addrbook/addrbook-go/internal/model"
	"github.com/addrbook/addrbook-go/internal/service"
)

// AddressHandler handles the /addresses resource.
type AddressHandler struct {
	service *service.AddressService
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(svc *service.AddressService) *AddressHandler {
	return &AddressHandler{service: svc}
}

// HandleCreate handles POST /addresses requests.
func (h *AddressHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAddressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	addr, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, addr)
}

// HandleList handles GET /addresses requests.
func (h *AddressHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, addrs)
}

// HandleListByUser handles GET /addresses/user/{userID} requests.
func (h *AddressHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	addrs, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, addrs)
}

// HandleGetDefault handles GET /addresses/user/{userID}/default requests.
// A user without a default gets a JSON null.
func (h *AddressHandler) HandleGetDefault(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	addr, err := h.service.GetDefaultForUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, addr)
}

// HandleGet handles GET /addresses/{id} requests.
func (h *AddressHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	addr, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, addr)
}

// HandleUpdate handles PATCH /addresses/{id} requests.
func (h *AddressHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req model.UpdateAddressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	addr, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, addr)
}

// HandleSetDefault handles PATCH /addresses/{id}/set-default requests.
func (h *AddressHandler) HandleSetDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	addr, err := h.service.SetDefault(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, addr)
}

// HandleDelete handles DELETE /addresses/{id} requests.
func (h *AddressHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("Address deleted successfully"))
}
