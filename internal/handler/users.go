package handler

import (
	"net/http"

	"github.com/addrbook/addrbook-go/internal/model"
	"github.com/addrbook/addrbook-go/internal/service"
)

// UserHandler handles the /users resource.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// HandleCreate handles POST /users requests.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleList handles GET /users requests.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// HandleGet handles GET /users/{id} requests.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate handles PATCH /users/{id} requests.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleDelete handles DELETE /users/{id} requests.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse("User deleted successfully"))
}
