package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/orchidcommerce/orchidbe/internal/domain"
	"github.com/orchidcommerce/orchidbe/internal/service/account"
)

// AccountHandler обслуживает регистрацию, вход и управление аккаунтами.
type AccountHandler struct {
	service *account.Service
}

// NewAccountHandler создаёт обработчик аккаунтов.
func NewAccountHandler(service *account.Service) *AccountHandler {
	return &AccountHandler{service: service}
}

type registerPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register обрабатывает POST /api/accounts/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	view, err := h.service.Register(account.RegisterRequest{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, view)
}

// Login обрабатывает POST /api/accounts/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	result, err := h.service.Login(payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, result)
}

// Get обрабатывает GET /api/accounts/{id}: владелец или ADMIN.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(identityFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, view)
}

// List обрабатывает GET /api/accounts (только ADMIN).
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, views)
}

type accountUpdatePayload struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Update обрабатывает PATCH /api/accounts/{id}: владелец или ADMIN.
// Отсутствующие поля остаются без изменений.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload accountUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	view, err := h.service.Update(identityFrom(r.Context()), r.PathValue("id"), account.UpdateRequest{
		Name:     payload.Name,
		Password: payload.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, view)
}

// Delete обрабатывает DELETE /api/accounts/{id} (только ADMIN).
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(identityFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

type roleView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type rolePayload struct {
	Name string `json:"name"`
}

func toRoleView(role domain.Role) roleView {
	return roleView{ID: role.ID, Name: role.Name}
}

// ListRoles обрабатывает GET /api/roles (только ADMIN).
func (h *AccountHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]roleView, 0, len(roles))
	for _, role := range roles {
		views = append(views, toRoleView(role))
	}
	writeData(w, http.StatusOK, views)
}

// CreateRole обрабатывает POST /api/roles (только ADMIN).
func (h *AccountHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var payload rolePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	role, err := h.service.CreateRole(identityFrom(r.Context()), payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, toRoleView(role))
}

// DeleteRole обрабатывает DELETE /api/roles/{id} (только ADMIN).
func (h *AccountHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRole(identityFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}
