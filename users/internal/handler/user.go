package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/compass-ms/usernotify/shared/api"
	"github.com/compass-ms/usernotify/shared/middleware"
	"github.com/compass-ms/usernotify/shared/utils"
)

// Register resolves the zip code, creates the account and returns 201 with a
// Location header pointing at the new resource.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	address, err := h.cep.Lookup(req.Cep)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, err := h.users.Register(req.Username, req.Email, req.Password, address)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%d", r.URL.Path, user.Id))
	utils.WriteJSON(w, http.StatusCreated, api.FromUser(user))
}

// Login exchanges credentials for a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	token, err := h.users.Login(req.Email, req.Password)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.TokenResponse{Token: token})
}

// UpdatePassword changes the authenticated owner's password.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req api.UpdatePasswordRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	actor := middleware.UserFromContext(r)
	if err := h.users.UpdatePassword(actor, req.Username, req.OldPassword, req.NewPassword); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Users()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp := make([]api.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, api.FromUser(u))
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.UserByEmail(chi.URLParam(r, "email"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.FromUser(user))
}
