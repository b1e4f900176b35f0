package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gab-cat/cold-start-sub000/internal/api/respond"
	"github.com/gab-cat/cold-start-sub000/internal/api/validate"
	"github.com/gab-cat/cold-start-sub000/internal/model"
)

type userHandler struct {
	deps Deps
}

func (h *userHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in model.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.CreateProfile(in); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.deps.Store.Profiles().Create(r.Context(), in)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (h *userHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	p, err := h.deps.Store.Profiles().Get(r.Context(), userID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}
