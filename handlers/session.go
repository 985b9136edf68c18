package handlers

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"aichef/utils"
)

func (h *Handler) GetPending(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, err := h.session(r).Pending(r.Context())
	if err != nil {
		h.log().Warn("load pending recipe", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load pending recipe")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"pending": p})
}

func (h *Handler) AbandonPending(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.session(r).AbandonPending(r.Context()); err != nil {
		h.log().Warn("abandon pending recipe", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to discard pending recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, h.session(r).Notifications())
}

func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid notification id")
		return
	}
	h.session(r).Dismiss(id)
	w.WriteHeader(http.StatusNoContent)
}

// Login answers with the identity provider URL the SPA should navigate to.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"login_url": h.LoginURL(r)})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"logout_url": h.Links.LogoutURL(h.returnTo(r))})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "ok", "sessions": h.Sessions.Len()})
}
