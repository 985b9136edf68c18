package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"aichef/models"
	"aichef/utils"
)

func (h *Handler) SaveRecipe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var recipe models.Recipe
	if err := utils.DecodeJSON(w, r, &recipe); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(recipe.RecipeName) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "recipe_name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	res, err := h.session(r).Save(ctx, utils.GetPrincipal(r), recipe)
	if err != nil {
		h.fail(w, r, err, "Failed to save recipe")
		return
	}
	if res.NeedsLogin {
		utils.RespondWithJSON(w, http.StatusAccepted, utils.M{
			"needs_login": true,
			"login_url":   h.LoginURL(r),
		})
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, res.Saved)
}

func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if err := h.session(r).Delete(ctx, utils.GetPrincipal(r), id); err != nil {
		h.fail(w, r, err, "Failed to delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetFavorite(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		IsFavorite *bool `json:"is_favorite"`
	}
	if err := utils.DecodeStrictJSON(w, r, &body); err != nil || body.IsFavorite == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "is_favorite is required")
		return
	}

	id := ps.ByName("id")
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	s := h.session(r)
	if err := s.SetFavorite(ctx, utils.GetPrincipal(r), id, *body.IsFavorite); err != nil {
		h.fail(w, r, err, "Failed to update favorite status")
		return
	}
	h.respondRecipe(w, s.Find, id, utils.M{"id": id, "is_favorite": *body.IsFavorite})
}

func (h *Handler) SetShared(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		IsShared *bool `json:"is_shared"`
	}
	if err := utils.DecodeStrictJSON(w, r, &body); err != nil || body.IsShared == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "is_shared is required")
		return
	}

	id := ps.ByName("id")
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	s := h.session(r)
	if err := s.SetShared(ctx, utils.GetPrincipal(r), id, *body.IsShared); err != nil {
		h.fail(w, r, err, "Failed to update shared status")
		return
	}
	h.respondRecipe(w, s.Find, id, utils.M{"id": id, "is_shared": *body.IsShared})
}

// respondRecipe answers with the local copy of the recipe, or with fallback
// when the session has not loaded it.
func (h *Handler) respondRecipe(w http.ResponseWriter, find func(string) (models.Recipe, bool), id string, fallback utils.M) {
	if rec, ok := find(id); ok {
		utils.RespondWithJSON(w, http.StatusOK, rec)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, fallback)
}
