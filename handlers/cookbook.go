package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"aichef/models"
	"aichef/utils"
)

type cookbookResponse struct {
	Authenticated bool                  `json:"authenticated"`
	View          models.ViewState      `json:"view"`
	Recipes       []models.Recipe       `json:"recipes"`
	Pending       *models.PendingRecipe `json:"pending,omitempty"`
}

func (h *Handler) cookbook(r *http.Request) cookbookResponse {
	s := h.session(r)
	resp := cookbookResponse{
		Authenticated: utils.GetPrincipal(r).Authenticated(),
		View:          s.View(),
		Recipes:       s.Recipes(),
	}
	if p, err := s.Pending(r.Context()); err == nil {
		resp.Pending = p
	}
	return resp
}

// GetCookbook returns the view state and the recipes it selects. With
// ?refresh=true both lists are reloaded first.
func (h *Handler) GetCookbook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		if !h.refresh(w, r) {
			return
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, h.cookbook(r))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !h.refresh(w, r) {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, h.cookbook(r))
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) bool {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	if err := h.session(r).Refresh(ctx, utils.GetPrincipal(r)); err != nil {
		h.fail(w, r, err, "Failed to load recipes")
		return false
	}
	return true
}

// viewPatch holds the fields a client wants to change; absent fields keep
// their current value.
type viewPatch struct {
	Scope           *models.Scope     `json:"scope"`
	SearchTerm      *string           `json:"searchTerm"`
	IngredientCount *models.Bucket    `json:"ingredientCountBucket"`
	StepCount       *models.Bucket    `json:"stepCountBucket"`
	SortOrder       *models.SortOrder `json:"sortOrder"`
}

func (p viewPatch) apply(v *models.ViewState) {
	if p.Scope != nil {
		v.Scope = *p.Scope
	}
	if p.SearchTerm != nil {
		v.SearchTerm = *p.SearchTerm
	}
	if p.IngredientCount != nil {
		v.IngredientCount = *p.IngredientCount
	}
	if p.StepCount != nil {
		v.StepCount = *p.StepCount
	}
	if p.SortOrder != nil {
		v.SortOrder = *p.SortOrder
	}
}

func (h *Handler) UpdateView(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var patch viewPatch
	if err := utils.DecodeStrictJSON(w, r, &patch); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.session(r).UpdateView(patch.apply); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, h.cookbook(r))
}

func (h *Handler) ClearFilters(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.session(r).ClearFilters()
	utils.RespondWithJSON(w, http.StatusOK, h.cookbook(r))
}
