package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"aichef/chefapi"
	"aichef/models"
	"aichef/utils"
)

const (
	MsgGenerateFailed    = "Failed to generate recipe. Please try again."
	MsgAssistantFailed   = "Sorry, I had trouble processing that. Please try again."
	MsgSuggestionsFailed = "Failed to get recipe suggestions. Please try again."
	MsgFullRecipeFailed  = "Failed to load the full recipe details. Please try again."
	MsgPhotoRecipeFailed = "Failed to generate recipe. Please check the image or query and try again."
	MsgImageFailed       = "Failed to create the recipe image. Please try again."
	MsgFullImageFailed   = "Recipe details loaded, but image creation failed."
	MsgPhotoImageFailed  = "Recipe generated, but image creation failed."
)

const (
	imageTimeout   = 15 * time.Second
	maxUploadBytes = 10 << 20
)

// failNotify posts notice to the caller's session and answers with err.
func (h *Handler) failNotify(w http.ResponseWriter, r *http.Request, err error, fallback, notice string) {
	h.session(r).Notify(notice, models.SeverityError)
	h.fail(w, r, err, fallback)
}

// illustrate attaches a generated picture to rec. A failure leaves rec as is.
func (h *Handler) illustrate(ctx context.Context, rec *chefapi.GeneratedRecipe) error {
	ctx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()
	url, err := h.Generator.GenerateImage(ctx, chefapi.ImagePrompt(*rec))
	if err != nil {
		h.log().Warn("recipe image", zap.String("recipe", rec.RecipeName), zap.Error(err))
		return err
	}
	rec.ImageURL = url
	return nil
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req chefapi.GenerateRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Ingredients) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "At least one ingredient is required")
		return
	}

	out, err := h.Generator.Generate(r.Context(), req)
	if err != nil {
		h.failNotify(w, r, err, "Failed to generate recipe", MsgGenerateFailed)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

func (h *Handler) Assistant(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req chefapi.AssistantRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = utils.GetSessionID(r)
	}

	reply, err := h.Generator.Assistant(r.Context(), req)
	if err != nil {
		h.failNotify(w, r, err, "The assistant is unavailable right now", MsgAssistantFailed)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, reply)
}

func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req chefapi.SuggestionsRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Ingredients) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Please enter some ingredients first.")
		return
	}

	out, err := h.Generator.Suggestions(r.Context(), req)
	if err != nil {
		h.failNotify(w, r, err, "Failed to get recipe suggestions", MsgSuggestionsFailed)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// FullRecipe expands a chosen suggestion and illustrates it.
func (h *Handler) FullRecipe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		SelectedRecipe string `json:"selected_recipe"`
	}
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.SelectedRecipe) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Please select a recipe suggestion first.")
		return
	}

	out, err := h.Generator.FullRecipe(r.Context(), req.SelectedRecipe)
	if err != nil {
		h.failNotify(w, r, err, "Failed to load the full recipe", MsgFullRecipeFailed)
		return
	}
	if err := h.illustrate(r.Context(), &out.Recipe); err != nil {
		h.session(r).Notify(MsgFullImageFailed, models.SeverityInfo)
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// DirectRecipe generates from a free-text query. A missing picture is not
// reported.
func (h *Handler) DirectRecipe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Query string `json:"query"`
	}
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Please enter a query to generate a recipe.")
		return
	}

	out, err := h.Generator.Direct(r.Context(), req.Query)
	if err != nil {
		h.failNotify(w, r, err, "Failed to generate recipe", MsgGenerateFailed)
		return
	}
	_ = h.illustrate(r.Context(), &out.Recipe)
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// DirectWithImage takes a multipart form with the ingredients photo in
// "file" and the request in "user_query".
func (h *Handler) DirectWithImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		utils.RespondWithError(w, http.StatusBadRequest, "Please upload an image of your ingredients.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Please upload an image of your ingredients.")
		return
	}
	defer file.Close()
	query := r.FormValue("user_query")
	if strings.TrimSpace(query) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Please enter a query about what you want to cook.")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to read the uploaded image")
		return
	}

	out, err := h.Generator.DirectWithImage(r.Context(), query, chefapi.Upload{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.failNotify(w, r, err, "Failed to generate recipe", MsgPhotoRecipeFailed)
		return
	}
	if err := h.illustrate(r.Context(), &out.Recipe); err != nil {
		h.session(r).Notify(MsgPhotoImageFailed, models.SeverityInfo)
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// RecipeImage renders a picture for a recipe the SPA already holds.
func (h *Handler) RecipeImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var rec chefapi.GeneratedRecipe
	if err := utils.DecodeJSON(w, r, &rec); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(rec.RecipeName) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Recipe name is required")
		return
	}

	if err := h.illustrate(r.Context(), &rec); err != nil {
		h.failNotify(w, r, err, "Failed to create the recipe image", MsgImageFailed)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"imageUrl": rec.ImageURL})
}
