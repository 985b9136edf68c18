package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"aichef/share"
	"aichef/utils"
)

const qrSize = 256

// ShareRecipe renders a recipe for sharing: ?format=text (default), pdf or qr.
func (h *Handler) ShareRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	rec, ok := h.session(r).Find(id)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Recipe not found")
		return
	}

	var link string
	if rec.IsShared {
		link = share.CommunityLink(h.PublicURL, rec.ID)
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "text":
		utils.RespondWithBytes(w, "text/plain; charset=utf-8", "", []byte(share.Text(rec)))
	case "pdf":
		data, err := share.PDF(rec, link)
		if err != nil {
			h.log().Error("render recipe card", zap.String("id", id), zap.Error(err))
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to render recipe card")
			return
		}
		utils.RespondWithBytes(w, "application/pdf", fileName(rec.RecipeName)+".pdf", data)
	case "qr":
		if link == "" {
			utils.RespondWithError(w, http.StatusConflict, "Recipe is not shared with the community")
			return
		}
		data, err := share.QR(link, qrSize)
		if err != nil {
			h.log().Error("render qr code", zap.String("id", id), zap.Error(err))
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to render QR code")
			return
		}
		utils.RespondWithBytes(w, "image/png", "", data)
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "format must be text, pdf or qr")
	}
}

func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rec, ok := h.session(r).Find(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Recipe not found")
		return
	}
	img, _ := rec.Image()

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	data, err := h.Thumbs.Thumbnail(ctx, img)
	if errors.Is(err, share.ErrNoImage) {
		utils.RespondWithError(w, http.StatusNotFound, "Recipe has no image")
		return
	}
	if err != nil {
		h.log().Warn("thumbnail", zap.String("id", rec.ID), zap.Error(err))
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to load recipe image")
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	utils.RespondWithBytes(w, "image/jpeg", "", data)
}

// fileName turns a recipe name into a safe download name.
func fileName(name string) string {
	out := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '-'
	}, strings.TrimSpace(name))
	out = strings.Trim(out, "-")
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	if out == "" {
		return "recipe"
	}
	return out
}
