// Package handlers exposes the cookbook session over HTTP. Every handler
// resolves the caller's session from the request context, so routes must be
// wrapped in middleware.Session and middleware.OptionalAuth.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"aichef/chefapi"
	"aichef/recipes"
	"aichef/session"
	"aichef/utils"
)

const storeTimeout = 10 * time.Second

// Generator is the recipe generation, image and cooking assistant API.
type Generator interface {
	Generate(ctx context.Context, req chefapi.GenerateRequest) (json.RawMessage, error)
	Assistant(ctx context.Context, req chefapi.AssistantRequest) (chefapi.AssistantReply, error)
	Suggestions(ctx context.Context, req chefapi.SuggestionsRequest) (chefapi.Suggestions, error)
	FullRecipe(ctx context.Context, recipeName string) (chefapi.Generated, error)
	Direct(ctx context.Context, query string) (chefapi.Generated, error)
	DirectWithImage(ctx context.Context, query string, img chefapi.Upload) (chefapi.Generated, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

type Thumbnails interface {
	Thumbnail(ctx context.Context, imageURL string) ([]byte, error)
}

// Links builds the identity provider redirects.
type Links interface {
	LoginURL(returnTo string) string
	LogoutURL(returnTo string) string
}

type Handler struct {
	Sessions  *session.Registry
	Generator Generator
	Thumbs    Thumbnails
	Links     Links
	// PublicURL is where the SPA is served; used for return and share links.
	PublicURL string
	Log       *zap.Logger
}

func (h *Handler) session(r *http.Request) *session.Session {
	return h.Sessions.Get(utils.GetSessionID(r))
}

// LoginURL sends the user back to the SPA page they came from when it is
// ours, otherwise to the SPA root.
func (h *Handler) LoginURL(r *http.Request) string {
	return h.Links.LoginURL(h.returnTo(r))
}

func (h *Handler) returnTo(r *http.Request) string {
	base := strings.TrimRight(h.PublicURL, "/")
	if rt := r.URL.Query().Get("returnTo"); rt != "" && (rt == base || strings.HasPrefix(rt, base+"/")) {
		return rt
	}
	return base + "/"
}

func (h *Handler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// fail maps a store or API error onto a response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var appErr *recipes.AppError
	var transportErr *recipes.TransportError
	switch {
	case errors.Is(err, recipes.ErrUnauthorized):
		utils.RespondWithJSON(w, http.StatusUnauthorized, utils.M{
			"error":     "Unauthorized",
			"login_url": h.LoginURL(r),
		})
	case errors.Is(err, recipes.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Recipe not found")
	case errors.As(err, &appErr):
		status := appErr.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		utils.RespondWithError(w, status, recipes.Reason(err, fallback))
	case errors.As(err, &transportErr):
		utils.RespondWithError(w, http.StatusBadGateway, fallback)
	case errors.Is(err, context.DeadlineExceeded):
		utils.RespondWithError(w, http.StatusGatewayTimeout, fallback)
	default:
		h.log().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
