package middleware

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"aichef/auth"
	"aichef/recipes"
	"aichef/utils"
)

// Verifier turns a bearer token into a principal.
type Verifier interface {
	Verify(raw string) (recipes.Principal, error)
}

type Auth struct {
	Verifier Verifier
	// LoginURL is returned with 401 responses so the client can redirect.
	LoginURL func(r *http.Request) string
	Log      *zap.Logger
}

// Authenticate rejects requests without a valid bearer token.
func (a *Auth) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			a.Unauthorized(w, r, "Missing token")
			return
		}
		p, err := a.Verifier.Verify(tokenString)
		if err != nil {
			a.log().Debug("token rejected", zap.Error(err))
			a.Unauthorized(w, r, "Invalid token")
			return
		}
		next(w, r.WithContext(utils.WithPrincipal(r.Context(), p)), ps)
	}
}

// OptionalAuth attaches the principal when a valid token is present and
// proceeds anonymously otherwise.
func (a *Auth) OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if tokenString, ok := auth.BearerToken(r.Header.Get("Authorization")); ok {
			if p, err := a.Verifier.Verify(tokenString); err == nil {
				r = r.WithContext(utils.WithPrincipal(r.Context(), p))
			} else {
				a.log().Debug("ignoring invalid token", zap.Error(err))
			}
		}
		next(w, r, ps)
	}
}

// Unauthorized writes a 401 carrying the login URL.
func (a *Auth) Unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	body := utils.M{"error": msg}
	if a.LoginURL != nil {
		body["login_url"] = a.LoginURL(r)
	}
	utils.RespondWithJSON(w, http.StatusUnauthorized, body)
}

func (a *Auth) log() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}
