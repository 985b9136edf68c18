package middleware

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"aichef/globals"
	"aichef/session"
	"aichef/utils"
)

// SessionIDFromCookie returns the session cookie value when it is one this
// service issued, otherwise "".
func SessionIDFromCookie(r *http.Request) string {
	c, err := r.Cookie(globals.SessionCookie)
	if err != nil || !utils.ValidSessionID(c.Value) {
		return ""
	}
	return c.Value
}

// Session makes sure the browser has a session cookie and puts the id in the
// request context.
func Session(secure bool) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			id := SessionIDFromCookie(r)
			if id == "" {
				id = utils.GetUUID()
				http.SetCookie(w, &http.Cookie{
					Name:     globals.SessionCookie,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next(w, r.WithContext(utils.WithSessionID(r.Context(), id)), ps)
		}
	}
}

// ObserveAuth reports the request's authentication state to the session so
// sign-in and sign-out are noticed and pending saves are flushed. It must run
// inside Session and OptionalAuth.
func ObserveAuth(reg *session.Registry) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			if id := utils.GetSessionID(r); id != "" {
				reg.Get(id).ObserveAuth(r.Context(), utils.GetPrincipal(r))
			}
			next(w, r, ps)
		}
	}
}
