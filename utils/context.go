package utils

import (
	"context"
	"net/http"

	"aichef/globals"
	"aichef/recipes"
)

func WithPrincipal(ctx context.Context, p recipes.Principal) context.Context {
	return context.WithValue(ctx, globals.PrincipalKey, p)
}

// GetPrincipal returns the caller set by the auth middleware. Anonymous
// requests get the zero Principal.
func GetPrincipal(r *http.Request) recipes.Principal {
	p, _ := r.Context().Value(globals.PrincipalKey).(recipes.Principal)
	return p
}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, globals.SessionIDKey, id)
}

func GetSessionID(r *http.Request) string {
	id, _ := r.Context().Value(globals.SessionIDKey).(string)
	return id
}
