package globals

// Context keys
type ContextKey string

const (
	PrincipalKey ContextKey = "principal"
	SessionIDKey ContextKey = "sessionId"
)

const SessionCookie = "aichef_session"
