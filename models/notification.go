package models

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

// Notification is a transient user-facing message.
type Notification struct {
	ID        int64    `json:"id"`
	Message   string   `json:"message"`
	Severity  Severity `json:"type"`
	IsExiting bool     `json:"isExiting"`
}

// PendingRecipe is a recipe waiting for the user to finish signing in.
type PendingRecipe struct {
	Recipe   Recipe `json:"recipe"`
	Redirect bool   `json:"redirect"`
}
