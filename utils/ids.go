package utils

import "github.com/google/uuid"

func GetUUID() string {
	return uuid.New().String()
}

// ValidSessionID accepts only ids this service could have issued.
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}
