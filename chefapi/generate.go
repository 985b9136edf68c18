package chefapi

import (
	"context"
	"encoding/json"
	"net/http"
)

type GenerateRequest struct {
	Ingredients []string        `json:"ingredients"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
}

type AssistantRequest struct {
	Message     string          `json:"message"`
	SessionID   string          `json:"sessionId"`
	Recipe      json.RawMessage `json:"recipe,omitempty"`
	CurrentStep int             `json:"currentStep"`
}

type AssistantReply struct {
	Response string `json:"response"`
}

// Generate asks the API for a recipe. The result is passed through as-is.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (json.RawMessage, error) {
	data, err := c.call(ctx, http.MethodPost, "/generate", "", req)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (c *Client) Assistant(ctx context.Context, req AssistantRequest) (AssistantReply, error) {
	data, err := c.call(ctx, http.MethodPost, "/assistant", "", req)
	if err != nil {
		return AssistantReply{}, err
	}
	return decode[AssistantReply](data, "assistant reply")
}
