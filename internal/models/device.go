package models

import "time"

// Device is a client registered with this installation
type Device struct {
	ID        string    `json:"id"`
	Token     string    `json:"token,omitempty"`
	PushToken *string   `json:"pushToken,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
