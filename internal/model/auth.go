package model

import "github.com/google/uuid"

// CurrentUser is the authenticated identity attached to every request.
// The registry only ever consumes the id and the role.
type CurrentUser struct {
	ID   uuid.UUID `json:"id"`
	Role string    `json:"role"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}
