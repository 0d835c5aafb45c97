package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims for a session-scoped token
type SessionClaims struct {
	SessionID   string `json:"sessionId"`
	TokenOrSlug string `json:"tokenOrSlug"`
	jwt.RegisteredClaims
}

// StartSessionRequest is the request body for starting a survey session
type StartSessionRequest struct {
	TokenOrSlug string `json:"tokenOrSlug"`
}

// StartSessionResponse is returned when a session starts
type StartSessionResponse struct {
	SessionID string       `json:"sessionId"`
	Token     string       `json:"token"`
	Session   *SessionView `json:"session"`
}
