// Package model defines data structures for the answering engine.
package model

import (
	"time"
)

// Tone controls the phrasing of generated answers.
type Tone string

const (
	ToneFormal     Tone = "formal"
	ToneAccessible Tone = "accessible"
)

// ResponseLength controls how long generated answers are.
type ResponseLength string

const (
	LengthConcise  ResponseLength = "concise"
	LengthDetailed ResponseLength = "detailed"
)

// Persona is the configuration applied to every generated answer.
type Persona struct {
	AgentName      string         `json:"agent_name"`
	Tone           Tone           `json:"tone"`
	ResponseLength ResponseLength `json:"response_length"`
}

// DefaultPersona is applied to newly registered tenants.
func DefaultPersona() Persona {
	return Persona{
		AgentName:      "Assistant",
		Tone:           ToneAccessible,
		ResponseLength: LengthConcise,
	}
}

// Tenant is a candidate account. It owns documents, persona configuration
// and all usage counters.
type Tenant struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Election       string    `json:"election,omitempty"`
	Persona        Persona   `json:"persona"`
	CreatedAt      time.Time `json:"created_at"`

	// Documents holds the current document per category. At most one ready
	// document per category at any time.
	Documents map[Category]*Document `json:"documents,omitempty"`
}

// Clone returns a deep copy of the tenant, including its document map.
// The tenant service hands out clones so callers can read them without
// holding the service lock.
func (t *Tenant) Clone() *Tenant {
	cp := *t
	cp.Documents = make(map[Category]*Document, len(t.Documents))
	for c, d := range t.Documents {
		if d != nil {
			dc := *d
			cp.Documents[c] = &dc
		}
	}
	return &cp
}

// HasReadyDocument reports whether at least one category has finished
// processing, which is what makes the public chat available.
func (t *Tenant) HasReadyDocument() bool {
	for _, d := range t.Documents {
		if d != nil && d.Status == StatusReady {
			return true
		}
	}
	return false
}

// RegisterRequest is the payload for candidate registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Election string `json:"election,omitempty"`
}

// LoginRequest is the payload for candidate login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UpdatePersonaRequest updates part of the tenant persona. Nil fields are
// left untouched.
type UpdatePersonaRequest struct {
	AgentName      *string         `json:"agent_name,omitempty"`
	Tone           *Tone           `json:"tone,omitempty"`
	ResponseLength *ResponseLength `json:"response_length,omitempty"`
}

// ChatInfo is the public metadata shown in the chat widget header.
type ChatInfo struct {
	Name      string `json:"name"`
	AgentName string `json:"agent_name"`
	Election  string `json:"election,omitempty"`
}
