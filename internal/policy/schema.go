// Package policy holds the closed policy document schema and the pure
// predicate functions the verify pipeline consults once a capability's
// scopes, spend limit, and rate limit need checking against the agent's
// bound policy.
package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SpendPolicy bounds the payload amount a single action may carry.
type SpendPolicy struct {
	Currency  *string  `json:"currency,omitempty"`
	MaxPerTx  *float64 `json:"max_per_tx,omitempty"`
}

// RateLimits bounds how often an agent may act under this policy.
type RateLimits struct {
	MaxActionsPerMin *int64 `json:"max_actions_per_min,omitempty"`
}

// Document is the closed-schema policy document bound to an agent via
// an AgentPolicyBinding.
type Document struct {
	AllowedTools   []string    `json:"allowed_tools"`
	ResourceScopes []string    `json:"resource_scopes,omitempty"`
	Spend          *SpendPolicy `json:"spend,omitempty"`
	RateLimits     *RateLimits  `json:"rate_limits,omitempty"`
}

// ParseDocument decodes a policy document, rejecting any field outside
// the closed schema and requiring allowed_tools to be present.
func ParseDocument(raw []byte) (Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("policy: invalid document: %w", err)
	}
	if doc.AllowedTools == nil {
		return Document{}, fmt.Errorf("policy: allowed_tools is required")
	}
	return doc, nil
}
