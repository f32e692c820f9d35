package captoken

import "github.com/golang-jwt/jwt/v5"

// Limits bounds what a capability may authorize: a maximum payload
// spend (policy-unit agnostic; the policy evaluator interprets it
// against the action's payload). The action types a capability is
// scoped to are carried in Claims.Scopes.
type Limits struct {
	MaxSpend float64 `json:"max_spend,omitempty"`
}

// Claims is the claim set carried by a capability token. Decode does
// not reject fields outside this set; they are ignored.
type Claims struct {
	jwt.RegisteredClaims
	WorkspaceID   string   `json:"workspace_id"`
	Scopes        []string `json:"scopes"`
	Limits        Limits   `json:"limits"`
	PolicyID      string   `json:"policy_id"`
	PolicyVersion int      `json:"policy_version"`
}

// Subject returns the agent_id the capability was issued for (the
// standard JWT "sub" claim).
func (c Claims) Subject() string {
	return c.RegisteredClaims.Subject
}

// JTI returns the capability's unique token identifier.
func (c Claims) JTI() string {
	return c.RegisteredClaims.ID
}
