// Package store holds the Postgres-backed repositories for verifyd's
// seven entities: Workspace, Agent, Policy, AgentPolicyBinding,
// Capability, Revocation, and AuditEvent.
package store

import "time"

// Workspace is the tenancy boundary every other entity is scoped to.
type Workspace struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

// AgentStatus is the lifecycle state of an Agent.
type AgentStatus string

const (
	AgentActive  AgentStatus = "active"
	AgentRevoked AgentStatus = "revoked"
)

// Agent is an autonomous process holding an Ed25519 key pair,
// registered within a workspace.
type Agent struct {
	ID          string      `db:"id"`
	WorkspaceID string      `db:"workspace_id"`
	Name        string      `db:"name"`
	PublicKey   string      `db:"public_key"` // base64-encoded 32-byte Ed25519 key
	Fingerprint string      `db:"fingerprint"`
	Status      AgentStatus `db:"status"`
	Metadata    []byte      `db:"metadata"` // raw JSON
	CreatedAt   time.Time   `db:"created_at"`
}

// Policy is a versioned, declarative document bound to agents within a
// workspace.
type Policy struct {
	ID            string    `db:"id"`
	WorkspaceID   string    `db:"workspace_id"`
	Name          string    `db:"name"`
	Version       int       `db:"version"`
	SchemaVersion int       `db:"schema_version"`
	PolicyJSON    []byte    `db:"policy_json"`
	IsActive      bool      `db:"is_active"`
	CreatedAt     time.Time `db:"created_at"`
}

// BindingStatus is the lifecycle state of an AgentPolicyBinding.
type BindingStatus string

const (
	BindingActive  BindingStatus = "active"
	BindingRevoked BindingStatus = "revoked"
)

// AgentPolicyBinding associates an agent with the policy it is
// currently governed by. At most one binding per agent has
// status=active.
type AgentPolicyBinding struct {
	ID          string        `db:"id"`
	WorkspaceID string        `db:"workspace_id"`
	AgentID     string        `db:"agent_id"`
	PolicyID    string        `db:"policy_id"`
	Status      BindingStatus `db:"status"`
	BoundAt     time.Time     `db:"bound_at"`
}

// CapabilityStatus is the lifecycle state of a Capability.
type CapabilityStatus string

const (
	CapabilityActive  CapabilityStatus = "active"
	CapabilityRevoked CapabilityStatus = "revoked"
)

// Capability is a time-bounded, scope-limited grant identified by jti.
type Capability struct {
	ID          string           `db:"id"`
	WorkspaceID string           `db:"workspace_id"`
	AgentID     string           `db:"agent_id"`
	JTI         string           `db:"jti"`
	Scopes      []byte           `db:"scopes"` // raw JSON: {"items": [...]}
	Limits      []byte           `db:"limits"` // raw JSON
	Status      CapabilityStatus `db:"status"`
	IssuedAt    time.Time        `db:"issued_at"`
	ExpiresAt   time.Time        `db:"expires_at"`
}

// Revocation is a durable tombstone complementing the ephemeral
// blacklist.
type Revocation struct {
	ID          string    `db:"id"`
	WorkspaceID string    `db:"workspace_id"`
	JTI         string    `db:"jti"`
	RevokedAt   time.Time `db:"revoked_at"`
	Reason      string    `db:"reason"`
}

// AuditEvent is one entry in a workspace's append-only, hash-chained
// audit log.
type AuditEvent struct {
	ID          string    `db:"id"`
	WorkspaceID string    `db:"workspace_id"`
	Seq         int64     `db:"seq"`
	EventType   string    `db:"event_type"`
	SubjectType string    `db:"subject_type"`
	SubjectID   string    `db:"subject_id"`
	EventData   []byte    `db:"event_data"` // raw JSON
	PrevHash    string    `db:"prev_hash"`
	Hash        string    `db:"hash"`
	CreatedAt   time.Time `db:"created_at"`
}
