package verifyengine

// ReasonCode identifies why a verify request was denied. The empty
// string denotes an ALLOW decision with no reason.
type ReasonCode string

const (
	ReasonNone ReasonCode = ""

	ReasonAgentNotFound       ReasonCode = "AGENT_NOT_FOUND"
	ReasonAgentRevoked        ReasonCode = "AGENT_REVOKED"
	ReasonCapabilityExpired   ReasonCode = "CAPABILITY_EXPIRED"
	ReasonCapabilityInvalid   ReasonCode = "CAPABILITY_INVALID"
	ReasonCapabilityRevoked   ReasonCode = "CAPABILITY_REVOKED"
	ReasonScopeMismatch       ReasonCode = "CAPABILITY_SCOPE_MISMATCH"
	ReasonSignatureInvalid    ReasonCode = "SIGNATURE_INVALID"
	ReasonWorkspaceMismatch   ReasonCode = "WORKSPACE_MISMATCH"
	ReasonPolicyNotBound      ReasonCode = "POLICY_NOT_BOUND"
	ReasonSpendLimitExceeded  ReasonCode = "SPEND_LIMIT_EXCEEDED"
	ReasonRateLimitExceeded   ReasonCode = "RATE_LIMIT_EXCEEDED"
)

// Decision is the terminal outcome of a verify request.
type Decision string

const (
	DecisionAllow Decision = "ALLOW"
	DecisionDeny  Decision = "DENY"
)
