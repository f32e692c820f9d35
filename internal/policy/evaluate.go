package policy

// ScopesAllowAction implements the reference scopes_allow_action
// predicate: ALLOW iff action_type is a literal member of scopes, or
// tool is non-nil and is itself a literal member of scopes. It is used
// twice in the verify pipeline with two different scope lists — once
// against a capability's granted scopes (before the policy is loaded),
// once against a policy's allowed_tools (after) — both failures
// collapsing to CAPABILITY_SCOPE_MISMATCH, the only scope-related
// reason code in the closed set.
func ScopesAllowAction(scopes []string, actionType string, tool *string) bool {
	for _, s := range scopes {
		if s == actionType {
			return true
		}
	}
	if tool != nil {
		for _, s := range scopes {
			if s == *tool {
				return true
			}
		}
	}
	return false
}

// PolicyAllowsPayloadSpend implements policy_allows_payload_spend: an
// unset spend.max_per_tx passes unconditionally; otherwise
// payload.amount must be numeric and within the limit, and if
// spend.currency is set, payload.currency must match it exactly.
// Any missing or mismatched field denies.
func PolicyAllowsPayloadSpend(doc Document, payload map[string]interface{}) bool {
	if doc.Spend == nil || doc.Spend.MaxPerTx == nil {
		return true
	}

	amountRaw, ok := payload["amount"]
	if !ok {
		return false
	}
	amount, ok := amountRaw.(float64)
	if !ok {
		return false
	}
	if amount > *doc.Spend.MaxPerTx {
		return false
	}

	if doc.Spend.Currency != nil {
		currencyRaw, ok := payload["currency"]
		if !ok {
			return false
		}
		currency, ok := currencyRaw.(string)
		if !ok || currency != *doc.Spend.Currency {
			return false
		}
	}

	return true
}

// PolicyAllowsRate implements policy_allows_rate: an unset
// rate_limits.max_actions_per_min passes unconditionally; otherwise
// currentCount (already incremented by the rate-limit cache) must be
// within the configured limit.
func PolicyAllowsRate(doc Document, currentCount int64) bool {
	if doc.RateLimits == nil || doc.RateLimits.MaxActionsPerMin == nil {
		return true
	}
	return currentCount <= *doc.RateLimits.MaxActionsPerMin
}

// ExtractTool reads payload.tool as an optional string, returning nil
// when absent or not a string.
func ExtractTool(payload map[string]interface{}) *string {
	raw, ok := payload["tool"]
	if !ok {
		return nil
	}
	tool, ok := raw.(string)
	if !ok {
		return nil
	}
	return &tool
}
