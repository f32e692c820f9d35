package validation

import (
	"strings"
	"testing"
)

func TestValidateStringInput_Valid(t *testing.T) {
	if err := ValidateStringInput("payload", "normal text with spaces", 100); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidateStringInput_TooLong(t *testing.T) {
	if err := ValidateStringInput("payload", strings.Repeat("a", 101), 100); err == nil {
		t.Error("expected error for oversized input")
	}
}

func TestValidateStringInput_SQLInjection(t *testing.T) {
	inputs := []string{
		"' UNION SELECT * FROM users --",
		"DROP TABLE agents;",
		"<script>alert(1)</script>",
	}
	for _, in := range inputs {
		if err := ValidateStringInput("field", in, 200); err == nil {
			t.Errorf("expected error for unsafe input %q", in)
		}
	}
}

func TestValidateStringInput_ControlCharacters(t *testing.T) {
	if err := ValidateStringInput("field", "bad\x00value", 200); err == nil {
		t.Error("expected error for control character")
	}
}

func TestValidateStringInput_AllowsWhitespace(t *testing.T) {
	if err := ValidateStringInput("field", "line one\nline two\ttabbed", 200); err != nil {
		t.Errorf("expected tab/newline to be allowed, got %v", err)
	}
}

func TestSanitizeForLogging_StripsControlChars(t *testing.T) {
	out := SanitizeForLogging("value\x01with\x02control")
	if strings.ContainsRune(out, 0x01) || strings.ContainsRune(out, 0x02) {
		t.Errorf("expected control characters stripped, got %q", out)
	}
}

func TestSanitizeForLogging_Truncates(t *testing.T) {
	out := SanitizeForLogging(strings.Repeat("x", 300))
	if !strings.HasSuffix(out, "...") {
		t.Errorf("expected truncated output to end with ..., got %q", out)
	}
	if len(out) != 203 {
		t.Errorf("expected truncated length 203, got %d", len(out))
	}
}

func TestSanitizeForLogging_PreservesWhitespace(t *testing.T) {
	out := SanitizeForLogging("a\tb\nc")
	if out != "a\tb\nc" {
		t.Errorf("expected whitespace preserved, got %q", out)
	}
}

func TestValidateIdentifier(t *testing.T) {
	if err := ValidateIdentifier("workspace_id", "ws-123_abc", 64); err != nil {
		t.Errorf("expected valid identifier to pass, got %v", err)
	}
	if err := ValidateIdentifier("workspace_id", "", 64); err == nil {
		t.Error("expected empty identifier to fail")
	}
	if err := ValidateIdentifier("workspace_id", "has space", 64); err == nil {
		t.Error("expected identifier with space to fail")
	}
	if err := ValidateIdentifier("workspace_id", strings.Repeat("a", 65), 64); err == nil {
		t.Error("expected oversized identifier to fail")
	}
}

func TestValidateActionType(t *testing.T) {
	if err := ValidateActionType("deploy.production"); err != nil {
		t.Errorf("expected valid action type to pass, got %v", err)
	}
	if err := ValidateActionType(""); err == nil {
		t.Error("expected empty action type to fail")
	}
}

func TestValidateScopes(t *testing.T) {
	if err := ValidateScopes(nil); err == nil {
		t.Error("expected empty scopes to fail")
	}
	if err := ValidateScopes([]string{"read.orders", "write.orders"}); err != nil {
		t.Errorf("expected valid scopes to pass, got %v", err)
	}
	if err := ValidateScopes([]string{"bad scope"}); err == nil {
		t.Error("expected invalid scope entry to fail")
	}
}

func TestValidateTTLMinutes(t *testing.T) {
	if err := ValidateTTLMinutes(15, 5, 30); err != nil {
		t.Errorf("expected ttl within bounds to pass, got %v", err)
	}
	if err := ValidateTTLMinutes(4, 5, 30); err == nil {
		t.Error("expected ttl below minimum to fail")
	}
	if err := ValidateTTLMinutes(31, 5, 30); err == nil {
		t.Error("expected ttl above maximum to fail")
	}
}
