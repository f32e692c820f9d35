package captoken

import (
	"crypto/ed25519"
	"testing"
	"time"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	codec, err := NewCodec("key-1", priv, pub, 5*time.Second)
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	return codec
}

func TestIssueAndDecode_RoundTrip(t *testing.T) {
	codec := testCodec(t)
	now := time.Now()

	token, err := codec.Issue(IssueParams{
		AgentID:       "agent-1",
		WorkspaceID:   "ws-1",
		Scopes:        []string{"read:orders"},
		Limits:        Limits{MaxSpend: 500},
		PolicyID:      "policy-1",
		PolicyVersion: 1,
		JTI:           "jti-1",
		IssuedAt:      now,
		TTL:           15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	outcome := codec.Decode(token)
	if outcome.Kind != Ok {
		t.Fatalf("Decode() kind = %v, want Ok (err=%v)", outcome.Kind, outcome.Err)
	}
	if outcome.Claims.Subject() != "agent-1" {
		t.Errorf("Subject() = %q, want agent-1", outcome.Claims.Subject())
	}
	if outcome.Claims.WorkspaceID != "ws-1" {
		t.Errorf("WorkspaceID = %q, want ws-1", outcome.Claims.WorkspaceID)
	}
	if outcome.Claims.JTI() != "jti-1" {
		t.Errorf("JTI() = %q, want jti-1", outcome.Claims.JTI())
	}
}

func TestDecode_ExpiredToken(t *testing.T) {
	codec := testCodec(t)
	issuedAt := time.Now().Add(-1 * time.Hour)

	token, err := codec.Issue(IssueParams{
		AgentID:     "agent-1",
		WorkspaceID: "ws-1",
		Scopes:      []string{"read:orders"},
		JTI:         "jti-1",
		IssuedAt:    issuedAt,
		TTL:         5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	outcome := codec.Decode(token)
	if outcome.Kind != Expired {
		t.Fatalf("Decode() kind = %v, want Expired", outcome.Kind)
	}
}

func TestDecode_WrongKeyIsInvalid(t *testing.T) {
	codec := testCodec(t)
	otherCodec := testCodec(t)

	token, err := codec.Issue(IssueParams{
		AgentID:     "agent-1",
		WorkspaceID: "ws-1",
		JTI:         "jti-1",
		IssuedAt:    time.Now(),
		TTL:         5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	outcome := otherCodec.Decode(token)
	if outcome.Kind != Invalid {
		t.Fatalf("Decode() kind = %v, want Invalid", outcome.Kind)
	}
}

func TestDecode_MalformedTokenIsInvalid(t *testing.T) {
	codec := testCodec(t)

	outcome := codec.Decode("not.a.jwt")
	if outcome.Kind != Invalid {
		t.Fatalf("Decode() kind = %v, want Invalid", outcome.Kind)
	}
}

func TestNewCodec_RejectsEmptyKeyID(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	_, err := NewCodec("", priv, pub, 0)
	if err != ErrMissingSigningKey {
		t.Errorf("NewCodec() error = %v, want ErrMissingSigningKey", err)
	}
}
