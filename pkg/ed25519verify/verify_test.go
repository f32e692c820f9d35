package ed25519verify

import (
	"crypto/ed25519"
	"testing"
)

func testEnvelope() Envelope {
	return Envelope{
		AgentID:       "agent-1",
		WorkspaceID:   "ws-1",
		ActionType:    "purchase",
		TargetService: "billing-api",
		Payload:       map[string]interface{}{"amount": float64(100), "currency": "USD"},
		CapabilityJTI: "jti-1",
	}
}

func signEnvelope(t *testing.T, priv ed25519.PrivateKey, e Envelope) []byte {
	t.Helper()
	digest, err := e.Digest()
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	return ed25519.Sign(priv, digest[:])
}

func TestVerify_ValidSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	env := testEnvelope()
	sig := signEnvelope(t, priv, env)

	ok, err := Verify(env, pub, sig)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("Verify() = false, want true for valid signature")
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	env := testEnvelope()
	sig := signEnvelope(t, priv, env)

	env.Payload["amount"] = float64(999999)

	ok, err := Verify(env, pub, sig)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("Verify() = true, want false for tampered payload")
	}
}

func TestVerify_WrongKey(t *testing.T) {
	pub1, priv1, _ := ed25519.GenerateKey(nil)
	pub2, _, _ := ed25519.GenerateKey(nil)
	_ = pub1

	env := testEnvelope()
	sig := signEnvelope(t, priv1, env)

	ok, err := Verify(env, pub2, sig)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("Verify() = true, want false under the wrong public key")
	}
}

func TestVerify_MalformedSignatureLength(t *testing.T) {
	pub, _, _ := ed25519.GenerateKey(nil)
	env := testEnvelope()

	ok, err := Verify(env, pub, []byte("too-short"))
	if err == nil {
		t.Error("expected error for malformed signature length")
	}
	if ok {
		t.Error("Verify() = true, want false for malformed signature")
	}
}

func TestVerify_MalformedKeyLength(t *testing.T) {
	env := testEnvelope()
	sig := make([]byte, ed25519.SignatureSize)

	ok, err := Verify(env, []byte("short-key"), sig)
	if err == nil {
		t.Error("expected error for malformed public key length")
	}
	if ok {
		t.Error("Verify() = true, want false for malformed public key")
	}
}

func TestEnvelope_CanonicalizeDeterministic(t *testing.T) {
	env := testEnvelope()
	a, err := env.Canonicalize()
	if err != nil {
		t.Fatalf("Canonicalize() error = %v", err)
	}
	b, err := env.Canonicalize()
	if err != nil {
		t.Fatalf("Canonicalize() error = %v", err)
	}
	if a != b {
		t.Errorf("Canonicalize() not deterministic: %q != %q", a, b)
	}
}
