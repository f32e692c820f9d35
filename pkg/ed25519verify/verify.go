// Package ed25519verify checks the Ed25519 signature carried on a
// verify_action request against the SHA-256 digest of the request's
// canonical signed envelope. It fails closed: any malformed input or
// cryptographic mismatch is reported as SIGNATURE_INVALID, never as a
// panic or an unhandled error, so a caller can always map the outcome
// straight to a DENY reason.
package ed25519verify

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"

	"github.com/jordigilh/verifyd/pkg/canon"
)

// Envelope is the signed document: the six fields whose canonical
// encoding is digested and signed by the calling agent.
type Envelope struct {
	AgentID        string
	WorkspaceID    string
	ActionType     string
	TargetService  string
	Payload        map[string]interface{}
	CapabilityJTI  string
}

// Canonicalize builds the canonical JSON form of the envelope.
func (e Envelope) Canonicalize() (string, error) {
	payload, err := canon.FromMap(e.Payload)
	if err != nil {
		return "", fmt.Errorf("ed25519verify: invalid payload: %w", err)
	}
	v := canon.Obj(
		canon.Member{Key: "agent_id", Value: canon.Str(e.AgentID)},
		canon.Member{Key: "workspace_id", Value: canon.Str(e.WorkspaceID)},
		canon.Member{Key: "action_type", Value: canon.Str(e.ActionType)},
		canon.Member{Key: "target_service", Value: canon.Str(e.TargetService)},
		canon.Member{Key: "payload", Value: payload},
		canon.Member{Key: "capability_jti", Value: canon.Str(e.CapabilityJTI)},
	)
	return canon.Encode(v), nil
}

// Digest returns the SHA-256 digest of the envelope's canonical form.
func (e Envelope) Digest() ([32]byte, error) {
	canonical, err := e.Canonicalize()
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256([]byte(canonical)), nil
}

// Verify reports whether signature is a valid Ed25519 signature over
// the SHA-256 digest of envelope's canonical form, under publicKey.
// Any error (malformed payload, wrong key length, wrong signature
// length) is folded into a false result; callers should treat a
// non-nil error identically to an explicit verification failure.
func Verify(envelope Envelope, publicKey ed25519.PublicKey, signature []byte) (bool, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return false, fmt.Errorf("ed25519verify: invalid public key length %d", len(publicKey))
	}
	if len(signature) != ed25519.SignatureSize {
		return false, fmt.Errorf("ed25519verify: invalid signature length %d", len(signature))
	}

	digest, err := envelope.Digest()
	if err != nil {
		return false, err
	}

	return ed25519.Verify(publicKey, digest[:], signature), nil
}
