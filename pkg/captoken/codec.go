// Package captoken issues and decodes capability tokens: compact JWS
// values signed with EdDSA (Ed25519), carrying a closed claim set that
// scopes what an agent may do, under which policy, until when.
package captoken

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors distinguish why a decode failed, mirroring the
// two-way split the verify pipeline needs between an expired
// capability and one that is invalid for any other reason.
var (
	ErrExpiredToken            = errors.New("captoken: token is expired")
	ErrInvalidSignature        = errors.New("captoken: signature is invalid")
	ErrUnexpectedSigningMethod = errors.New("captoken: unexpected signing method")
	ErrMissingSigningKey       = errors.New("captoken: signing key is not configured")
	ErrMalformedToken          = errors.New("captoken: token is malformed")
)

// OutcomeKind classifies a Decode result without forcing the caller to
// inspect error chains.
type OutcomeKind int

const (
	Ok OutcomeKind = iota
	Expired
	Invalid
)

// DecodeOutcome is a sum type over the result of decoding a token: on
// Ok, Claims is populated and Err is nil; on Expired or Invalid,
// Claims is the zero value and Err names the reason.
type DecodeOutcome struct {
	Kind   OutcomeKind
	Claims Claims
	Err    error
}

// Codec issues and decodes capability tokens under a single Ed25519
// signing key, identified by kid in the JWS header.
type Codec struct {
	kid        string
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	leeway     time.Duration
}

// NewCodec builds a Codec from an Ed25519 key pair and a JWT key id.
// leeway absorbs clock skew between the issuer and a later verifier
// when checking exp/nbf.
func NewCodec(kid string, privateKey ed25519.PrivateKey, publicKey ed25519.PublicKey, leeway time.Duration) (*Codec, error) {
	if kid == "" {
		return nil, ErrMissingSigningKey
	}
	if len(privateKey) != ed25519.PrivateKeySize && len(publicKey) != ed25519.PublicKeySize {
		return nil, ErrMissingSigningKey
	}
	return &Codec{kid: kid, privateKey: privateKey, publicKey: publicKey, leeway: leeway}, nil
}

// IssueParams carries the fields needed to mint a new capability.
type IssueParams struct {
	AgentID       string
	WorkspaceID   string
	Scopes        []string
	Limits        Limits
	PolicyID      string
	PolicyVersion int
	JTI           string
	IssuedAt      time.Time
	TTL           time.Duration
}

// Issue mints a compact JWS for the given parameters, signed with
// EdDSA under the codec's private key.
func (c *Codec) Issue(p IssueParams) (string, error) {
	if len(c.privateKey) != ed25519.PrivateKeySize {
		return "", ErrMissingSigningKey
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.AgentID,
			ID:        p.JTI,
			IssuedAt:  jwt.NewNumericDate(p.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(p.IssuedAt.Add(p.TTL)),
		},
		WorkspaceID:   p.WorkspaceID,
		Scopes:        p.Scopes,
		Limits:        p.Limits,
		PolicyID:      p.PolicyID,
		PolicyVersion: p.PolicyVersion,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = c.kid

	return token.SignedString(c.privateKey)
}

// Decode parses and verifies a compact JWS, returning a DecodeOutcome
// that distinguishes an expired token from any other invalid token.
// Decode never panics and never returns a nil DecodeOutcome; unexpected
// parser errors fold into Invalid so the caller fails closed.
func (c *Codec) Decode(tokenString string) DecodeOutcome {
	if len(c.publicKey) != ed25519.PublicKeySize {
		return DecodeOutcome{Kind: Invalid, Err: ErrMissingSigningKey}
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, ErrUnexpectedSigningMethod
		}
		return c.publicKey, nil
	}, jwt.WithValidMethods([]string{"EdDSA"}), jwt.WithLeeway(c.leeway))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return DecodeOutcome{Kind: Expired, Err: ErrExpiredToken}
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return DecodeOutcome{Kind: Invalid, Err: ErrInvalidSignature}
		}
		return DecodeOutcome{Kind: Invalid, Err: fmt.Errorf("%w: %v", ErrMalformedToken, err)}
	}

	if !token.Valid {
		return DecodeOutcome{Kind: Invalid, Err: ErrMalformedToken}
	}

	return DecodeOutcome{Kind: Ok, Claims: *claims}
}
