// Package internal implements decoding, verification and classification of
// signed health certificates.
package internal

import (
	"fmt"
	"time"

	"github.com/blocky/hcert/pkg/hcert_error"
)

type VerificationTimeFunc func(Claims) time.Time

// WithIssuedAtTime evaluates the rules at the certificate's own issue time,
// which lets a stored certificate be re-checked as it was when accepted.
func WithIssuedAtTime() VerificationTimeFunc {
	return func(claims Claims) time.Time {
		return claims.IssuedAt.Time()
	}
}

func WithTime(t time.Time) VerificationTimeFunc {
	return func(_ Claims) time.Time {
		return t
	}
}

type VerifyOptions struct {
	Person        *Person
	ClockSkew     time.Duration
	SkipSignature bool
}

// Verify runs a certificate through decode, signature check, claim mapping,
// business rules and classification, stopping at the first failure.
func Verify(
	raw string,
	keyResolver KeyResolver,
	verificationTime VerificationTimeFunc,
	options VerifyOptions,
) (
	*Result,
	error,
) {
	envelope, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding certificate: %w", err)
	}

	var sigStruct []byte
	if !options.SkipSignature {
		if keyResolver == nil {
			return nil, fmt.Errorf("verifying certificate: no key resolver")
		}

		key, err := keyResolver.ResolveIssuerKey(envelope.KeyID)
		if err != nil {
			if hcert_error.KindOf(err) == hcert_error.KindUnknown {
				err = fmt.Errorf("%w: %w", hcert_error.ErrKeyNotFound, err)
			}
			return nil, fmt.Errorf("resolving issuer key: %w", err)
		}

		sigStruct, err = VerifySignature(envelope, key)
		if err != nil {
			return nil, fmt.Errorf("checking CoseSign1 signature: %w", err)
		}
	}

	claims, err := MapClaims(envelope.Payload)
	if err != nil {
		return nil, fmt.Errorf("mapping claims: %w", err)
	}

	now := verificationTime(claims)
	if now.IsZero() {
		return nil, fmt.Errorf("%w: verification time is 0", hcert_error.ErrMalformedClaims)
	}

	err = Validate(claims, options.Person, now, options.ClockSkew)
	if err != nil {
		return nil, fmt.Errorf("validating claims: %w", err)
	}

	doc, err := Classify(claims, raw)
	if err != nil {
		return nil, fmt.Errorf("classifying certificate: %w", err)
	}
	doc.IsVerified = !options.SkipSignature

	return &Result{
		Document:      &doc,
		KeyID:         envelope.KeyID,
		KeyIDLocation: envelope.KeyIDLocation,
		Protected:     envelope.Protected,
		Payload:       envelope.Payload,
		Signature:     envelope.Signature,
		COSESign1:     sigStruct,
	}, nil
}
