package internal

import (
	"fmt"
	"time"

	"github.com/blocky/hcert/pkg/hcert_error"
)

// DefaultClockSkew is how far ahead of the verifier's clock an issuer's
// clock may run.
const DefaultClockSkew = 5 * time.Minute

// Validate applies the business rules in order: disease, issue time,
// expiration, holder name. The person is optional.
func Validate(
	claims Claims,
	person *Person,
	now time.Time,
	skew time.Duration,
) error {
	err := CheckDisease(claims)
	if err != nil {
		return fmt.Errorf("checking disease: %w", err)
	}

	err = CheckIssuedAt(claims, now, skew)
	if err != nil {
		return fmt.Errorf("checking issued at: %w", err)
	}

	err = CheckExpiration(claims, now)
	if err != nil {
		return fmt.Errorf("checking expiration: %w", err)
	}

	err = CheckName(claims, person)
	if err != nil {
		return fmt.Errorf("checking name: %w", err)
	}
	return nil
}

func CheckDisease(claims Claims) error {
	for _, code := range claims.DiseaseCodes() {
		if ParseDiseaseAgent(code) != DiseaseCOVID19 {
			return fmt.Errorf("%w: '%s'", hcert_error.ErrUnsupportedDisease, code)
		}
	}
	return nil
}

func CheckIssuedAt(claims Claims, now time.Time, skew time.Duration) error {
	issuedAt := claims.IssuedAt.Time()
	if issuedAt.IsZero() {
		return nil
	}
	if issuedAt.After(now.Add(skew)) {
		return fmt.Errorf(
			"%w: issued at %s, now %s",
			hcert_error.ErrIssuedInFuture,
			issuedAt.Format(time.RFC3339),
			now.UTC().Format(time.RFC3339),
		)
	}
	return nil
}

// CheckExpiration fails with the distinguished expired error so callers can
// tell an outdated certificate from a broken one. Certificates without an
// expiration claim do not expire here.
func CheckExpiration(claims Claims, now time.Time) error {
	expiration := claims.Expiration.Time()
	if expiration.IsZero() {
		return nil
	}
	if expiration.Before(now) {
		return fmt.Errorf(
			"%w: expired at %s, now %s",
			hcert_error.ErrExpired,
			expiration.Format(time.RFC3339),
			now.UTC().Format(time.RFC3339),
		)
	}
	return nil
}

// CheckName compares names exactly, without case folding or
// transliteration.
func CheckName(claims Claims, person *Person) error {
	if person == nil {
		return nil
	}
	if claims.FirstName() != person.FirstName ||
		claims.LastName() != person.LastName {
		return hcert_error.ErrNameMismatch
	}
	return nil
}
