// Package hcert verifies signed digital health certificates and classifies
// them into immunity records.
package hcert

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blocky/hcert/internal"
)

type Document = internal.Document
type Procedure = internal.Procedure
type Person = internal.Person
type Result = internal.Result
type KeyResolver = internal.KeyResolver
type TrustList = internal.TrustList
type BoosterPolicy = internal.BoosterPolicy

func NewTrustList() *TrustList {
	return internal.NewTrustList()
}

type VerificationTime int

const (
	CurrentTime VerificationTime = iota
	IssuedAtTime
)

type VerifierConfig struct {
	keyResolver      KeyResolver
	verificationTime VerificationTime
	time             time.Time
	person           *Person
	clockSkew        time.Duration
	skipSignature    bool
	boosterPolicy    BoosterPolicy
	concurrency      int
}

type VerifierConfigOption func(*VerifierConfig)

func WithKeyResolver(r KeyResolver) VerifierConfigOption {
	return func(c *VerifierConfig) {
		c.keyResolver = r
	}
}

// WithTime pins the time rules are evaluated at. Without it the verifier
// reads the clock on every call.
func WithTime(t time.Time) VerifierConfigOption {
	return func(c *VerifierConfig) {
		c.verificationTime = CurrentTime
		c.time = t
	}
}

func WithIssuedAtTime() VerifierConfigOption {
	return func(c *VerifierConfig) {
		c.verificationTime = IssuedAtTime
	}
}

func WithPerson(p *Person) VerifierConfigOption {
	return func(c *VerifierConfig) {
		c.person = p
	}
}

func WithClockSkew(d time.Duration) VerifierConfigOption {
	return func(c *VerifierConfig) {
		c.clockSkew = d
	}
}

// WithSkipSignature decodes certificates without checking their signature.
// Documents produced this way are marked as not verified.
func WithSkipSignature(skip bool) VerifierConfigOption {
	return func(c *VerifierConfig) {
		c.skipSignature = skip
	}
}

func WithBoosterPolicy(p BoosterPolicy) VerifierConfigOption {
	return func(c *VerifierConfig) {
		c.boosterPolicy = p
	}
}

// WithConcurrency bounds how many certificates VerifyAll checks at once.
func WithConcurrency(n int) VerifierConfigOption {
	return func(c *VerifierConfig) {
		c.concurrency = n
	}
}

type Verifier struct {
	keyResolver      KeyResolver
	verificationTime func() internal.VerificationTimeFunc
	options          internal.VerifyOptions
	boosterPolicy    BoosterPolicy
	concurrency      int
}

func NewVerifier(options ...VerifierConfigOption) (*Verifier, error) {
	config := &VerifierConfig{
		verificationTime: CurrentTime,
		clockSkew:        internal.DefaultClockSkew,
		boosterPolicy:    internal.DefaultBoosterPolicy(),
		concurrency:      runtime.GOMAXPROCS(0),
	}
	for _, opt := range options {
		opt(config)
	}

	return NewVerifierFromConfig(config)
}

func NewVerifierFromConfig(config *VerifierConfig) (*Verifier, error) {
	var verifier = new(Verifier)

	if config.keyResolver == nil && !config.skipSignature {
		return nil, fmt.Errorf("no key resolver configured")
	}
	verifier.keyResolver = config.keyResolver

	switch config.verificationTime {
	case CurrentTime:
		pinned := config.time
		verifier.verificationTime = func() internal.VerificationTimeFunc {
			if pinned.IsZero() {
				return internal.WithTime(time.Now())
			}
			return internal.WithTime(pinned)
		}
	case IssuedAtTime:
		verifier.verificationTime = internal.WithIssuedAtTime
	default:
		return nil,
			fmt.Errorf("unknown verification time: %d", config.verificationTime)
	}

	if config.clockSkew < 0 {
		return nil, fmt.Errorf("negative clock skew: %s", config.clockSkew)
	}
	if config.boosterPolicy.RecoveryWindowMonths < 0 {
		return nil, fmt.Errorf(
			"negative recovery window: %d months",
			config.boosterPolicy.RecoveryWindowMonths,
		)
	}

	if config.concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be positive: %d", config.concurrency)
	}
	verifier.concurrency = config.concurrency

	verifier.options = internal.VerifyOptions{
		Person:        config.person,
		ClockSkew:     config.clockSkew,
		SkipSignature: config.skipSignature,
	}
	verifier.boosterPolicy = config.boosterPolicy

	return verifier, nil
}

// Verify decodes, verifies, validates and classifies a certificate string.
// Errors carry an hcert_error sentinel; use hcert_error.KindOf to tell
// decode, verification, validation and expiry failures apart.
func (v *Verifier) Verify(certificate string) (*Result, error) {
	result, err := internal.Verify(
		certificate,
		v.keyResolver,
		v.verificationTime(),
		v.options,
	)
	if err != nil {
		return nil, fmt.Errorf("verifying certificate: %w", err)
	}
	return result, nil
}

// BatchResult is the outcome for one certificate of VerifyAll. Exactly one
// of Result and Err is set.
type BatchResult struct {
	Result *Result
	Err    error
}

// VerifyAll verifies independent certificates in parallel and returns their
// outcomes in input order. A rejected certificate does not stop the others;
// only cancellation of ctx does.
func (v *Verifier) VerifyAll(
	ctx context.Context,
	certificates []string,
) ([]BatchResult, error) {
	results := make([]BatchResult, len(certificates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)
	for i, certificate := range certificates {
		i, certificate := i, certificate
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := v.Verify(certificate)
			results[i] = BatchResult{Result: result, Err: err}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, fmt.Errorf("verifying batch: %w", err)
	}
	return results, nil
}

// IsBoostered evaluates a person's accepted documents with the verifier's
// booster policy.
func (v *Verifier) IsBoostered(
	vaccinations []Document,
	recoveries []Document,
	now time.Time,
) bool {
	return internal.IsBoostered(vaccinations, recoveries, now, v.boosterPolicy)
}

// IsBoostered evaluates a person's accepted documents with the default
// booster policy.
func IsBoostered(vaccinations []Document, recoveries []Document, now time.Time) bool {
	return internal.IsBoostered(
		vaccinations,
		recoveries,
		now,
		internal.DefaultBoosterPolicy(),
	)
}
