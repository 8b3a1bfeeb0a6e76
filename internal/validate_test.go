package internal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/blocky/hcert/internal"
	"github.com/blocky/hcert/internal/certtest"
	"github.com/blocky/hcert/pkg/hcert_error"
)

func vaccinationClaims() internal.Claims {
	dcc := certtest.Vaccination("EU/1/20/1528", 2, 2, "2021-05-10")
	return certtest.NewClaims(dcc, issuedAt, expiration)
}

func TestValidate(t *testing.T) {
	now := time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)
	person := certtest.HolderPerson()

	t.Run("happy path", func(t *testing.T) {
		err := internal.Validate(vaccinationClaims(), &person, now, internal.DefaultClockSkew)

		assert.NoError(t, err)
	})

	t.Run("happy path - no person", func(t *testing.T) {
		err := internal.Validate(vaccinationClaims(), nil, now, internal.DefaultClockSkew)

		assert.NoError(t, err)
	})

	t.Run("disease is checked first", func(t *testing.T) {
		// given
		claims := vaccinationClaims()
		claims.HealthCertificate.DCC.Vaccinations[0].Target = "1234"
		other := internal.Person{FirstName: "Erika", LastName: "Mustermann"}
		afterExpiration := expiration.Add(time.Hour)

		// when
		err := internal.Validate(claims, &other, afterExpiration, internal.DefaultClockSkew)

		// then
		assert.ErrorIs(t, err, hcert_error.ErrUnsupportedDisease)
		assert.ErrorContains(t, err, "'1234'")
	})

	t.Run("expiration before name", func(t *testing.T) {
		// given
		other := internal.Person{FirstName: "Erika", LastName: "Mustermann"}
		afterExpiration := expiration.Add(time.Hour)

		// when
		err := internal.Validate(vaccinationClaims(), &other, afterExpiration, internal.DefaultClockSkew)

		// then
		assert.ErrorIs(t, err, hcert_error.ErrExpired)
		assert.Equal(t, hcert_error.KindExpired, hcert_error.KindOf(err))
	})

	t.Run("issued in future before expiration", func(t *testing.T) {
		// given
		claims := vaccinationClaims()
		claims.Expiration = internal.NumericDate(issuedAt.Add(-3 * time.Hour).Unix())

		// when
		err := internal.Validate(claims, nil, issuedAt.Add(-2*time.Hour), internal.DefaultClockSkew)

		// then
		assert.ErrorIs(t, err, hcert_error.ErrIssuedInFuture)
	})
}

func TestCheckDisease(t *testing.T) {
	t.Run("happy path - no statements", func(t *testing.T) {
		claims := certtest.NewClaims(internal.DigitalCovidCertificate{}, issuedAt, expiration)

		assert.NoError(t, internal.CheckDisease(claims))
	})

	t.Run("any foreign statement fails", func(t *testing.T) {
		// given
		claims := vaccinationClaims()
		claims.HealthCertificate.DCC.Recoveries = certtest.Recovery("2021-04-01", "", "").Recoveries
		claims.HealthCertificate.DCC.Recoveries[0].Target = "6142004"

		// when
		err := internal.CheckDisease(claims)

		// then
		assert.ErrorIs(t, err, hcert_error.ErrUnsupportedDisease)
		assert.Equal(t, hcert_error.KindValidation, hcert_error.KindOf(err))
	})
}

func TestCheckIssuedAt(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantErr bool
	}{
		{"after issue", issuedAt.Add(time.Hour), false},
		{"at issue", issuedAt, false},
		{"within skew", issuedAt.Add(-internal.DefaultClockSkew), false},
		{"beyond skew", issuedAt.Add(-internal.DefaultClockSkew - time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := internal.CheckIssuedAt(vaccinationClaims(), tt.now, internal.DefaultClockSkew)

			if tt.wantErr {
				assert.ErrorIs(t, err, hcert_error.ErrIssuedInFuture)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("missing issued at", func(t *testing.T) {
		claims := vaccinationClaims()
		claims.IssuedAt = 0

		assert.NoError(t, internal.CheckIssuedAt(claims, issuedAt.AddDate(-1, 0, 0), 0))
	})
}

func TestCheckExpiration(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantErr bool
	}{
		{"before expiration", expiration.Add(-time.Second), false},
		{"at expiration", expiration, false},
		{"after expiration", expiration.Add(time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := internal.CheckExpiration(vaccinationClaims(), tt.now)

			if tt.wantErr {
				assert.ErrorIs(t, err, hcert_error.ErrExpired)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("missing expiration", func(t *testing.T) {
		claims := vaccinationClaims()
		claims.Expiration = 0

		assert.NoError(t, internal.CheckExpiration(claims, expiration.AddDate(10, 0, 0)))
	})
}

func TestCheckName(t *testing.T) {
	tests := []struct {
		name    string
		person  *internal.Person
		wantErr bool
	}{
		{"no person", nil, false},
		{"exact", &internal.Person{FirstName: "Gabriele", LastName: "Musterfrau"}, false},
		{"date of birth is not compared", &internal.Person{
			FirstName:   "Gabriele",
			LastName:    "Musterfrau",
			DateOfBirth: day(2000, time.January, 1),
		}, false},
		{"case differs", &internal.Person{FirstName: "gabriele", LastName: "Musterfrau"}, true},
		{"standardized name", &internal.Person{FirstName: "GABRIELE", LastName: "MUSTERFRAU"}, true},
		{"last name differs", &internal.Person{FirstName: "Gabriele", LastName: "Mustermann"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := internal.CheckName(vaccinationClaims(), tt.person)

			if tt.wantErr {
				assert.ErrorIs(t, err, hcert_error.ErrNameMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
