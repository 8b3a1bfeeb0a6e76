package internal

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/blocky/hcert/pkg/hcert_error"
)

// CWT claim keys, https://datatracker.ietf.org/doc/html/rfc8392#section-4
const (
	ClaimIssuer            = 1
	ClaimExpiration        = 4
	ClaimIssuedAt          = 6
	ClaimHealthCertificate = -260
)

// NumericDate is a CWT date in seconds since the epoch. Issuers encode it as
// an integer, a float or a tag 1 date.
type NumericDate int64

func (d *NumericDate) UnmarshalCBOR(data []byte) error {
	var v interface{}
	err := cbor.Unmarshal(data, &v)
	if err != nil {
		return fmt.Errorf("unmarshaling numeric date: %w", err)
	}

	switch n := v.(type) {
	case uint64:
		if n > math.MaxInt64 {
			return fmt.Errorf("numeric date '%d' out of range", n)
		}
		*d = NumericDate(n)
	case int64:
		*d = NumericDate(n)
	case float64:
		*d = NumericDate(int64(n))
	case float32:
		*d = NumericDate(int64(n))
	case time.Time:
		*d = NumericDate(n.Unix())
	case nil:
		*d = 0
	default:
		return fmt.Errorf("numeric date of unexpected type %T", v)
	}
	return nil
}

// Time returns the date in UTC, or the zero time when unset.
func (d NumericDate) Time() time.Time {
	if d == 0 {
		return time.Time{}
	}
	return time.Unix(int64(d), 0).UTC()
}

type Claims struct {
	Issuer            string             `cbor:"1,keyasint,omitempty"`
	Expiration        NumericDate        `cbor:"4,keyasint,omitempty"`
	IssuedAt          NumericDate        `cbor:"6,keyasint,omitempty"`
	HealthCertificate *HealthCertificate `cbor:"-260,keyasint,omitempty"`
}

type HealthCertificate struct {
	DCC *DigitalCovidCertificate `cbor:"1,keyasint,omitempty"`
}

// https://github.com/ehn-dcc-development/ehn-dcc-schema
type DigitalCovidCertificate struct {
	Version      string             `cbor:"ver" json:"ver"`
	Name         Name               `cbor:"nam" json:"nam"`
	DateOfBirth  string             `cbor:"dob" json:"dob"`
	Vaccinations []VaccinationEntry `cbor:"v,omitempty" json:"v,omitempty"`
	Tests        []TestEntry        `cbor:"t,omitempty" json:"t,omitempty"`
	Recoveries   []RecoveryEntry    `cbor:"r,omitempty" json:"r,omitempty"`
}

type Name struct {
	FamilyName    string `cbor:"fn,omitempty" json:"fn,omitempty"`
	FamilyNameStd string `cbor:"fnt,omitempty" json:"fnt,omitempty"`
	GivenName     string `cbor:"gn,omitempty" json:"gn,omitempty"`
	GivenNameStd  string `cbor:"gnt,omitempty" json:"gnt,omitempty"`
}

type VaccinationEntry struct {
	Target             string `cbor:"tg" json:"tg"`
	Vaccine            string `cbor:"vp" json:"vp"`
	Product            string `cbor:"mp" json:"mp"`
	Manufacturer       string `cbor:"ma" json:"ma"`
	DoseNumber         int    `cbor:"dn" json:"dn"`
	TotalSeriesOfDoses int    `cbor:"sd" json:"sd"`
	Date               string `cbor:"dt" json:"dt"`
	Country            string `cbor:"co" json:"co"`
	Issuer             string `cbor:"is" json:"is"`
	CertificateID      string `cbor:"ci" json:"ci"`
}

type TestEntry struct {
	Target        string `cbor:"tg" json:"tg"`
	TestType      string `cbor:"tt" json:"tt"`
	Name          string `cbor:"nm,omitempty" json:"nm,omitempty"`
	Manufacturer  string `cbor:"ma,omitempty" json:"ma,omitempty"`
	SampleTime    string `cbor:"sc" json:"sc"`
	ResultTime    string `cbor:"dr,omitempty" json:"dr,omitempty"`
	Result        string `cbor:"tr" json:"tr"`
	TestingCentre string `cbor:"tc,omitempty" json:"tc,omitempty"`
	Country       string `cbor:"co" json:"co"`
	Issuer        string `cbor:"is" json:"is"`
	CertificateID string `cbor:"ci" json:"ci"`
}

type RecoveryEntry struct {
	Target            string `cbor:"tg" json:"tg"`
	FirstPositiveDate string `cbor:"fr" json:"fr"`
	Country           string `cbor:"co" json:"co"`
	Issuer            string `cbor:"is" json:"is"`
	ValidFrom         string `cbor:"df" json:"df"`
	ValidUntil        string `cbor:"du" json:"du"`
	CertificateID     string `cbor:"ci" json:"ci"`
}

// MapClaims decodes the CWT claim set of a certificate payload.
func MapClaims(payload []byte) (Claims, error) {
	claims := Claims{}
	err := cbor.Unmarshal(payload, &claims)
	if nil != err {
		return Claims{}, fmt.Errorf("%w: %w", hcert_error.ErrMalformedClaims, err)
	}

	if claims.HealthCertificate == nil || claims.HealthCertificate.DCC == nil {
		return Claims{}, fmt.Errorf("%w: missing health certificate", hcert_error.ErrMalformedClaims)
	}

	_, err = ParseDateOfBirth(claims.DCC().DateOfBirth)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", hcert_error.ErrMalformedClaims, err)
	}
	return claims, nil
}

func (c Claims) DCC() DigitalCovidCertificate {
	if c.HealthCertificate == nil || c.HealthCertificate.DCC == nil {
		return DigitalCovidCertificate{}
	}
	return *c.HealthCertificate.DCC
}

func (c Claims) FirstName() string {
	name := c.DCC().Name
	if name.GivenName != "" {
		return name.GivenName
	}
	return name.GivenNameStd
}

func (c Claims) LastName() string {
	name := c.DCC().Name
	if name.FamilyName != "" {
		return name.FamilyName
	}
	return name.FamilyNameStd
}

func (c Claims) DateOfBirth() time.Time {
	dob, _ := ParseDateOfBirth(c.DCC().DateOfBirth)
	return dob
}

// DiseaseCodes lists the target disease of every statement in the
// certificate.
func (c Claims) DiseaseCodes() []string {
	dcc := c.DCC()
	codes := make([]string, 0, len(dcc.Tests)+len(dcc.Vaccinations)+len(dcc.Recoveries))
	for _, t := range dcc.Tests {
		codes = append(codes, t.Target)
	}
	for _, v := range dcc.Vaccinations {
		codes = append(codes, v.Target)
	}
	for _, r := range dcc.Recoveries {
		codes = append(codes, r.Target)
	}
	return codes
}

// HashableEncodedData returns the first certificate identifier among tests,
// vaccinations and recoveries. A vaccination identifier carries its dose
// number so each dose of a course is distinct.
func (c Claims) HashableEncodedData() (string, bool) {
	dcc := c.DCC()
	for _, t := range dcc.Tests {
		if t.CertificateID != "" {
			return t.CertificateID, true
		}
	}
	for _, v := range dcc.Vaccinations {
		if v.CertificateID != "" {
			return v.CertificateID + strconv.Itoa(v.DoseNumber), true
		}
	}
	for _, r := range dcc.Recoveries {
		if r.CertificateID != "" {
			return r.CertificateID, true
		}
	}
	return "", false
}
