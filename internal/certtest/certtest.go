// Package certtest builds signed health certificates for tests.
package certtest

import (
	"bytes"
	"compress/zlib"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/minvws/base45-go/eubase45"
	"github.com/veraison/go-cose"

	"github.com/blocky/hcert/internal"
)

type KeyIDPlacement int

const (
	KeyIDProtected KeyIDPlacement = iota
	KeyIDUnprotected
	KeyIDOmitted
)

// Signer is a document signer with a self-signed certificate.
type Signer struct {
	Algorithm   cose.Algorithm
	Key         crypto.Signer
	Certificate *x509.Certificate
	KeyID       []byte
}

func NewSigner(alg cose.Algorithm) (Signer, error) {
	var key crypto.Signer
	var err error
	switch alg {
	case cose.AlgorithmES256:
		key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case cose.AlgorithmES384:
		key, err = ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	case cose.AlgorithmES512:
		key, err = ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	case cose.AlgorithmPS256:
		key, err = rsa.GenerateKey(rand.Reader, 2048)
	default:
		return Signer{}, fmt.Errorf("unsupported algorithm '%v'", alg)
	}
	if err != nil {
		return Signer{}, fmt.Errorf("generating key: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "DSC test signer"},
		NotBefore:    time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2040, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, key.Public(), key)
	if err != nil {
		return Signer{}, fmt.Errorf("creating certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return Signer{}, fmt.Errorf("parsing certificate: %w", err)
	}

	return Signer{
		Algorithm:   alg,
		Key:         key,
		Certificate: cert,
		KeyID:       internal.KeyIDForCertificate(cert),
	}, nil
}

// PEM returns the signer certificate PEM encoded.
func (s Signer) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: s.Certificate.Raw,
	})
}

func (s Signer) TrustList() *internal.TrustList {
	tl := internal.NewTrustList()
	_ = tl.AddCertificate(s.Certificate)
	return tl
}

// Sign1 signs payload with go-cose and returns the tagged COSE_Sign1 bytes.
func (s Signer) Sign1(payload []byte, placement KeyIDPlacement) ([]byte, error) {
	signer, err := cose.NewSigner(s.Algorithm, s.Key)
	if err != nil {
		return nil, fmt.Errorf("creating cose signer: %w", err)
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(s.Algorithm)
	switch placement {
	case KeyIDProtected:
		msg.Headers.Protected[cose.HeaderLabelKeyID] = s.KeyID
	case KeyIDUnprotected:
		msg.Headers.Unprotected[cose.HeaderLabelKeyID] = s.KeyID
	}
	msg.Payload = payload

	err = msg.Sign(rand.Reader, nil, signer)
	if err != nil {
		return nil, fmt.Errorf("signing cose message: %w", err)
	}
	return msg.MarshalCBOR()
}

type rawSign1 struct {
	_ struct{} `cbor:",toarray"`

	Protected   []byte
	Unprotected map[int64]interface{}
	Payload     []byte
	Signature   []byte
}

// SignRaw signs with this package's own Sig_structure and an ECDSA key, for
// envelopes go-cose refuses to build, such as a key id in both buckets.
func (s Signer) SignRaw(
	protected map[int64]interface{},
	unprotected map[int64]interface{},
	payload []byte,
) ([]byte, error) {
	key, ok := s.Key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("raw signing needs an ecdsa key")
	}

	protectedBytes, err := cbor.Marshal(protected)
	if err != nil {
		return nil, fmt.Errorf("marshaling protected header: %w", err)
	}
	sigStruct, err := internal.SigStructure(protectedBytes, payload)
	if err != nil {
		return nil, err
	}

	var digest []byte
	switch key.Curve.Params().Name {
	case "P-256":
		h := sha256.Sum256(sigStruct)
		digest = h[:]
	case "P-384":
		h := sha512.Sum384(sigStruct)
		digest = h[:]
	default:
		h := sha512.Sum512(sigStruct)
		digest = h[:]
	}

	r, sig, err := ecdsa.Sign(rand.Reader, key, digest)
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	keyLen := (key.Curve.Params().BitSize + 7) / 8
	signature := make([]byte, 2*keyLen)
	r.FillBytes(signature[:keyLen])
	sig.FillBytes(signature[keyLen:])

	if unprotected == nil {
		unprotected = map[int64]interface{}{}
	}
	return cbor.Marshal(rawSign1{
		Protected:   protectedBytes,
		Unprotected: unprotected,
		Payload:     payload,
		Signature:   signature,
	})
}

// Encode wraps COSE bytes the way they are carried in a QR code.
func Encode(coseBytes []byte, compress bool, prefix bool) (string, error) {
	data := coseBytes
	if compress {
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return "", fmt.Errorf("creating zlib writer: %w", err)
		}
		_, err = zw.Write(coseBytes)
		if err != nil {
			return "", fmt.Errorf("compressing: %w", err)
		}
		err = zw.Close()
		if err != nil {
			return "", fmt.Errorf("closing zlib writer: %w", err)
		}
		data = buf.Bytes()
	}

	encoded := string(eubase45.EUBase45Encode(data))
	if prefix {
		encoded = internal.HC1Prefix + encoded
	}
	return encoded, nil
}

// Wire signs claims with the key id in the protected header and
// returns the prefixed, compressed wire string.
func (s Signer) Wire(claims internal.Claims) (string, error) {
	payload, err := cbor.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshaling claims: %w", err)
	}
	coseBytes, err := s.Sign1(payload, KeyIDProtected)
	if err != nil {
		return "", err
	}
	return Encode(coseBytes, true, true)
}

func NewClaims(
	dcc internal.DigitalCovidCertificate,
	issuedAt time.Time,
	expiration time.Time,
) internal.Claims {
	return internal.Claims{
		Issuer:     "AT",
		IssuedAt:   internal.NumericDate(issuedAt.Unix()),
		Expiration: internal.NumericDate(expiration.Unix()),
		HealthCertificate: &internal.HealthCertificate{
			DCC: &dcc,
		},
	}
}

func holder() internal.DigitalCovidCertificate {
	return internal.DigitalCovidCertificate{
		Version: "1.3.0",
		Name: internal.Name{
			FamilyName:    "Musterfrau",
			FamilyNameStd: "MUSTERFRAU",
			GivenName:     "Gabriele",
			GivenNameStd:  "GABRIELE",
		},
		DateOfBirth: "1998-02-26",
	}
}

func HolderPerson() internal.Person {
	return internal.Person{
		FirstName:   "Gabriele",
		LastName:    "Musterfrau",
		DateOfBirth: time.Date(1998, time.February, 26, 0, 0, 0, 0, time.UTC),
	}
}

func Vaccination(product string, dose, series int, date string) internal.DigitalCovidCertificate {
	dcc := holder()
	dcc.Vaccinations = []internal.VaccinationEntry{{
		Target:             internal.DiseaseCOVID19Code,
		Vaccine:            "1119349007",
		Product:            product,
		Manufacturer:       "ORG-100030215",
		DoseNumber:         dose,
		TotalSeriesOfDoses: series,
		Date:               date,
		Country:            "AT",
		Issuer:             "Ministry of Health, Austria",
		CertificateID:      "URN:UVCI:01:AT:10807843F94AEE0EE5093FBC254BD813#B",
	}}
	return dcc
}

func Test(testType, result, sampleTime string) internal.DigitalCovidCertificate {
	dcc := holder()
	dcc.Tests = []internal.TestEntry{{
		Target:        internal.DiseaseCOVID19Code,
		TestType:      testType,
		SampleTime:    sampleTime,
		Result:        result,
		TestingCentre: "Testing centre Vienna 1",
		Country:       "AT",
		Issuer:        "Ministry of Health, Austria",
		CertificateID: "URN:UVCI:01:AT:71EE2559DE38C6BF7304FB65A1A451EC#3",
	}}
	return dcc
}

func Recovery(firstPositive, validFrom, validUntil string) internal.DigitalCovidCertificate {
	dcc := holder()
	dcc.Recoveries = []internal.RecoveryEntry{{
		Target:            internal.DiseaseCOVID19Code,
		FirstPositiveDate: firstPositive,
		Country:           "AT",
		Issuer:            "Ministry of Health, Austria",
		ValidFrom:         validFrom,
		ValidUntil:        validUntil,
		CertificateID:     "URN:UVCI:01:AT:858CC18CFCF5965EF82F60E493349AA5#K",
	}}
	return dcc
}
