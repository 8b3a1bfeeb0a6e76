package internal

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/blocky/hcert/pkg/hcert_error"
)

type SigningAlgorithm int

const (
	BadOrMissingAlgorithm SigningAlgorithm = iota
	ES256
	ES384
	ES512
	PS256
)

func (a SigningAlgorithm) String() string {
	switch a {
	case ES256:
		return "ES256"
	case ES384:
		return "ES384"
	case ES512:
		return "ES512"
	case PS256:
		return "PS256"
	default:
		return "unknown"
	}
}

// https://www.iana.org/assignments/cose/cose.xhtml#algorithms
func signingAlgorithmFromInt(alg int64) SigningAlgorithm {
	switch alg {
	case -7:
		return ES256
	case -35:
		return ES384
	case -36:
		return ES512
	case -37:
		return PS256
	default:
		return BadOrMissingAlgorithm
	}
}

func signingAlgorithmFromString(alg string) SigningAlgorithm {
	switch alg {
	case "ES256":
		return ES256
	case "ES384":
		return ES384
	case "ES512":
		return ES512
	case "PS256":
		return PS256
	default:
		return BadOrMissingAlgorithm
	}
}

func (a SigningAlgorithm) hash() crypto.Hash {
	switch a {
	case ES256, PS256:
		return crypto.SHA256
	case ES384:
		return crypto.SHA384
	case ES512:
		return crypto.SHA512
	default:
		return 0
	}
}

func (a SigningAlgorithm) curveName() string {
	switch a {
	case ES256:
		return "P-256"
	case ES384:
		return "P-384"
	case ES512:
		return "P-521"
	default:
		return ""
	}
}

// SigningAlgorithm reads the algorithm from the protected header. An
// algorithm in the unprotected header is not covered by the signature and is
// ignored.
func (e Envelope) SigningAlgorithm() (SigningAlgorithm, error) {
	raw, ok := e.ProtectedHeader[HeaderLabelAlgorithm]
	if !ok {
		return BadOrMissingAlgorithm,
			fmt.Errorf("%w: missing protected alg", hcert_error.ErrUnsupportedAlgorithm)
	}

	var alg interface{}
	err := cbor.Unmarshal(raw, &alg)
	if nil != err {
		return BadOrMissingAlgorithm,
			fmt.Errorf("%w: unmarshaling alg: %w", hcert_error.ErrUnsupportedAlgorithm, err)
	}

	signingAlg := BadOrMissingAlgorithm
	switch a := alg.(type) {
	case int64:
		signingAlg = signingAlgorithmFromInt(a)
	case string:
		signingAlg = signingAlgorithmFromString(a)
	}

	if signingAlg == BadOrMissingAlgorithm {
		return BadOrMissingAlgorithm,
			fmt.Errorf("%w: '%v'", hcert_error.ErrUnsupportedAlgorithm, alg)
	}
	return signingAlg, nil
}

// https://datatracker.ietf.org/doc/html/rfc9052#section-4.4
type sigStructure struct {
	_ struct{} `cbor:",toarray"`

	Context     string
	Protected   []byte
	ExternalAAD []byte
	Payload     []byte
}

// SigStructure builds the Signature1 structure that a COSE_Sign1 signature
// covers. Nil inputs are encoded as empty byte strings, never as CBOR null.
func SigStructure(protected, payload []byte) ([]byte, error) {
	if protected == nil {
		protected = []byte{}
	}
	if payload == nil {
		payload = []byte{}
	}

	sigStructBytes, err := cbor.Marshal(&sigStructure{
		Context:     "Signature1",
		Protected:   protected,
		ExternalAAD: []byte{},
		Payload:     payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling cose signature struct: %w", err)
	}
	return sigStructBytes, nil
}

// VerifySignature checks the envelope signature with the issuer key and
// returns the Sig_structure it was computed over.
func VerifySignature(
	envelope Envelope,
	publicKey crypto.PublicKey,
) ([]byte, error) {
	if publicKey == nil {
		return nil, hcert_error.ErrKeyNotFound
	}

	signingAlg, err := envelope.SigningAlgorithm()
	if err != nil {
		return nil, fmt.Errorf("extracting signing algorithm: %w", err)
	}

	sigStructBytes, err := SigStructure(envelope.Protected, envelope.Payload)
	if err != nil {
		return nil, err
	}

	switch key := publicKey.(type) {
	case *ecdsa.PublicKey:
		err = checkECDSASignature(signingAlg, key, sigStructBytes, envelope.Signature)
	case *rsa.PublicKey:
		err = checkPSSSignature(signingAlg, key, sigStructBytes, envelope.Signature)
	default:
		err = fmt.Errorf(
			"%w: unsupported public key type %T",
			hcert_error.ErrUnsupportedAlgorithm,
			publicKey,
		)
	}
	if err != nil {
		return nil, err
	}
	return sigStructBytes, nil
}

func checkECDSASignature(
	signingAlg SigningAlgorithm,
	publicKey *ecdsa.PublicKey,
	sigStruct, signature []byte,
) error {
	if publicKey.Curve == nil || signingAlg.curveName() == "" ||
		publicKey.Curve.Params().Name != signingAlg.curveName() {
		return fmt.Errorf(
			"%w: cose signing alg '%v' does not match public key",
			hcert_error.ErrUnsupportedAlgorithm,
			signingAlg,
		)
	}

	keyLen := (publicKey.Curve.Params().BitSize + 7) / 8
	if len(signature) != 2*keyLen {
		return fmt.Errorf(
			"%w: expected signature len '%v' got '%v'",
			hcert_error.ErrSignatureMismatch,
			2*keyLen,
			len(signature),
		)
	}

	r := new(big.Int).SetBytes(signature[:keyLen])
	s := new(big.Int).SetBytes(signature[keyLen:])
	if !ecdsa.Verify(publicKey, digest(signingAlg.hash(), sigStruct), r, s) {
		return fmt.Errorf("%w: failed to verify ecdsa signature", hcert_error.ErrSignatureMismatch)
	}
	return nil
}

func checkPSSSignature(
	signingAlg SigningAlgorithm,
	publicKey *rsa.PublicKey,
	sigStruct, signature []byte,
) error {
	if signingAlg != PS256 {
		return fmt.Errorf(
			"%w: cose signing alg '%v' does not match rsa public key",
			hcert_error.ErrUnsupportedAlgorithm,
			signingAlg,
		)
	}

	err := rsa.VerifyPSS(
		publicKey,
		crypto.SHA256,
		digest(crypto.SHA256, sigStruct),
		signature,
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash},
	)
	if err != nil {
		return fmt.Errorf("%w: %w", hcert_error.ErrSignatureMismatch, err)
	}
	return nil
}

func digest(hash crypto.Hash, data []byte) []byte {
	switch hash {
	case crypto.SHA256:
		h := sha256.Sum256(data)
		return h[:]
	case crypto.SHA384:
		h := sha512.Sum384(data)
		return h[:]
	case crypto.SHA512:
		h := sha512.Sum512(data)
		return h[:]
	default:
		return nil
	}
}
