package internal

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/blocky/hcert/pkg/hcert_error"
)

// https://datatracker.ietf.org/doc/html/rfc9052#section-3.1
const (
	HeaderLabelAlgorithm int64 = 1
	HeaderLabelKeyID     int64 = 4
)

// Leading tags a COSE_Sign1 may be wrapped in: 18 (COSE_Sign1) and 61 (CWT).
var (
	coseSign1Tag = []byte{0xD2}
	cwtTag       = []byte{0xD8, 0x3D}
)

// https://datatracker.ietf.org/doc/html/rfc9052#section-4.2
type CoseSign1 struct {
	_ struct{} `cbor:",toarray"`

	Protected   []byte
	Unprotected cbor.RawMessage
	Payload     []byte
	Signature   []byte
}

func MakeCoseSign1FromBytes(data []byte) (CoseSign1, error) {
	data = untag(data)

	coseSign1 := CoseSign1{}
	err := cbor.Unmarshal(data, &coseSign1)
	if nil != err {
		return CoseSign1{}, fmt.Errorf("%w: %w", hcert_error.ErrMalformedStructure, err)
	}

	if len(coseSign1.Payload) == 0 {
		return CoseSign1{}, fmt.Errorf("%w: missing cose payload", hcert_error.ErrMalformedStructure)
	}

	if len(coseSign1.Signature) == 0 {
		return CoseSign1{}, fmt.Errorf("%w: missing cose signature", hcert_error.ErrMalformedStructure)
	}
	return coseSign1, nil
}

func untag(data []byte) []byte {
	for {
		switch {
		case bytes.HasPrefix(data, cwtTag):
			data = data[len(cwtTag):]
		case bytes.HasPrefix(data, coseSign1Tag):
			data = data[len(coseSign1Tag):]
		default:
			return data
		}
	}
}

// Header is a COSE header map restricted to integer labels.
type Header map[int64]cbor.RawMessage

// ParseHeader decodes a CBOR map into a Header. Empty input is an empty
// header, which is how COSE encodes an empty protected bucket.
func ParseHeader(data []byte) (Header, error) {
	header := Header{}
	if len(data) == 0 {
		return header, nil
	}

	raw := map[interface{}]cbor.RawMessage{}
	err := cbor.Unmarshal(data, &raw)
	if nil != err {
		return nil, fmt.Errorf("%w: %w", hcert_error.ErrMalformedStructure, err)
	}

	for label, value := range raw {
		switch l := label.(type) {
		case int64:
			header[l] = value
		case uint64:
			if l <= 1<<63-1 {
				header[int64(l)] = value
			}
		}
	}
	return header, nil
}

// Bytes returns the byte string stored under label.
func (h Header) Bytes(label int64) ([]byte, bool) {
	value, ok := h[label]
	if !ok {
		return nil, false
	}

	var b []byte
	if err := cbor.Unmarshal(value, &b); err != nil {
		return nil, false
	}
	return b, true
}

type KeyIDLocation int

const (
	KeyIDNotFound KeyIDLocation = iota
	KeyIDInProtected
	KeyIDInUnprotected
)

func (l KeyIDLocation) String() string {
	switch l {
	case KeyIDInProtected:
		return "protected"
	case KeyIDInUnprotected:
		return "unprotected"
	default:
		return "not found"
	}
}

type KeyIDLookup struct {
	Location KeyIDLocation
	KeyID    []byte
}

func (l KeyIDLookup) Found() bool {
	return l.Location != KeyIDNotFound
}

// LookupKeyID finds the key identifier, preferring the protected header.
func LookupKeyID(protected, unprotected Header) KeyIDLookup {
	if kid, ok := protected.Bytes(HeaderLabelKeyID); ok && len(kid) > 0 {
		return KeyIDLookup{Location: KeyIDInProtected, KeyID: kid}
	}
	if kid, ok := unprotected.Bytes(HeaderLabelKeyID); ok && len(kid) > 0 {
		return KeyIDLookup{Location: KeyIDInUnprotected, KeyID: kid}
	}
	return KeyIDLookup{Location: KeyIDNotFound}
}

// Envelope is a decoded COSE_Sign1 with both header buckets parsed and the
// key identifier resolved. Protected and Payload keep their original bytes
// since the signature covers them verbatim.
type Envelope struct {
	Protected       []byte
	ProtectedHeader Header
	Unprotected     Header
	Payload         []byte
	Signature       []byte

	KeyID         []byte
	KeyIDLocation KeyIDLocation
}

func MakeEnvelope(coseSign1 CoseSign1) (Envelope, error) {
	protected, err := ParseHeader(coseSign1.Protected)
	if err != nil {
		return Envelope{}, fmt.Errorf("parsing protected header: %w", err)
	}

	unprotected, err := ParseHeader(coseSign1.Unprotected)
	if err != nil {
		return Envelope{}, fmt.Errorf("parsing unprotected header: %w", err)
	}

	lookup := LookupKeyID(protected, unprotected)
	if !lookup.Found() {
		return Envelope{}, hcert_error.ErrMissingKeyIdentifier
	}

	return Envelope{
		Protected:       coseSign1.Protected,
		ProtectedHeader: protected,
		Unprotected:     unprotected,
		Payload:         coseSign1.Payload,
		Signature:       coseSign1.Signature,
		KeyID:           lookup.KeyID,
		KeyIDLocation:   lookup.Location,
	}, nil
}
