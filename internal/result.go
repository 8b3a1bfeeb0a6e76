package internal

// Result is a successful verification result of a certificate.
type Result struct {
	// Document is the classified certificate.
	Document *Document `json:"document,omitempty"`

	// KeyID identifies the issuer key the signature was checked against.
	KeyID []byte `json:"kid,omitempty"`
	// KeyIDLocation is the header bucket the key identifier was read from.
	KeyIDLocation KeyIDLocation `json:"-"`

	// Protected section from the COSE Sign1 payload.
	Protected []byte `json:"protected,omitempty"`
	// Payload section from the COSE Sign1 payload.
	Payload []byte `json:"payload,omitempty"`
	// Signature section from the COSE Sign1 payload.
	Signature []byte `json:"signature,omitempty"`

	// COSESign1 contains the COSE Signature Structure which was used to
	// calculate the `Signature`. It is empty when the signature check was
	// skipped.
	COSESign1 []byte `json:"cose_sign1,omitempty"`
}
