package hcert_error

import "errors"

type HcertError string

func (h HcertError) Error() string { return string(h) }

const (
	ErrInvalidEncoding      = HcertError("Data is not valid base45")
	ErrDecompression        = HcertError("Data could not be inflated")
	ErrMalformedStructure   = HcertError("Data is not a COSESign1 array")
	ErrMissingKeyIdentifier = HcertError("COSESign1 headers carry no key identifier")

	ErrKeyNotFound          = HcertError("No issuer key for key identifier")
	ErrSignatureMismatch    = HcertError("Payload's signature does not match issuer key")
	ErrUnsupportedAlgorithm = HcertError("COSESign1 algorithm not supported for issuer key")

	ErrMalformedClaims = HcertError("Payload is not a health certificate claim set")

	ErrUnsupportedDisease = HcertError("Certificate targets an unsupported disease")
	ErrIssuedInFuture     = HcertError("Certificate 'iat' is in the future")
	ErrNameMismatch       = HcertError("Certificate holder name does not match person")

	ErrExpired = HcertError("Certificate 'exp' is in the past")
)

// Kind groups errors by how a caller should react to them.
type Kind int

const (
	KindUnknown Kind = iota
	KindDecode
	KindMapping
	KindVerification
	KindValidation
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindMapping:
		return "mapping"
	case KindVerification:
		return "verification"
	case KindValidation:
		return "validation"
	case KindExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// KindOf returns the Kind of the first HcertError found in err's chain.
func KindOf(err error) Kind {
	var hErr HcertError
	if !errors.As(err, &hErr) {
		return KindUnknown
	}

	switch hErr {
	case ErrInvalidEncoding,
		ErrDecompression,
		ErrMalformedStructure,
		ErrMissingKeyIdentifier:
		return KindDecode
	case ErrMalformedClaims:
		return KindMapping
	case ErrKeyNotFound,
		ErrSignatureMismatch,
		ErrUnsupportedAlgorithm:
		return KindVerification
	case ErrUnsupportedDisease,
		ErrIssuedInFuture,
		ErrNameMismatch:
		return KindValidation
	case ErrExpired:
		return KindExpired
	default:
		return KindUnknown
	}
}
