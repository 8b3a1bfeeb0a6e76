package internal

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/minvws/base45-go/eubase45"

	"github.com/blocky/hcert/pkg/hcert_error"
)

// HC1Prefix marks the health certificate context of a QR payload. It is
// optional on input.
const HC1Prefix = "HC1:"

// zlib CMF byte followed by the FLG bytes for the four compression levels.
const zlibCMF = 0x78

var zlibFLGs = [...]byte{0x01, 0x5E, 0x9C, 0xDA}

func StripPrefix(raw string) string {
	return strings.TrimPrefix(raw, HC1Prefix)
}

func DecodeBase45(text string) ([]byte, error) {
	decoded, err := eubase45.EUBase45Decode([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", hcert_error.ErrInvalidEncoding, err)
	}
	return decoded, nil
}

// IsCompressed reports whether data starts with a zlib header. Inputs
// shorter than the header are never compressed.
func IsCompressed(data []byte) bool {
	if len(data) < 2 || data[0] != zlibCMF {
		return false
	}
	for _, flg := range zlibFLGs {
		if data[1] == flg {
			return true
		}
	}
	return false
}

func Inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", hcert_error.ErrDecompression, err)
	}
	defer zr.Close()

	inflated, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", hcert_error.ErrDecompression, err)
	}
	return inflated, nil
}

// Decompress inflates data when it carries a zlib header and returns it
// unchanged otherwise.
func Decompress(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}
	return Inflate(data)
}

// Decode unwraps a wire string down to its COSE_Sign1 envelope and locates
// the issuer key identifier.
func Decode(raw string) (Envelope, error) {
	decoded, err := DecodeBase45(StripPrefix(raw))
	if err != nil {
		return Envelope{}, fmt.Errorf("decoding base45: %w", err)
	}

	data, err := Decompress(decoded)
	if err != nil {
		return Envelope{}, fmt.Errorf("decompressing: %w", err)
	}

	coseSign1, err := MakeCoseSign1FromBytes(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("making CoseSign1 from bytes: %w", err)
	}

	envelope, err := MakeEnvelope(coseSign1)
	if err != nil {
		return Envelope{}, fmt.Errorf("making envelope: %w", err)
	}
	return envelope, nil
}
