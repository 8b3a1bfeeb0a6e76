package internal_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veraison/go-cose"

	"github.com/blocky/hcert/internal"
	"github.com/blocky/hcert/internal/certtest"
	"github.com/blocky/hcert/pkg/hcert_error"
)

var allAlgorithms = []struct {
	name string
	alg  cose.Algorithm
	want internal.SigningAlgorithm
}{
	{"ES256", cose.AlgorithmES256, internal.ES256},
	{"ES384", cose.AlgorithmES384, internal.ES384},
	{"ES512", cose.AlgorithmES512, internal.ES512},
	{"PS256", cose.AlgorithmPS256, internal.PS256},
}

func makeEnvelope(t *testing.T, coseBytes []byte) internal.Envelope {
	coseSign1, err := internal.MakeCoseSign1FromBytes(coseBytes)
	require.NoError(t, err)
	envelope, err := internal.MakeEnvelope(coseSign1)
	require.NoError(t, err)
	return envelope
}

func signedEnvelope(
	t *testing.T,
	signer certtest.Signer,
	payload []byte,
) internal.Envelope {
	coseBytes, err := signer.Sign1(payload, certtest.KeyIDProtected)
	require.NoError(t, err)
	return makeEnvelope(t, coseBytes)
}

func newSigner(t *testing.T, alg cose.Algorithm) certtest.Signer {
	signer, err := certtest.NewSigner(alg)
	require.NoError(t, err)
	return signer
}

func TestSigStructure(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		// given
		want := []byte{
			0x84,
			0x6A, 'S', 'i', 'g', 'n', 'a', 't', 'u', 'r', 'e', '1',
			0x43, 0xA1, 0x01, 0x26,
			0x40,
			0x41, 0x01,
		}

		// when
		got, err := internal.SigStructure([]byte{0xA1, 0x01, 0x26}, []byte{0x01})

		// then
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("nil protected is an empty byte string", func(t *testing.T) {
		// given
		want := []byte{
			0x84,
			0x6A, 'S', 'i', 'g', 'n', 'a', 't', 'u', 'r', 'e', '1',
			0x40,
			0x40,
			0x41, 0x01,
		}

		// when
		got, err := internal.SigStructure(nil, []byte{0x01})

		// then
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestEnvelope_SigningAlgorithm(t *testing.T) {
	for _, tt := range allAlgorithms {
		t.Run("happy path - "+tt.name, func(t *testing.T) {
			// given
			envelope := signedEnvelope(t, newSigner(t, tt.alg), []byte("payload"))

			// when
			got, err := envelope.SigningAlgorithm()

			// then
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.name, got.String())
		})
	}

	t.Run("happy path - text algorithm", func(t *testing.T) {
		// given
		signer := newSigner(t, cose.AlgorithmES256)
		coseBytes, err := signer.SignRaw(
			map[int64]interface{}{1: "ES256", 4: signer.KeyID},
			nil,
			[]byte("payload"),
		)
		require.NoError(t, err)
		envelope := makeEnvelope(t, coseBytes)

		// when
		got, err := envelope.SigningAlgorithm()

		// then
		require.NoError(t, err)
		assert.Equal(t, internal.ES256, got)
	})

	errorTests := []struct {
		name        string
		protected   map[int64]interface{}
		unprotected map[int64]interface{}
	}{
		{"missing", map[int64]interface{}{}, nil},
		{"only unprotected", map[int64]interface{}{}, map[int64]interface{}{1: -7}},
		{"unknown code", map[int64]interface{}{1: -8}, nil},
		{"unknown name", map[int64]interface{}{1: "EdDSA"}, nil},
		{"wrong type", map[int64]interface{}{1: []byte{0x26}}, nil},
	}
	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			signer := newSigner(t, cose.AlgorithmES256)
			tt.protected[4] = signer.KeyID
			coseBytes, err := signer.SignRaw(tt.protected, tt.unprotected, []byte("payload"))
			require.NoError(t, err)
			envelope := makeEnvelope(t, coseBytes)

			// when
			got, err := envelope.SigningAlgorithm()

			// then
			assert.ErrorIs(t, err, hcert_error.ErrUnsupportedAlgorithm)
			assert.Equal(t, internal.BadOrMissingAlgorithm, got)
		})
	}
}

func TestVerifySignature(t *testing.T) {
	for _, tt := range allAlgorithms {
		t.Run("happy path - "+tt.name, func(t *testing.T) {
			// given
			signer := newSigner(t, tt.alg)
			envelope := signedEnvelope(t, signer, []byte("payload"))

			// when
			sigStruct, err := internal.VerifySignature(envelope, signer.Certificate.PublicKey)

			// then
			require.NoError(t, err)
			want, err := internal.SigStructure(envelope.Protected, envelope.Payload)
			require.NoError(t, err)
			assert.Equal(t, want, sigStruct)
		})
	}

	t.Run("happy path - key id in unprotected header", func(t *testing.T) {
		// given
		signer := newSigner(t, cose.AlgorithmES256)
		coseBytes, err := signer.Sign1([]byte("payload"), certtest.KeyIDUnprotected)
		require.NoError(t, err)
		envelope := makeEnvelope(t, coseBytes)

		// when
		_, err = internal.VerifySignature(envelope, signer.Certificate.PublicKey)

		// then
		assert.NoError(t, err)
		assert.Equal(t, internal.KeyIDInUnprotected, envelope.KeyIDLocation)
	})

	t.Run("repeatable", func(t *testing.T) {
		// given
		signer := newSigner(t, cose.AlgorithmES256)
		envelope := signedEnvelope(t, signer, []byte("payload"))

		// when
		first, err1 := internal.VerifySignature(envelope, signer.Certificate.PublicKey)
		second, err2 := internal.VerifySignature(envelope, signer.Certificate.PublicKey)

		// then
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, first, second)
	})

	for _, tt := range allAlgorithms {
		t.Run("flipped signature byte - "+tt.name, func(t *testing.T) {
			// given
			signer := newSigner(t, tt.alg)
			envelope := signedEnvelope(t, signer, []byte("payload"))

			for i := range envelope.Signature {
				tampered := envelope
				tampered.Signature = append([]byte{}, envelope.Signature...)
				tampered.Signature[i] ^= 0x01

				// when
				_, err := internal.VerifySignature(tampered, signer.Certificate.PublicKey)

				// then
				require.ErrorIs(t, err, hcert_error.ErrSignatureMismatch, "byte %d", i)
			}
		})
	}

	t.Run("flipped content byte", func(t *testing.T) {
		// given
		signer := newSigner(t, cose.AlgorithmES256)
		envelope := signedEnvelope(t, signer, []byte("some signed content"))

		for i := range envelope.Payload {
			tampered := envelope
			tampered.Payload = append([]byte{}, envelope.Payload...)
			tampered.Payload[i] ^= 0x01

			// when
			_, err := internal.VerifySignature(tampered, signer.Certificate.PublicKey)

			// then
			require.ErrorIs(t, err, hcert_error.ErrSignatureMismatch, "byte %d", i)
		}
	})

	t.Run("truncated signature", func(t *testing.T) {
		// given
		signer := newSigner(t, cose.AlgorithmES256)
		envelope := signedEnvelope(t, signer, []byte("payload"))
		envelope.Signature = envelope.Signature[:len(envelope.Signature)-1]

		// when
		_, err := internal.VerifySignature(envelope, signer.Certificate.PublicKey)

		// then
		assert.ErrorIs(t, err, hcert_error.ErrSignatureMismatch)
		assert.ErrorContains(t, err, "expected signature len")
	})

	t.Run("other issuer key", func(t *testing.T) {
		// given
		signer := newSigner(t, cose.AlgorithmES256)
		other := newSigner(t, cose.AlgorithmES256)
		envelope := signedEnvelope(t, signer, []byte("payload"))

		// when
		_, err := internal.VerifySignature(envelope, other.Certificate.PublicKey)

		// then
		assert.ErrorIs(t, err, hcert_error.ErrSignatureMismatch)
	})

	t.Run("other issuer key - PS256", func(t *testing.T) {
		// given
		signer := newSigner(t, cose.AlgorithmPS256)
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		envelope := signedEnvelope(t, signer, []byte("payload"))

		// when
		_, err = internal.VerifySignature(envelope, &other.PublicKey)

		// then
		assert.ErrorIs(t, err, hcert_error.ErrSignatureMismatch)
	})

	t.Run("nil key", func(t *testing.T) {
		// given
		envelope := signedEnvelope(t, newSigner(t, cose.AlgorithmES256), []byte("payload"))

		// when
		_, err := internal.VerifySignature(envelope, nil)

		// then
		assert.ErrorIs(t, err, hcert_error.ErrKeyNotFound)
	})

	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	edKey, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	mismatchTests := []struct {
		name string
		alg  cose.Algorithm
		key  interface{}
	}{
		{"ES256 with P-384 key", cose.AlgorithmES256, &p384.PublicKey},
		{"ES256 with rsa key", cose.AlgorithmES256, &rsaKey.PublicKey},
		{"PS256 with ecdsa key", cose.AlgorithmPS256, &p384.PublicKey},
		{"ES256 with ed25519 key", cose.AlgorithmES256, edKey},
	}
	for _, tt := range mismatchTests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			envelope := signedEnvelope(t, newSigner(t, tt.alg), []byte("payload"))

			// when
			_, err := internal.VerifySignature(envelope, tt.key)

			// then
			assert.ErrorIs(t, err, hcert_error.ErrUnsupportedAlgorithm)
		})
	}

	t.Run("missing algorithm", func(t *testing.T) {
		// given
		signer := newSigner(t, cose.AlgorithmES256)
		coseBytes, err := signer.SignRaw(
			map[int64]interface{}{4: signer.KeyID},
			map[int64]interface{}{1: -7},
			[]byte("payload"),
		)
		require.NoError(t, err)
		envelope := makeEnvelope(t, coseBytes)

		// when
		_, err = internal.VerifySignature(envelope, signer.Certificate.PublicKey)

		// then
		assert.ErrorIs(t, err, hcert_error.ErrUnsupportedAlgorithm)
		assert.ErrorContains(t, err, "extracting signing algorithm")
	})
}
