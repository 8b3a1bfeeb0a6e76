package internal

import (
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"sync"

	"github.com/blocky/hcert/pkg/hcert_error"
)

// KeyIDLen is the length of a key identifier derived from a signer
// certificate thumbprint.
const KeyIDLen = 8

// KeyResolver finds the issuer key for a key identifier. Unknown
// identifiers should be reported as hcert_error.ErrKeyNotFound; other
// failures are wrapped with it by Verify.
type KeyResolver interface {
	ResolveIssuerKey(kid []byte) (crypto.PublicKey, error)
}

// KeyIDForCertificate returns the leading bytes of the SHA-256 thumbprint of
// a DER encoded signer certificate.
func KeyIDForCertificate(cert *x509.Certificate) []byte {
	thumbprint := sha256.Sum256(cert.Raw)
	return thumbprint[:KeyIDLen]
}

// TrustList is an in-memory KeyResolver. Keys are loaded by whoever fetches
// the issuer trust list; TrustList only answers lookups.
type TrustList struct {
	mu   sync.RWMutex
	keys map[string]crypto.PublicKey
}

func NewTrustList() *TrustList {
	return &TrustList{keys: map[string]crypto.PublicKey{}}
}

func (tl *TrustList) AddKey(kid []byte, key crypto.PublicKey) error {
	if len(kid) == 0 {
		return fmt.Errorf("empty key identifier")
	}
	if key == nil {
		return fmt.Errorf("nil key for kid '%s'", hex.EncodeToString(kid))
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.keys[string(kid)] = key
	return nil
}

func (tl *TrustList) AddCertificate(cert *x509.Certificate) error {
	return tl.AddKey(KeyIDForCertificate(cert), cert.PublicKey)
}

func (tl *TrustList) AddDERCertificate(derCert []byte) error {
	cert, err := x509.ParseCertificate(derCert)
	if err != nil {
		return fmt.Errorf("parsing certificate: %w", err)
	}
	return tl.AddCertificate(cert)
}

// AddPEMCertificates adds every CERTIFICATE block in pemCerts and returns
// how many were added.
func (tl *TrustList) AddPEMCertificates(pemCerts []byte) (int, error) {
	added := 0
	for len(pemCerts) > 0 {
		var block *pem.Block
		block, pemCerts = pem.Decode(pemCerts)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		err := tl.AddDERCertificate(block.Bytes)
		if err != nil {
			return added, err
		}
		added++
	}

	if added == 0 {
		return 0, fmt.Errorf("appending cert: no certificates found")
	}
	return added, nil
}

func (tl *TrustList) Len() int {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	return len(tl.keys)
}

func (tl *TrustList) ResolveIssuerKey(kid []byte) (crypto.PublicKey, error) {
	tl.mu.RLock()
	defer tl.mu.RUnlock()

	key, ok := tl.keys[string(kid)]
	if !ok {
		return nil, fmt.Errorf(
			"%w: '%s'",
			hcert_error.ErrKeyNotFound,
			hex.EncodeToString(kid),
		)
	}
	return key, nil
}
