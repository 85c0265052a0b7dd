package allocapi

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
)

// KeyID identifies a report signing key: the leading 8 bytes of the SHA256
// of its PKIX DER encoding, hex encoded.
func KeyID(publicKey *ecdsa.PublicKey) (string, error) {
	derBytes, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	digest := sha256.Sum256(derBytes)
	return hex.EncodeToString(digest[:8]), nil
}
