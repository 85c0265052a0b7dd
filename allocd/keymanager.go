package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/veraison/go-cose"

	"github.com/cloudx-io/openallocation/allocapi"
)

// reportContentType is carried in the protected header of every report.
const reportContentType = "application/cbor"

// KeyManager holds the service's ECDSA P-256 key used to sign reports
type KeyManager struct {
	privateKey *ecdsa.PrivateKey // Keep private - sensitive!
	PublicKey  *ecdsa.PublicKey
	KeyID      string
	signer     cose.Signer
}

// NewKeyManager creates a new KeyManager with a freshly generated key pair
func NewKeyManager() (*KeyManager, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}

	signer, err := cose.NewSigner(cose.AlgorithmES256, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create COSE signer: %w", err)
	}

	keyID, err := allocapi.KeyID(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key id: %w", err)
	}

	return &KeyManager{
		privateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
		KeyID:      keyID,
		signer:     signer,
	}, nil
}

// PublicKeyPEM returns the public key in PEM format
func (km *KeyManager) PublicKeyPEM() (string, error) {
	derBytes, err := x509.MarshalPKIXPublicKey(km.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	pemBlock := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derBytes,
	}

	return string(pem.EncodeToMemory(pemBlock)), nil
}

// Sign wraps payload in a tagged COSE_Sign1 message signed with ES256.
func (km *KeyManager) Sign(payload []byte) (allocapi.ReportCOSE, error) {
	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(cose.AlgorithmES256)
	msg.Headers.Protected[cose.HeaderLabelContentType] = reportContentType
	msg.Headers.Unprotected[cose.HeaderLabelKeyID] = []byte(km.KeyID)
	msg.Payload = payload

	if err := msg.Sign(rand.Reader, nil, km.signer); err != nil {
		return nil, fmt.Errorf("sign report: %w", err)
	}

	data, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("encode COSE_Sign1: %w", err)
	}
	return allocapi.ReportCOSE(data), nil
}

// HandleKeyRequest returns the public key clients use to verify reports
func HandleKeyRequest(keyManager *KeyManager) (*allocapi.KeyResponse, error) {
	if keyManager == nil {
		return nil, fmt.Errorf("key manager is nil")
	}

	publicKeyPEM, err := keyManager.PublicKeyPEM()
	if err != nil {
		return nil, fmt.Errorf("failed to export public key: %w", err)
	}

	return &allocapi.KeyResponse{
		Type:         allocapi.TypeKeyResponse,
		KeyAlgorithm: allocapi.ReportKeyAlgorithm,
		SigAlgorithm: allocapi.ReportSignatureAlgorithm,
		KeyID:        keyManager.KeyID,
		PublicKey:    publicKeyPEM,
	}, nil
}
