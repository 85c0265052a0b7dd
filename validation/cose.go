package validation

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/openallocation/allocapi"
)

// ParsePublicKeyPEM parses a PEM "PUBLIC KEY" block holding an ECDSA P-256 key
func ParsePublicKeyPEM(publicKeyPEM string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in public key")
	}
	if block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("unexpected PEM block type %q", block.Type)
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	ecdsaKey, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ECDSA")
	}
	if ecdsaKey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("public key curve is %s, want P-256", ecdsaKey.Curve.Params().Name)
	}
	return ecdsaKey, nil
}

// ExtractCOSEPayload returns the payload of a COSE_Sign1 message without
// verifying it. Both tagged and untagged encodings are accepted.
// COSE_Sign1 structure: [protected, unprotected, payload, signature]
func ExtractCOSEPayload(coseBytes []byte) ([]byte, error) {
	var tagged cbor.RawTag
	if err := cbor.Unmarshal(coseBytes, &tagged); err == nil {
		coseBytes = tagged.Content
	}

	var coseArray []cbor.RawMessage
	if err := cbor.Unmarshal(coseBytes, &coseArray); err != nil {
		return nil, fmt.Errorf("parse COSE array: %w", err)
	}

	if len(coseArray) != 4 {
		return nil, fmt.Errorf("invalid COSE_Sign1 structure: expected 4 elements, got %d", len(coseArray))
	}

	var payload []byte
	if err := cbor.Unmarshal(coseArray[2], &payload); err != nil {
		return nil, fmt.Errorf("invalid payload in COSE structure: %w", err)
	}

	return payload, nil
}

// VerifyReportSignature checks an ES256 COSE_Sign1 report against a PEM
// public key and returns the verified payload.
func VerifyReportSignature(report allocapi.ReportCOSE, publicKeyPEM string) ([]byte, error) {
	publicKey, err := ParsePublicKeyPEM(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(report); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1: %w", err)
	}

	alg, err := msg.Headers.Protected.Algorithm()
	if err != nil {
		return nil, fmt.Errorf("read algorithm header: %w", err)
	}
	if alg != cose.AlgorithmES256 {
		return nil, fmt.Errorf("unexpected signature algorithm %v", alg)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES256, publicKey)
	if err != nil {
		return nil, fmt.Errorf("create verifier: %w", err)
	}

	if err := msg.Verify(nil, verifier); err != nil {
		return nil, fmt.Errorf("COSE signature verification failed: %w", err)
	}

	return msg.Payload, nil
}
