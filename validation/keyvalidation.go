package validation

import (
	"fmt"

	"github.com/cloudx-io/openallocation/allocapi"
)

// ValidateKeyResponse checks a published signing key:
// - PEM holds an ECDSA P-256 key
// - Key and signature algorithms are the ones reports are signed with
// - Key id is derived from the key (see allocapi.KeyID)
func ValidateKeyResponse(resp *allocapi.KeyResponse) (*KeyValidationResult, error) {
	if resp == nil {
		return nil, fmt.Errorf("key response is required")
	}

	result := &KeyValidationResult{}

	publicKey, err := ParsePublicKeyPEM(resp.PublicKey)
	if err != nil {
		result.addDetail(fmt.Sprintf("Public key invalid: %v", err))
	} else {
		result.KeyFormatValid = true
		result.addDetail("Public key is ECDSA P-256")
	}

	if resp.KeyAlgorithm == allocapi.ReportKeyAlgorithm && resp.SigAlgorithm == allocapi.ReportSignatureAlgorithm {
		result.AlgorithmValid = true
		result.addDetail(fmt.Sprintf("Algorithms valid: %s / %s", resp.KeyAlgorithm, resp.SigAlgorithm))
	} else {
		result.addDetail(fmt.Sprintf("Algorithm mismatch: got %s / %s, want %s / %s",
			resp.KeyAlgorithm, resp.SigAlgorithm, allocapi.ReportKeyAlgorithm, allocapi.ReportSignatureAlgorithm))
	}

	if publicKey != nil {
		expected, err := allocapi.KeyID(publicKey)
		if err != nil {
			return nil, err
		}
		if expected == resp.KeyID {
			result.KeyIDMatch = true
			result.addDetail(fmt.Sprintf("Key id matches public key: %s", expected))
		} else {
			result.addDetail(fmt.Sprintf("Key id mismatch: computed %s, response has %s", expected, resp.KeyID))
		}
	}

	return result, nil
}
