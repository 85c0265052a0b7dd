package validation

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/openallocation/allocapi"
)

func validKeyResponse(t *testing.T) *allocapi.KeyResponse {
	t.Helper()
	key := newTestKey(t)
	keyID, err := allocapi.KeyID(&key.private.PublicKey)
	assert.NoError(t, err)

	return &allocapi.KeyResponse{
		Type:         allocapi.TypeKeyResponse,
		KeyAlgorithm: allocapi.ReportKeyAlgorithm,
		SigAlgorithm: allocapi.ReportSignatureAlgorithm,
		KeyID:        keyID,
		PublicKey:    key.pem,
	}
}

func TestValidateKeyResponse(t *testing.T) {
	result, err := ValidateKeyResponse(validKeyResponse(t))
	assert.NoError(t, err)
	check.True(t, result.KeyFormatValid)
	check.True(t, result.AlgorithmValid)
	check.True(t, result.KeyIDMatch)
	check.True(t, result.IsValid())
}

func TestValidateKeyResponse_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*allocapi.KeyResponse)
		failed func(*KeyValidationResult) bool
	}{
		{
			name:   "key id from another key",
			mutate: func(r *allocapi.KeyResponse) { r.KeyID = "0011223344556677" },
			failed: func(r *KeyValidationResult) bool { return !r.KeyIDMatch && r.KeyFormatValid },
		},
		{
			name:   "unexpected algorithm",
			mutate: func(r *allocapi.KeyResponse) { r.SigAlgorithm = "ES384" },
			failed: func(r *KeyValidationResult) bool { return !r.AlgorithmValid },
		},
		{
			name:   "malformed key",
			mutate: func(r *allocapi.KeyResponse) { r.PublicKey = "-----BEGIN PUBLIC KEY-----" },
			failed: func(r *KeyValidationResult) bool { return !r.KeyFormatValid && !r.KeyIDMatch },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := validKeyResponse(t)
			tt.mutate(resp)

			result, err := ValidateKeyResponse(resp)
			assert.NoError(t, err)
			check.True(t, tt.failed(result))
			check.False(t, result.IsValid())
		})
	}

	_, err := ValidateKeyResponse(nil)
	check.NotNil(t, err)
}
