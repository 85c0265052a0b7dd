package validation

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/openallocation/allocapi"
	"github.com/cloudx-io/openallocation/core"
)

const testRunID = "7d444840-9dc0-11d1-b245-5ffdce74fad2"
const testNonce = "0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"

type testKey struct {
	private *ecdsa.PrivateKey
	pem     string
}

func newTestKey(t *testing.T) *testKey {
	t.Helper()
	private, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	assert.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&private.PublicKey)
	assert.NoError(t, err)

	return &testKey{
		private: private,
		pem:     string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
	}
}

func (k *testKey) sign(t *testing.T, payload []byte) allocapi.ReportCOSE {
	t.Helper()
	signer, err := cose.NewSigner(cose.AlgorithmES256, k.private)
	assert.NoError(t, err)

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(cose.AlgorithmES256)
	msg.Payload = payload
	assert.NoError(t, msg.Sign(rand.Reader, nil, signer))

	data, err := msg.MarshalCBOR()
	assert.NoError(t, err)
	return allocapi.ReportCOSE(data)
}

// exampleRun allocates stock 10 across A 4@50, B 8@70, C 3@90 plus a no-bid row.
func exampleRun(t *testing.T) *core.RunResult {
	t.Helper()
	table := &core.Table{
		Columns: []string{"Ges.bestand", "A Adet", "A Fiyat", "B Adet", "B Fiyat", "C Adet", "C Fiyat"},
		Records: [][]string{
			{"10", "4", "50", "8", "70", "3", "90"},
			{"5", "", "", "", "", "", ""},
		},
	}
	run, err := core.Run(table, core.DefaultColumnAliases(), core.Options{})
	assert.NoError(t, err)
	return run
}

func examplePayload(run *core.RunResult) *allocapi.ReportPayload {
	hashes := make([]string, len(run.Result.Outcomes))
	for i, outcome := range run.Result.Outcomes {
		hashes[i] = core.ComputeOutcomeHash(i, outcome, testNonce)
	}
	return &allocapi.ReportPayload{
		Version:       allocapi.ReportPayloadVersion,
		RunID:         testRunID,
		Timestamp:     1700000000,
		RowCount:      len(run.Result.Outcomes),
		TotalRevenue:  core.FormatHashAmount(run.Result.TotalRevenue()),
		Summary:       allocapi.NewReportSummary(run.Summary),
		LedgerHash:    core.ComputeLedgerHash(run.Summary, testNonce),
		OutcomeHashes: hashes,
		Nonce:         testNonce,
	}
}

func exampleResponse(run *core.RunResult) *allocapi.AllocationResponse {
	return &allocapi.AllocationResponse{
		Type:     allocapi.TypeAllocationResponse,
		Success:  true,
		RunID:    testRunID,
		Detailed: allocapi.NewDetailedRows(run.Result.Outcomes),
		Summary:  allocapi.NewSummaryRows(run.Summary),
	}
}

func encodePayload(t *testing.T, payload *allocapi.ReportPayload) []byte {
	t.Helper()
	data, err := allocapi.MarshalReportPayload(payload)
	assert.NoError(t, err)
	return data
}
