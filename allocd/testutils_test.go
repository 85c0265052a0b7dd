package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/openallocation/allocapi"
	"github.com/cloudx-io/openallocation/config"
	"github.com/cloudx-io/openallocation/core"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newTestAllocator returns an allocator with default settings and a fresh key.
func newTestAllocator(t *testing.T) (*Allocator, *KeyManager) {
	t.Helper()
	km, err := NewKeyManager()
	assert.NoError(t, err)

	return &Allocator{
		Defaults: config.Default().Allocation,
		Aliases:  core.DefaultColumnAliases(),
		Signer:   km,
		Logger:   discardLogger(),
		Now:      func() time.Time { return fixedNow },
	}, km
}

// exampleRequest is the three-bidder sheet: stock 10, A 4@50, B 8@70, C 3@90.
func exampleRequest() allocapi.AllocationRequest {
	return allocapi.AllocationRequest{
		Type:    allocapi.TypeAllocationRequest,
		Columns: []string{"Ges.bestand", "A Adet", "A Fiyat", "B Adet", "B Fiyat", "C Adet", "C Fiyat"},
		Rows: [][]string{
			{"10", "4", "50", "8", "70", "3", "90"},
			{"5"},
		},
	}
}

// openReport verifies the COSE signature with km and decodes the payload.
func openReport(t *testing.T, km *KeyManager, report allocapi.ReportCOSE) *allocapi.ReportPayload {
	t.Helper()

	var msg cose.Sign1Message
	assert.NoError(t, msg.UnmarshalCBOR(report))

	verifier, err := cose.NewVerifier(cose.AlgorithmES256, km.PublicKey)
	assert.NoError(t, err)
	assert.NoError(t, msg.Verify(nil, verifier))

	payload, err := allocapi.UnmarshalReportPayload(msg.Payload)
	assert.NoError(t, err)
	return payload
}
