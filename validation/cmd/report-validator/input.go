package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cloudx-io/openallocation/allocapi"
)

// readInput returns the file contents when input names a readable file,
// otherwise input itself.
func readInput(input string) []byte {
	if data, err := os.ReadFile(input); err == nil {
		return data
	}
	return []byte(input)
}

func readJSON(input string, v any) error {
	if err := json.Unmarshal(readInput(input), v); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}

// readPublicKey accepts either a PEM public key or a key response JSON.
func readPublicKey(input string) (string, error) {
	data := strings.TrimSpace(string(readInput(input)))
	if strings.HasPrefix(data, "-----BEGIN") {
		return data, nil
	}

	var resp allocapi.KeyResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		return "", fmt.Errorf("neither PEM nor key response JSON: %w", err)
	}
	if resp.PublicKey == "" {
		return "", fmt.Errorf("key response has no public_key")
	}
	return resp.PublicKey, nil
}

func readReport(resp *allocapi.AllocationResponse, gzipped allocapi.ReportCOSEGzip) (allocapi.ReportCOSE, error) {
	if gzipped != "" {
		return gzipped.Decompress()
	}
	if resp.ReportCOSEBase64 == "" {
		return nil, fmt.Errorf("response has no report_cose_base64")
	}
	return resp.ReportCOSEBase64.Decode()
}
