package allocapi

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// ReportCOSE holds the raw bytes of a signed (COSE_Sign1) allocation report.
type ReportCOSE []byte

// ReportCOSEBase64 is a standard base64 encoding of ReportCOSE, used in JSON.
type ReportCOSEBase64 string

// ReportCOSEURLBase64 is an unpadded URL-safe base64 encoding of ReportCOSE.
type ReportCOSEURLBase64 string

// ReportCOSEGzip is gzip-compressed ReportCOSE encoded as unpadded URL-safe base64.
type ReportCOSEGzip string

// EncodeBase64 encodes the report with standard base64.
func (c ReportCOSE) EncodeBase64() ReportCOSEBase64 {
	return ReportCOSEBase64(base64.StdEncoding.EncodeToString(c))
}

// EncodeURLSafe encodes the report with unpadded URL-safe base64.
func (c ReportCOSE) EncodeURLSafe() ReportCOSEURLBase64 {
	return ReportCOSEURLBase64(base64.RawURLEncoding.EncodeToString(c))
}

// CompressGzip gzips the report and encodes it URL-safe. Output is
// deterministic for identical input.
func (c ReportCOSE) CompressGzip() (ReportCOSEGzip, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(c); err != nil {
		return "", fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("gzip close: %w", err)
	}
	return ReportCOSEGzip(base64.RawURLEncoding.EncodeToString(buf.Bytes())), nil
}

func (s ReportCOSEBase64) String() string {
	return string(s)
}

// Decode returns the raw report bytes.
func (s ReportCOSEBase64) Decode() (ReportCOSE, error) {
	data, err := base64.StdEncoding.DecodeString(string(s))
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64: %w", err)
	}
	return ReportCOSE(data), nil
}

// CompressGzip decodes and re-encodes the report in gzip form.
func (s ReportCOSEBase64) CompressGzip() (ReportCOSEGzip, error) {
	raw, err := s.Decode()
	if err != nil {
		return "", err
	}
	return raw.CompressGzip()
}

func (s ReportCOSEURLBase64) String() string {
	return string(s)
}

// Decode returns the raw report bytes. Padding is optional.
func (s ReportCOSEURLBase64) Decode() (ReportCOSE, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(string(s), "="))
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64url: %w", err)
	}
	return ReportCOSE(data), nil
}

func (s ReportCOSEGzip) String() string {
	return string(s)
}

// Decompress reverses CompressGzip.
func (s ReportCOSEGzip) Decompress() (ReportCOSE, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(string(s))
	if err != nil {
		return nil, fmt.Errorf("decode base64url: %w", err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read gzip: %w", err)
	}
	return ReportCOSE(data), nil
}
