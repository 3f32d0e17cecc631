// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package storage

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/tomtom215/setlist/internal/models"
)

// encodePayload serializes a model and returns the compressed payload and the
// SHA-256 checksum of the uncompressed JSON.
func encodePayload(model *models.Model) (payload []byte, checksum string, err error) {
	raw, err := json.Marshal(model)
	if err != nil {
		return nil, "", fmt.Errorf("encode model: %w", err)
	}

	hash := sha256.Sum256(raw)
	checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return nil, "", fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize compression: %w", err)
	}

	return compressed.Bytes(), checksum, nil
}

// decodePayload reverses encodePayload. An empty checksum skips verification.
func decodePayload(payload []byte, checksum string) (*models.Model, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	if checksum != "" {
		hash := sha256.Sum256(raw)
		if got := hex.EncodeToString(hash[:]); got != checksum {
			return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", checksum, got)
		}
	}

	var model models.Model
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &model, nil
}
