package domain

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
)

// Records are persisted as gzip-compressed JSON. DecodeRecord also accepts
// plain JSON so rows written before compression was introduced stay
// readable.

var gzipMagic = []byte{0x1f, 0x8b}

func EncodeRecord(record *RecipeRecord) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("encode record: record is nil")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", record.ID, err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress record %s: %w", record.ID, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress record %s: %w", record.ID, err)
	}
	return buf.Bytes(), nil
}

func DecodeRecord(data []byte) (*RecipeRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode record: empty payload")
	}
	raw := data
	if bytes.HasPrefix(data, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode record: open gzip: %w", err)
		}
		defer zr.Close()
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("decode record: decompress: %w", err)
		}
	}
	var record RecipeRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &record, nil
}

func EncodeStatus(status *OperationStatus) ([]byte, error) {
	if status == nil {
		return nil, fmt.Errorf("encode status: status is nil")
	}
	raw, err := json.Marshal(status)
	if err != nil {
		return nil, fmt.Errorf("encode status: %w", err)
	}
	return raw, nil
}

func DecodeStatus(data []byte) (*OperationStatus, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode status: empty payload")
	}
	var status OperationStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}
