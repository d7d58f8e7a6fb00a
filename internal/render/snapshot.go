package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/pkgpulse/internal/collect/aggregate"
)

// lz4Suffix selects LZ4 frame compression for snapshot files.
const lz4Suffix = ".lz4"

const snapshotFileMode = 0o644

// WriteSnapshot persists the report as JSON at path. A path ending in .lz4
// is written as an LZ4-framed stream instead of plain bytes.
func WriteSnapshot(path string, report *aggregate.Report) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, snapshotFileMode)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() { _ = file.Close() }()

	var w io.Writer = file

	var lzw *lz4.Writer

	if strings.HasSuffix(path, lz4Suffix) {
		lzw = lz4.NewWriter(file)
		w = lzw
	}

	encodeErr := WriteJSON(w, report)
	if encodeErr != nil {
		return encodeErr
	}

	if lzw != nil {
		flushErr := lzw.Close()
		if flushErr != nil {
			return fmt.Errorf("flush lz4 snapshot: %w", flushErr)
		}
	}

	closeErr := file.Close()
	if closeErr != nil {
		return fmt.Errorf("close snapshot: %w", closeErr)
	}

	return nil
}

// ReadSnapshot loads a report snapshot written by WriteSnapshot, transparently
// decompressing .lz4 files.
func ReadSnapshot(path string) (*aggregate.Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file

	if strings.HasSuffix(path, lz4Suffix) {
		r = lz4.NewReader(file)
	}

	var report aggregate.Report

	decodeErr := json.NewDecoder(r).Decode(&report)
	if decodeErr != nil {
		return nil, fmt.Errorf("decode snapshot: %w", decodeErr)
	}

	return &report, nil
}
