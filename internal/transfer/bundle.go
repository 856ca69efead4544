// Package transfer reads and writes export bundles and TSV decks.
package transfer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/kioku/internal/model"
)

// FileName returns the default export file name for day t.
func FileName(t time.Time) string {
	return "export_" + t.Format("20060102") + ".json"
}

// EncodeBundle writes b as indented JSON.
func EncodeBundle(w io.Writer, b model.Bundle) error {
	if b.Problems == nil {
		b.Problems = []model.Problem{}
	}
	if b.DailyStats == nil {
		b.DailyStats = map[string]model.Counter{}
	}
	if b.CategoryStats == nil {
		b.CategoryStats = map[string]model.Counter{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// DecodeBundle parses an export document. Missing sections decode as empty;
// anything that is not a JSON object is an error.
func DecodeBundle(r io.Reader) (model.Bundle, error) {
	var raw struct {
		Problems      json.RawMessage `json:"problems"`
		DailyStats    json.RawMessage `json:"dailyStats"`
		CategoryStats json.RawMessage `json:"categoryStats"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return model.Bundle{}, fmt.Errorf("failed to parse bundle: %w", err)
	}
	var b model.Bundle
	if err := decodeSection(raw.Problems, &b.Problems); err != nil {
		return model.Bundle{}, fmt.Errorf("failed to parse problems: %w", err)
	}
	if err := decodeSection(raw.DailyStats, &b.DailyStats); err != nil {
		return model.Bundle{}, fmt.Errorf("failed to parse dailyStats: %w", err)
	}
	if err := decodeSection(raw.CategoryStats, &b.CategoryStats); err != nil {
		return model.Bundle{}, fmt.Errorf("failed to parse categoryStats: %w", err)
	}
	return b, nil
}

func decodeSection(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// ReadBundle loads a bundle from path.
func ReadBundle(path string) (model.Bundle, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.Bundle{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only bundle.
			_ = cerr
		}
	}()
	return DecodeBundle(bufio.NewReader(file))
}

// WriteBundle writes b to path through a temp file in the same directory.
func WriteBundle(path string, b model.Bundle) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "export-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp export: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := EncodeBundle(writer, b); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
