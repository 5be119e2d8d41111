// Package countrydata holds the read-only country statistics dataset.
package countrydata

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/globechat/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed sample.json
var sampleData []byte

// Store maps country codes to statistics records
// It is filled once at construction and never mutated afterwards
type Store struct {
	records map[string]model.StatisticsRecord
}

// New builds a store from already decoded records
func New(records map[string]model.StatisticsRecord) *Store {
	s := &Store{records: make(map[string]model.StatisticsRecord, len(records))}
	for code, rec := range records {
		key := normalizeCode(code)
		if key == "" {
			continue
		}
		if rec.CountryCode == "" {
			rec.CountryCode = key
		}
		s.records[key] = rec.Clone()
	}
	return s
}

// Load reads a dataset from disk. JSON is the default format; files ending in
// .yaml or .yml are decoded as YAML. An empty path loads the embedded sample.
func Load(path string) (*Store, error) {
	if path == "" {
		return Parse(sampleData, ".json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	return Parse(data, strings.ToLower(filepath.Ext(path)))
}

// Parse decodes a dataset in the format named by ext
func Parse(data []byte, ext string) (*Store, error) {
	records := make(map[string]model.StatisticsRecord)

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode YAML dataset: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode JSON dataset: %w", err)
		}
	}

	return New(records), nil
}

// Lookup returns the record for a country code. Unknown and empty codes
// both report false: either way there is no grounding data.
func (s *Store) Lookup(code string) (model.StatisticsRecord, bool) {
	if s == nil {
		return model.StatisticsRecord{}, false
	}
	rec, ok := s.records[normalizeCode(code)]
	if !ok {
		return model.StatisticsRecord{}, false
	}
	return rec.Clone(), true
}

// Codes returns all known country codes in sorted order
func (s *Store) Codes() []string {
	if s == nil {
		return nil
	}
	codes := make([]string, 0, len(s.records))
	for code := range s.records {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of countries in the store
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
