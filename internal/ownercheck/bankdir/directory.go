// Package bankdir resolves bank short names (as typed by callers, e.g.
// "mbbank") to the routing codes each bank's lookup API expects.
package bankdir

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"namecheck/pkg/platform/sentinel"
)

//go:embed banks.json
var defaultDirectory []byte

// Bank is one directory entry.
type Bank struct {
	ShortName string `json:"shortName"`
	BIN       string `json:"bin"`
	// Napas is the interbank participant id; defaults to BIN when absent.
	Napas string `json:"napas,omitempty"`
	Name  string `json:"name,omitempty"`
}

type document struct {
	Data []Bank `json:"data"`
}

// Directory is an immutable, case-insensitive short-name index.
type Directory struct {
	byName map[string]Bank
}

// Default returns the embedded directory.
func Default() *Directory {
	d, err := Parse(defaultDirectory)
	if err != nil {
		panic(fmt.Sprintf("bankdir: embedded directory is invalid: %v", err))
	}
	return d
}

// Load reads a directory file. An empty path yields the embedded default.
func Load(path string) (*Directory, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank directory: %w", err)
	}
	return Parse(raw)
}

// Parse builds a directory from its JSON form.
func Parse(raw []byte) (*Directory, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode bank directory: %w", err)
	}
	d := &Directory{byName: make(map[string]Bank, len(doc.Data))}
	for _, b := range doc.Data {
		key := normalizeKey(b.ShortName)
		if key == "" || b.BIN == "" {
			return nil, fmt.Errorf("bank directory entry %q: short name and bin are required", b.ShortName)
		}
		if b.Napas == "" {
			b.Napas = b.BIN
		}
		d.byName[key] = b
	}
	return d, nil
}

// Resolve looks a bank up by short name, ignoring case and surrounding space.
func (d *Directory) Resolve(shortName string) (Bank, error) {
	if b, ok := d.byName[normalizeKey(shortName)]; ok {
		return b, nil
	}
	return Bank{}, fmt.Errorf("bank %q: %w", shortName, sentinel.ErrNotFound)
}

// Len returns the number of entries.
func (d *Directory) Len() int {
	return len(d.byName)
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
