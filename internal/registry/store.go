package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/codexbridge/codexbridge/internal/config"
	"github.com/codexbridge/codexbridge/internal/plan"
)

// Store owns the registry document and the two auxiliary caches. Every
// mutation is a full read-modify-write over the whole document, which is safe
// under the watcher's sequential-sweep guarantee.
type Store struct {
	registryPath   string
	macroCachePath string
	testCachePath  string
}

// NewStore binds a store to its backing files.
func NewStore(registryPath, macroCachePath, testCachePath string) *Store {
	return &Store{
		registryPath:   registryPath,
		macroCachePath: macroCachePath,
		testCachePath:  testCachePath,
	}
}

// readJSON parses the file at path into out, or leaves out untouched when the
// file does not exist. A file that exists but does not parse is a fatal
// configuration error: unlike an absent file it signals a broken deployment.
func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &config.Error{Path: path, Err: fmt.Errorf("corrupted JSON document: %v", err)}
	}
	return nil
}

// writeJSON writes pretty-printed JSON, creating parent directories.
func writeJSON(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Read returns the registry document, creating an empty one in memory when
// the file is absent.
func (s *Store) Read() (Document, error) {
	doc := Document{Version: DocumentVersion}
	if err := readJSON(s.registryPath, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Snapshot captures the raw registry bytes so a later Restore can roll the
// file back byte-for-byte. existed=false records that the file was absent.
func (s *Store) Snapshot() (data []byte, existed bool, err error) {
	data, err = os.ReadFile(s.registryPath)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Restore rewrites the registry from a snapshot, removing the file entirely
// when it did not exist before.
func (s *Store) Restore(data []byte, existed bool) error {
	if !existed {
		err := os.Remove(s.registryPath)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.WriteFile(s.registryPath, data, 0o644)
}

// Update builds the entry for an accepted plan, appends it, re-sorts by
// identifier, and rewrites the whole document. Callers needing rollback must
// Snapshot first.
func (s *Store) Update(p *plan.Plan, macroPath string, now time.Time) (Entry, error) {
	doc, err := s.Read()
	if err != nil {
		return Entry{}, err
	}
	version := p.Version
	if version == "" {
		version = DefaultEntryVersion
	}
	entry := Entry{
		Identifier:     p.Macro,
		Description:    p.Description,
		Domain:         p.Domain,
		Safe:           p.Safe,
		RequiresReview: p.RequiresReview,
		Inputs:         p.Inputs,
		Dependencies:   p.Dependencies,
		Version:        version,
		MacroPath:      macroPath,
		GeneratedAt:    now.UTC().Format(time.RFC3339),
	}
	doc.Macros = append(doc.Macros, entry)
	sort.Slice(doc.Macros, func(i, j int) bool {
		return doc.Macros[i].Identifier < doc.Macros[j].Identifier
	})
	if err := writeJSON(s.registryPath, doc); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Registered reports whether an identifier already exists in the registry.
func (s *Store) Registered(identifier string) (bool, error) {
	doc, err := s.Read()
	if err != nil {
		return false, err
	}
	for _, e := range doc.Macros {
		if e.Identifier == identifier {
			return true, nil
		}
	}
	return false, nil
}

// MissingDependencies returns the plan dependencies absent from the registry.
func (s *Store) MissingDependencies(p *plan.Plan) ([]string, error) {
	if len(p.Dependencies) == 0 {
		return nil, nil
	}
	doc, err := s.Read()
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(doc.Macros))
	for _, e := range doc.Macros {
		known[e.Identifier] = true
	}
	var missing []string
	for _, dep := range p.Dependencies {
		if !known[dep] {
			missing = append(missing, dep)
		}
	}
	return missing, nil
}

// UpdateMacroCache read-modify-writes the generation metadata cache.
func (s *Store) UpdateMacroCache(identifier string, entry MacroCacheEntry) error {
	cache := map[string]MacroCacheEntry{}
	if err := readJSON(s.macroCachePath, &cache); err != nil {
		return err
	}
	cache[identifier] = entry
	return writeJSON(s.macroCachePath, cache)
}

// UpdateTestCache read-modify-writes the latest-test-outcome cache.
func (s *Store) UpdateTestCache(identifier string, entry TestCacheEntry) error {
	cache := map[string]TestCacheEntry{}
	if err := readJSON(s.testCachePath, &cache); err != nil {
		return err
	}
	cache[identifier] = entry
	return writeJSON(s.testCachePath, cache)
}
