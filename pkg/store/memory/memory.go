// Package memory provides an in-process document store, used for local
// development, fixtures and tests.
package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/observability/tracing"
	"github.com/mentneo/mentmine/pkg/query"
)

// Store keeps collections in memory. Unknown collections read as empty.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]query.Record
	closed      bool
}

// Fixtures is the on-disk layout accepted by LoadFixtures.
//
//	collections:
//	  courses:
//	    - id: go-101
//	      title: Go fundamentals
type Fixtures struct {
	Collections map[string][]map[string]any `yaml:"collections"`
}

// New creates a store seeded with collections.
func New(collections map[string][]query.Record) *Store {
	s := &Store{collections: make(map[string][]query.Record, len(collections))}
	for name, records := range collections {
		s.Put(name, records...)
	}
	return s
}

// Cosa fa: carica le collezioni da un file YAML o JSON nel formato Fixtures.
// Cosa NON fa: non valida i campi dei documenti.
// Esempio minimo: st, err := memory.LoadFixtures("fixtures.yaml", log)
func LoadFixtures(path string, log logger.Logger) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures %s: %w", path, err)
	}
	s, err := ParseFixtures(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fixtures %s: %w", path, err)
	}
	if log != nil {
		log.Info("fixtures loaded", "path", path, "collections", len(s.collections))
	}
	return s, nil
}

// ParseFixtures decodes fixture content. JSON is accepted as a subset of YAML.
func ParseFixtures(raw []byte) (*Store, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, err
	}
	s := New(nil)
	for name, docs := range fx.Collections {
		records := make([]query.Record, 0, len(docs))
		for i, doc := range docs {
			rec := query.Record(doc)
			if rec == nil {
				rec = query.Record{}
			}
			if rec.ID() == "" {
				rec[query.IDField] = fmt.Sprintf("%s-%d", name, i+1)
			}
			records = append(records, rec)
		}
		s.Put(name, records...)
	}
	return s, nil
}

// Put appends records to collection.
func (s *Store) Put(collection string, records ...query.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections == nil {
		s.collections = make(map[string][]query.Record)
	}
	s.collections[collection] = append(s.collections[collection], records...)
}

// Collections returns the names of the non-empty collections.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name, records := range s.collections {
		if len(records) > 0 {
			names = append(names, name)
		}
	}
	return names
}

// FetchAll returns every record of collection in insertion order.
func (s *Store) FetchAll(ctx context.Context, collection string) ([]query.Record, error) {
	_, span := tracing.StartStoreSpan(ctx, "memory", collection)
	defer span.End()

	if err := ctx.Err(); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		err := fmt.Errorf("memory store is closed")
		tracing.RecordError(span, err)
		return nil, err
	}
	records := make([]query.Record, len(s.collections[collection]))
	copy(records, s.collections[collection])
	return records, nil
}

// HealthCheck reports an error once the store is closed.
func (s *Store) HealthCheck(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("memory store is closed")
	}
	return nil
}

// Close releases the collections.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.collections = nil
	return nil
}
