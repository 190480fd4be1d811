// Package factstore holds the name-to-fact dataset used for annotation.
//
// A Store is built once by a Loader and is read-only afterwards. A nil *Store
// means the dataset has not been loaded; every method is safe to call on nil.
package factstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/factlens/internal/model"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	// ErrLoad wraps any failure to obtain the dataset
	ErrLoad = errors.New("load fact store")

	// ErrEmptyStore is returned when the dataset loaded but holds no keys
	ErrEmptyStore = errors.New("fact store is empty")
)

// Store maps canonical names to fact records, preserving dataset order
type Store struct {
	facts  *orderedmap.OrderedMap[string, model.FactRecord]
	keys   []string
	source string
}

// New builds a store from records in the given order. Later duplicates of a
// key replace the record but keep the key's original position.
func New(source string, records ...model.FactRecord) (*Store, error) {
	facts := orderedmap.New[string, model.FactRecord]()
	for _, rec := range records {
		if strings.TrimSpace(rec.Key) == "" {
			return nil, fmt.Errorf("record with empty key")
		}
		facts.Set(rec.Key, rec)
	}
	return fromOrderedMap(source, facts)
}

func fromOrderedMap(source string, facts *orderedmap.OrderedMap[string, model.FactRecord]) (*Store, error) {
	keys := make([]string, 0, facts.Len())
	for pair := facts.Oldest(); pair != nil; pair = pair.Next() {
		if strings.TrimSpace(pair.Key) == "" {
			return nil, fmt.Errorf("record with empty key")
		}
		pair.Value.Key = pair.Key
		keys = append(keys, pair.Key)
	}

	if len(keys) == 0 {
		return nil, ErrEmptyStore
	}

	return &Store{facts: facts, keys: keys, source: source}, nil
}

// Keys returns the match keys in insertion order
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	return s.keys
}

// Lookup returns the record for an exact canonical key
func (s *Store) Lookup(key string) (model.FactRecord, bool) {
	if s == nil {
		return model.FactRecord{}, false
	}
	return s.facts.Get(key)
}

// Len returns the number of keys
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Source describes where the store was loaded from
func (s *Store) Source() string {
	if s == nil {
		return ""
	}
	return s.source
}

// Ready reports whether the store is loaded and has at least one key
func (s *Store) Ready() bool {
	return s.Len() > 0
}
