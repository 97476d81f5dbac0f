// Package store is the mutable ground truth of a run: canonical entity
// records, the equivalence index mapping every alternate identifier to
// its canonical one, and the reference graph recording which entity was
// discovered while processing which other.
package store

import (
	"strings"

	"github.com/google/uuid"

	"github.com/credpub/credpub/internal/model"
)

// BlankPrefix marks identifiers minted for entities that carry no
// durable identifier; they are scoped to the current publish graph
const BlankPrefix = "_:"

// IsBlankID reports whether an identifier is a minted blank identifier
func IsBlankID(id string) bool {
	return strings.HasPrefix(id, BlankPrefix)
}

// MintBlankID returns a fresh, globally unique blank identifier
func MintBlankID() string {
	return BlankPrefix + uuid.NewString()
}

// Record is one stored entity with its provenance flags. Fetched means
// the entity was obtained by direct retrieval rather than discovered by
// embedding; Processed means it has passed through reference resolution.
type Record struct {
	Fetched        bool
	Processed      bool
	Entity         model.Entity
	SourceLocation string
}

// Store holds all entities discovered during a run. One writer; callers
// construct a Store per run and Reset between independent executions.
type Store struct {
	records map[string]*Record
	order   []string // canonical ids in first-registration order

	// equivalence: every alternate identifier ever seen -> canonical id
	equiv map[string]string

	// reference graph: canonical id -> ids discovered while processing it
	refs map[string][]string
}

// New returns an empty Store
func New() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset clears all records, equivalences and reference edges
func (s *Store) Reset() {
	s.records = make(map[string]*Record)
	s.order = nil
	s.equiv = make(map[string]string)
	s.refs = make(map[string][]string)
}

// Canonicalize rewrites an entity's identifier to canonical form in
// place. An entity with a durable identifier is addressed as
// {base}/resources/{ctid}; one without keeps an existing blank
// identifier or gets a fresh one. The original identifier, when
// different, is preserved as an alternate.
func Canonicalize(e model.Entity, reg model.RegistryConfig) model.Entity {
	original := e.ID()
	if ctid := e.CTID(); ctid != "" {
		canonical := reg.ResourceURL(ctid)
		if original != canonical {
			e.AddSameAs(original)
			e.SetID(canonical)
		}
		return e
	}
	if IsBlankID(original) {
		return e
	}
	e.AddSameAs(original)
	e.SetID(MintBlankID())
	return e
}

// Register canonicalizes an entity and merges it into the store. A new
// record is created when none exists for the canonical identifier, or
// when the incoming registration is more authoritative (fetched upgrading
// an unfetched record, or processed upgrading an unprocessed one);
// otherwise the existing record's content wins. The equivalence index is
// always updated for every alternate identifier, and a reference edge
// sourceLocation -> canonical id is recorded when a source is given.
// Returns the canonicalized entity.
func (s *Store) Register(e model.Entity, fetched bool, reg model.RegistryConfig, sourceLocation string, processed bool) model.Entity {
	e = Canonicalize(e, reg)
	id := e.ID()

	existing := s.records[id]
	switch {
	case existing == nil:
		s.records[id] = &Record{
			Fetched:        fetched,
			Processed:      processed,
			Entity:         e,
			SourceLocation: sourceLocation,
		}
		s.order = append(s.order, id)
	case (fetched && !existing.Fetched) || (processed && !existing.Processed):
		existing.Entity = e
		existing.Fetched = existing.Fetched || fetched
		existing.Processed = existing.Processed || processed
		if sourceLocation != "" {
			existing.SourceLocation = sourceLocation
		}
	}

	for _, alt := range e.SameAs() {
		s.equiv[alt] = id
	}

	if sourceLocation != "" {
		s.AddReference(sourceLocation, id)
	}
	return e
}

// Get returns the record for a canonical identifier, or nil
func (s *Store) Get(id string) *Record {
	return s.records[id]
}

// GetByCTID scans for the first record whose entity carries the given
// durable identifier. With duplicate ctids the first registration wins;
// disambiguation is the caller's responsibility.
func (s *Store) GetByCTID(ctid string) *Record {
	if ctid == "" {
		return nil
	}
	for _, id := range s.order {
		if rec := s.records[id]; rec != nil && rec.Entity.CTID() == ctid {
			return rec
		}
	}
	return nil
}

// GetFuzzy resolves an identifier by exact match, then the equivalence
// index, then (when a ctid is supplied) the durable-identifier scan.
// First hit wins.
func (s *Store) GetFuzzy(id, ctid string) *Record {
	if rec := s.records[id]; rec != nil {
		return rec
	}
	if canonical, ok := s.equiv[id]; ok {
		if rec := s.records[canonical]; rec != nil {
			return rec
		}
	}
	return s.GetByCTID(ctid)
}

// AddReference records that `to` was discovered while processing `from`.
// Idempotent; edge order is first-discovery order.
func (s *Store) AddReference(from, to string) {
	if from == "" || to == "" || from == to {
		return
	}
	for _, existing := range s.refs[from] {
		if existing == to {
			return
		}
	}
	s.refs[from] = append(s.refs[from], to)
}

// References returns the identifiers discovered while processing `from`,
// in first-discovery order
func (s *Store) References(from string) []string {
	return s.refs[from]
}

// EntitiesThatReference returns the identifiers whose processing
// discovered `to`, in first-registration order of the referencing entity
func (s *Store) EntitiesThatReference(to string) []string {
	var out []string
	for _, from := range s.order {
		for _, t := range s.refs[from] {
			if t == to {
				out = append(out, from)
				break
			}
		}
	}
	return out
}

// Resolve maps any identifier to its canonical form via the equivalence
// index, returning the input unchanged when unknown
func (s *Store) Resolve(id string) string {
	if _, ok := s.records[id]; ok {
		return id
	}
	if canonical, ok := s.equiv[id]; ok {
		return canonical
	}
	return id
}

// IDs returns all canonical identifiers in first-registration order
func (s *Store) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of stored records
func (s *Store) Len() int {
	return len(s.records)
}
