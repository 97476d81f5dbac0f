// Package graph assembles publishable per-entity documents and decides
// the order in which they are submitted to the registry.
package graph

import (
	"github.com/credpub/credpub/internal/model"
	"github.com/credpub/credpub/internal/schema"
	"github.com/credpub/credpub/internal/store"
)

// Extractor builds the minimal publish document for one canonical entity
type Extractor struct {
	store  *store.Store
	schema *schema.Index
}

// NewExtractor returns an Extractor over the given store and vocabulary
func NewExtractor(st *store.Store, idx *schema.Index) *Extractor {
	return &Extractor{store: st, schema: idx}
}

// ExtractGraph returns the publish document for a canonical identifier:
// the root entity followed by its non-independent dependents, one
// reference hop away, in first-discovery order. Entities that are
// independently publishable are excluded; they ship as their own graph.
// Returns nil when no record exists for the identifier.
func (x *Extractor) ExtractGraph(canonicalID string, reg model.RegistryConfig) *model.GraphDocument {
	root := x.store.Get(canonicalID)
	if root == nil {
		return nil
	}

	doc := &model.GraphDocument{
		Context: reg.Context,
		Graph:   []model.Entity{root.Entity},
	}
	seen := map[string]bool{canonicalID: true}

	for _, dep := range x.store.References(canonicalID) {
		if seen[dep] {
			continue
		}
		seen[dep] = true
		rec := x.store.Get(dep)
		if rec == nil {
			continue
		}
		if store.IsBlankID(dep) || !x.schema.IsTopLevel(rec.Entity.PrimaryType()) {
			doc.Graph = append(doc.Graph, rec.Entity)
		}
	}
	return doc
}
