package graph

import (
	"sort"

	"github.com/credpub/credpub/internal/schema"
	"github.com/credpub/credpub/internal/store"
)

// Publication tiers: entities with fewer external dependencies publish
// first. Organizations anchor everything else, credentials depend mostly
// on organizations, the rest may depend on both.
const (
	tierOrganization = 0
	tierCredential   = 1
	tierOther        = 2
)

// Orderer selects and sequences the independently publishable entities a
// run produced
type Orderer struct {
	store  *store.Store
	schema *schema.Index
}

// NewOrderer returns an Orderer over the given store and vocabulary
func NewOrderer(st *store.Store, idx *schema.Index) *Orderer {
	return &Orderer{store: st, schema: idx}
}

// OrderForPublication returns the canonical identifiers of the top-level
// entities whose canonical identifier or any alternate matches one of
// the given source locations, sorted organization-descendants first,
// credential-descendants second, everything else last. The sort is
// stable: entities within a tier keep their discovery order.
func (o *Orderer) OrderForPublication(sourceLocations []string) []string {
	wanted := make(map[string]bool, len(sourceLocations))
	for _, loc := range sourceLocations {
		wanted[loc] = true
	}

	var selected []string
	for _, id := range o.store.IDs() {
		rec := o.store.Get(id)
		if rec == nil || !o.schema.IsTopLevel(rec.Entity.PrimaryType()) {
			continue
		}
		if o.matches(rec, wanted) {
			selected = append(selected, id)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return o.tier(selected[i]) < o.tier(selected[j])
	})
	return selected
}

func (o *Orderer) matches(rec *store.Record, wanted map[string]bool) bool {
	if wanted[rec.Entity.ID()] {
		return true
	}
	for _, alt := range rec.Entity.SameAs() {
		if wanted[alt] {
			return true
		}
	}
	return false
}

// tier buckets an entity by walking its primary type's parent chain.
// Unknown classes and broken chains land in the last tier.
func (o *Orderer) tier(id string) int {
	rec := o.store.Get(id)
	if rec == nil {
		return tierOther
	}
	primary := rec.Entity.PrimaryType()
	switch {
	case o.descendsFrom(primary, schema.ClassOrganization):
		return tierOrganization
	case o.descendsFrom(primary, schema.ClassCredential):
		return tierCredential
	default:
		return tierOther
	}
}

func (o *Orderer) descendsFrom(class, anchor string) bool {
	return class == anchor || o.schema.IsDescendantOf(class, anchor)
}
