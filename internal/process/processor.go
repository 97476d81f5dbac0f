// Package process implements reference resolution: it canonicalizes one
// raw entity, classifies every outbound reference, and registers the
// result plus everything discovered along the way into the entity store.
package process

import (
	"context"
	"fmt"

	"github.com/credpub/credpub/internal/model"
	"github.com/credpub/credpub/internal/schema"
	"github.com/credpub/credpub/internal/store"
)

// DocumentFetcher dereferences a remote reference into a parsed document.
// Caching, redirects and politeness are its concern, not the processor's.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) (*model.Document, error)
}

// Processor resolves one entity at a time against a shared store.
// Resolution is strictly sequential: each remote fetch completes before
// the next value in the same entity is classified, because classification
// consults store state mutated by prior resolutions.
type Processor struct {
	store   *store.Store
	schema  *schema.Index
	reg     model.RegistryConfig
	fetcher DocumentFetcher

	// non-fatal errors recorded during the current run; the offending
	// references stay unresolved
	warnings []error
}

// New wires a Processor to its collaborators. fetcher may be nil, in
// which case remote references are left unresolved with a warning.
func New(st *store.Store, idx *schema.Index, reg model.RegistryConfig, fetcher DocumentFetcher) *Processor {
	return &Processor{store: st, schema: idx, reg: reg, fetcher: fetcher}
}

// Warnings drains the non-fatal errors recorded since the last call
func (p *Processor) Warnings() []error {
	w := p.warnings
	p.warnings = nil
	return w
}

func (p *Processor) warnf(err error) {
	p.warnings = append(p.warnings, err)
}

// ProcessEntity canonicalizes an entity, resolves every pointer property,
// and registers the result as fetched and processed. Entities whose
// primary type is not independently identifiable are returned unchanged
// and not registered. A missing durable identifier on a non-blank entity
// or an out-of-range embedded object fails the entity.
func (p *Processor) ProcessEntity(ctx context.Context, e model.Entity, sourceLocation string) (model.Entity, error) {
	primary := e.PrimaryType()
	if !p.schema.IsTopLevel(primary) {
		return e, nil
	}

	if e.CTID() == "" && !store.IsBlankID(e.ID()) {
		return nil, &IdentityError{EntityID: e.ID(), Type: primary}
	}

	e = store.Canonicalize(e, p.reg)

	if err := p.resolvePointers(ctx, e, primary, e.ID()); err != nil {
		return nil, err
	}

	e = p.store.Register(e, true, p.reg, sourceLocation, true)
	return e, nil
}

// resolvePointers resolves every pointer property of an entity in place.
// owner is the canonical identifier reference edges are recorded against.
func (p *Processor) resolvePointers(ctx context.Context, e model.Entity, class, owner string) error {
	for _, prop := range p.pointerProperties(class) {
		raw, present := e[prop]
		if !present {
			continue
		}
		values := model.ValueList(raw)
		resolved := make([]any, 0, len(values))
		for i, value := range values {
			out, err := p.resolveValue(ctx, e, prop, i, value, owner)
			if err != nil {
				return err
			}
			resolved = append(resolved, out)
		}
		e[prop] = resolved
	}
	return nil
}

// pointerProperties merges a class's top-level pointer properties with
// its condition-profile-capable ones, preserving declaration order
func (p *Processor) pointerProperties(class string) []string {
	props := p.schema.PointerPropertiesFor(class)
	seen := make(map[string]bool, len(props))
	for _, name := range props {
		seen[name] = true
	}
	for _, name := range p.schema.ConditionProfilePropertiesFor(class) {
		if !seen[name] {
			props = append(props, name)
			seen[name] = true
		}
	}
	return props
}

// resolveValue resolves one pointer-property value. String references
// resolve to canonical identifiers; embedded objects are either kept
// inline or hoisted into their own store records depending on their
// classification. Fetch failures leave the value unresolved and record a
// warning; range violations fail the owning entity.
func (p *Processor) resolveValue(ctx context.Context, e model.Entity, prop string, pos int, value any, owner string) (any, error) {
	switch p.classify(value) {
	case refResolved:
		str := value.(string)
		rec := p.store.GetFuzzy(str, ctidFromResourceURL(str))
		id := rec.Entity.ID()
		p.store.AddReference(owner, id)
		return id, nil

	case refRegistryURL:
		// Same resource addressed through another environment: rewrite
		// to this environment without dereferencing
		id := p.reg.ResourceURL(ctidFromResourceURL(value.(string)))
		p.store.AddReference(owner, id)
		return id, nil

	case refRemoteURL:
		url := value.(string)
		id, err := p.resolveRemote(ctx, url, owner)
		if err != nil {
			p.warnf(fmt.Errorf("entity %q property %q value %d: %w", owner, prop, pos, err))
			return url, nil
		}
		p.store.AddReference(owner, id)
		return id, nil

	case refEmbeddedProfile:
		profile := model.AsEntity(value)
		if err := p.checkRange(e, prop, pos, profile.PrimaryType()); err != nil {
			return nil, err
		}
		// Results stay embedded: the profile's own pointer properties
		// resolve in place, edges still accrue to the owning entity
		if err := p.resolvePointers(ctx, profile, profile.PrimaryType(), owner); err != nil {
			return nil, err
		}
		return profile, nil

	case refEmbeddedBlank, refEmbeddedNamed, refEmbeddedMinted:
		embedded := model.AsEntity(value)
		if err := p.checkRange(e, prop, pos, embedded.PrimaryType()); err != nil {
			return nil, err
		}
		registered := p.store.Register(embedded, false, p.reg, owner, false)
		return registered.ID(), nil

	case refEmbeddedValue:
		embedded := model.AsEntity(value)
		if err := p.checkRange(e, prop, pos, embedded.PrimaryType()); err != nil {
			return nil, err
		}
		return embedded, nil

	default:
		return value, nil
	}
}

func (p *Processor) checkRange(e model.Entity, prop string, pos int, class string) error {
	if p.schema.RangeAllows(prop, class) {
		return nil
	}
	return &RangeError{EntityID: e.ID(), Property: prop, Position: pos, Type: class}
}

// resolveRemote dereferences an unresolved URL, validates the document,
// and registers its entity as fetched with the owner as source. A
// document lacking a durable identifier registers as a blank entity when
// its identifier matches the requested URL, and fails otherwise.
func (p *Processor) resolveRemote(ctx context.Context, url, owner string) (string, error) {
	if p.fetcher == nil {
		return "", &FetchError{URL: url, Reason: "no fetch transport configured"}
	}
	doc, err := p.fetcher.FetchDocument(ctx, url)
	if err != nil {
		return "", &FetchError{URL: url, Reason: "retrieve document", Err: err}
	}
	if doc.Context != p.reg.Context {
		return "", &FetchError{URL: url, Reason: fmt.Sprintf("unexpected vocabulary context %q", doc.Context)}
	}

	entity := pickEntity(doc, url)
	if entity == nil {
		return "", &FetchError{URL: url, Reason: "document contains no entity"}
	}

	if entity.CTID() == "" {
		if entity.ID() != url {
			return "", &FetchError{URL: url, Reason: fmt.Sprintf("no durable identifier and identifier %q does not match", entity.ID())}
		}
		// Keep the source URL as an alternate; a blank identifier is
		// minted during registration
		registered := p.store.Register(entity, true, p.reg, owner, false)
		return registered.ID(), nil
	}

	registered := p.store.Register(entity, true, p.reg, owner, false)
	return registered.ID(), nil
}

// pickEntity selects the entity a dereferenced document describes: the
// graph member whose identifier matches the requested URL, or the sole
// member, or the first one carrying a durable identifier
func pickEntity(doc *model.Document, url string) model.Entity {
	if len(doc.Graph) == 0 {
		return nil
	}
	if len(doc.Graph) == 1 {
		return doc.Graph[0]
	}
	for _, e := range doc.Graph {
		if e.ID() == url {
			return e
		}
	}
	for _, e := range doc.Graph {
		if e.CTID() != "" {
			return e
		}
	}
	return doc.Graph[0]
}
