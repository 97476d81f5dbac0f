package process

import (
	"regexp"
	"strings"

	"github.com/credpub/credpub/internal/model"
	"github.com/credpub/credpub/internal/store"
)

// referenceKind is the closed set of outcomes a pointer-property value
// can classify into. Every value resolves to exactly one kind before it
// is acted on.
type referenceKind int

const (
	// refResolved: string identifier already resolvable in the store
	// (exact, equivalence, or durable-identifier match)
	refResolved referenceKind = iota

	// refRegistryURL: string matching a registry resource URL from any
	// environment; the canonical reference for the current environment
	// is synthesized from the embedded durable identifier, no fetch
	refRegistryURL

	// refRemoteURL: unresolved http(s) URL, dereferenced via the fetch
	// collaborator
	refRemoteURL

	// refEmbeddedProfile: inline condition-profile-like object; its own
	// pointer properties are resolved in place and it stays embedded
	refEmbeddedProfile

	// refEmbeddedBlank: inline top-level object already carrying a blank
	// identifier; registered and replaced by that identifier
	refEmbeddedBlank

	// refEmbeddedNamed: inline top-level object declaring a durable
	// identifier; registered and replaced by its canonical identifier
	refEmbeddedNamed

	// refEmbeddedMinted: inline top-level object with neither; a blank
	// identifier is minted before registration
	refEmbeddedMinted

	// refEmbeddedValue: inline object of a non-independent type; stays
	// embedded unchanged
	refEmbeddedValue

	// refRaw: anything else (untyped objects, non-URL strings, scalars);
	// passed through for downstream validation
	refRaw
)

// registryResourcePattern matches the /resources/{ctid} form a registry
// in any environment uses to address entities by durable identifier
var registryResourcePattern = regexp.MustCompile(`^https?://[^/\s]+(?:/[^/\s]+)*?/resources/(ce-[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})/?$`)

// ctidFromResourceURL extracts the durable identifier embedded in a
// registry resource URL, or "" when the URL is not of that form
func ctidFromResourceURL(url string) string {
	m := registryResourcePattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// classify assigns a pointer-property value its resolution outcome.
// String classification consults store state, so the outcome of one
// value can depend on resolutions performed before it in the same pass.
func (p *Processor) classify(value any) referenceKind {
	switch v := value.(type) {
	case string:
		if p.store.GetFuzzy(v, ctidFromResourceURL(v)) != nil {
			return refResolved
		}
		if ctidFromResourceURL(v) != "" {
			return refRegistryURL
		}
		if isHTTPURL(v) {
			return refRemoteURL
		}
		return refRaw
	case map[string]any, model.Entity:
		entity := model.AsEntity(v)
		primary := entity.PrimaryType()
		if primary == "" {
			return refRaw
		}
		switch {
		case p.schema.IsEmbeddableProfile(primary):
			return refEmbeddedProfile
		case !p.schema.IsTopLevel(primary):
			return refEmbeddedValue
		case store.IsBlankID(entity.ID()):
			return refEmbeddedBlank
		case entity.CTID() != "":
			return refEmbeddedNamed
		default:
			return refEmbeddedMinted
		}
	default:
		return refRaw
	}
}
