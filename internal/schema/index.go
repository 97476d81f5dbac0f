// Package schema holds the static vocabulary index: which classes are
// independently identifiable, how classes relate, and which properties
// point at other entities. The index is built once at process start from
// a merged vocabulary description and never mutated afterwards.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

// Well-known anchor classes used for publication ordering
const (
	ClassOrganization = "Organization"
	ClassCredential   = "Credential"
)

//go:embed vocabulary.json
var defaultVocabulary []byte

// Class describes one vocabulary class
type Class struct {
	Name            string `json:"name"`
	SubClassOf      string `json:"subClassOf,omitempty"`
	TopLevel        bool   `json:"topLevel,omitempty"`
	PublishEndpoint string `json:"publishEndpoint,omitempty"`

	// Embeddable marks condition-profile-like classes: sub-resources
	// that stay inline but have pointer properties of their own
	Embeddable bool `json:"embeddable,omitempty"`
}

// Property describes one vocabulary property with its declared domain
// and value range
type Property struct {
	Name   string   `json:"name"`
	Domain []string `json:"domain,omitempty"`
	Range  []string `json:"range,omitempty"`
}

type vocabulary struct {
	Classes    []Class    `json:"classes"`
	Properties []Property `json:"properties"`
}

// Index answers vocabulary queries. Immutable after Load.
type Index struct {
	classes    map[string]Class
	properties map[string]Property

	// property names in declaration order, for deterministic iteration
	propOrder []string
}

// Load builds an Index from a merged vocabulary description
func Load(data []byte) (*Index, error) {
	var vocab vocabulary
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	if len(vocab.Classes) == 0 {
		return nil, fmt.Errorf("vocabulary declares no classes")
	}

	idx := &Index{
		classes:    make(map[string]Class, len(vocab.Classes)),
		properties: make(map[string]Property, len(vocab.Properties)),
		propOrder:  make([]string, 0, len(vocab.Properties)),
	}
	for _, c := range vocab.Classes {
		if c.Name == "" {
			return nil, fmt.Errorf("vocabulary class with empty name")
		}
		idx.classes[c.Name] = c
	}
	for _, p := range vocab.Properties {
		if p.Name == "" {
			return nil, fmt.Errorf("vocabulary property with empty name")
		}
		if _, dup := idx.properties[p.Name]; !dup {
			idx.propOrder = append(idx.propOrder, p.Name)
		}
		idx.properties[p.Name] = p
	}
	return idx, nil
}

// LoadFile builds an Index from a vocabulary file on disk
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return Load(data)
}

// Default builds the Index from the embedded merged vocabulary
func Default() (*Index, error) {
	return Load(defaultVocabulary)
}

// IsTopLevel reports whether a class is independently identifiable and
// may be published as the root of its own graph
func (x *Index) IsTopLevel(class string) bool {
	return x.classes[class].TopLevel
}

// ParentClass returns the parent of a class, or "" at the root or for
// unknown classes
func (x *Index) ParentClass(class string) string {
	return x.classes[class].SubClassOf
}

// IsEmbeddableProfile reports whether a class is a condition-profile-like
// sub-resource that stays inline during resolution
func (x *Index) IsEmbeddableProfile(class string) bool {
	for class != "" {
		c, ok := x.classes[class]
		if !ok {
			return false
		}
		if c.Embeddable {
			return true
		}
		class = c.SubClassOf
	}
	return false
}

// IsDescendantOf walks the class-parent chain and reports whether class
// descends from ancestor. Unknown classes and broken chains report false.
func (x *Index) IsDescendantOf(class, ancestor string) bool {
	if class == "" || ancestor == "" {
		return false
	}
	cur, ok := x.classes[class]
	if !ok {
		return false
	}
	for cur.SubClassOf != "" {
		if cur.SubClassOf == ancestor {
			return true
		}
		next, ok := x.classes[cur.SubClassOf]
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

// isOrDescends reports class == ancestor or a descendant relationship,
// but only for classes the vocabulary knows
func (x *Index) isOrDescends(class, ancestor string) bool {
	if class == ancestor {
		_, known := x.classes[class]
		return known
	}
	return x.IsDescendantOf(class, ancestor)
}

// PublishEndpointFor returns the registry publish endpoint for a class,
// inheriting from the nearest ancestor that declares one. Returns "" for
// unknown classes or classes with no publishable ancestor.
func (x *Index) PublishEndpointFor(class string) string {
	for class != "" {
		c, ok := x.classes[class]
		if !ok {
			return ""
		}
		if c.PublishEndpoint != "" {
			return c.PublishEndpoint
		}
		class = c.SubClassOf
	}
	return ""
}

// RangeOf returns the declared value range of a property
func (x *Index) RangeOf(property string) []string {
	return x.properties[property].Range
}

// RangeAllows reports whether a class is acceptable as a value of a
// property: it must equal a declared range class or descend from one
func (x *Index) RangeAllows(property, class string) bool {
	for _, r := range x.properties[property].Range {
		if x.isOrDescends(class, r) {
			return true
		}
	}
	return false
}

// PointerPropertiesFor returns, in declaration order, the properties of a
// class whose declared range includes a top-level class
func (x *Index) PointerPropertiesFor(class string) []string {
	return x.selectProperties(class, func(p Property) bool {
		for _, r := range p.Range {
			if x.IsTopLevel(r) {
				return true
			}
		}
		return false
	})
}

// ConditionProfilePropertiesFor returns, in declaration order, the
// properties of a class that may carry an embedded condition-profile-like
// sub-resource
func (x *Index) ConditionProfilePropertiesFor(class string) []string {
	return x.selectProperties(class, func(p Property) bool {
		for _, r := range p.Range {
			if x.classes[r].Embeddable {
				return true
			}
		}
		return false
	})
}

func (x *Index) selectProperties(class string, match func(Property) bool) []string {
	var out []string
	for _, name := range x.propOrder {
		p := x.properties[name]
		if !x.domainIncludes(p, class) {
			continue
		}
		if match(p) {
			out = append(out, name)
		}
	}
	return out
}

// domainIncludes reports whether a property applies to a class, honoring
// class inheritance. An empty domain applies everywhere.
func (x *Index) domainIncludes(p Property, class string) bool {
	if len(p.Domain) == 0 {
		return true
	}
	for _, d := range p.Domain {
		if x.isOrDescends(class, d) {
			return true
		}
	}
	return false
}
