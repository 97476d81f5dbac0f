package model

// Well-known entity keys in source documents
const (
	KeyID      = "@id"
	KeyType    = "@type"
	KeyContext = "@context"
	KeyGraph   = "@graph"
	KeyCTID    = "ctid"
	KeySameAs  = "sameAs"
)

// Entity is an open attribute map describing one linked-data resource.
// It always carries an identifier and one or more type names; everything
// else is vocabulary-defined and passed through untouched.
type Entity map[string]any

// ID returns the entity identifier, or "" if absent
func (e Entity) ID() string {
	id, _ := e[KeyID].(string)
	return id
}

// SetID rewrites the entity identifier
func (e Entity) SetID(id string) {
	e[KeyID] = id
}

// Types returns the entity type names in declared order. A bare string
// type is returned as a one-element list.
func (e Entity) Types() []string {
	switch v := e[KeyType].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// PrimaryType returns the first declared type name, or ""
func (e Entity) PrimaryType() string {
	types := e.Types()
	if len(types) == 0 {
		return ""
	}
	return types[0]
}

// CTID returns the entity's durable identifier, or "" if it declares none
func (e Entity) CTID() string {
	ctid, _ := e[KeyCTID].(string)
	return ctid
}

// SameAs returns the entity's alternate identifiers in declared order
func (e Entity) SameAs() []string {
	switch v := e[KeySameAs].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if str, ok := s.(string); ok && str != "" {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// AddSameAs appends an alternate identifier, skipping duplicates
func (e Entity) AddSameAs(id string) {
	if id == "" {
		return
	}
	existing := e.SameAs()
	for _, s := range existing {
		if s == id {
			return
		}
	}
	out := make([]any, 0, len(existing)+1)
	for _, s := range existing {
		out = append(out, s)
	}
	e[KeySameAs] = append(out, id)
}

// ValueList normalizes a property value into an ordered list. Properties
// are always treated as lists of one or more values; a scalar is a
// one-element list and nil is empty.
func ValueList(v any) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	default:
		return []any{val}
	}
}

// AsEntity converts a decoded JSON object into an Entity, or nil if the
// value is not an object
func AsEntity(v any) Entity {
	switch m := v.(type) {
	case Entity:
		return m
	case map[string]any:
		return Entity(m)
	default:
		return nil
	}
}
