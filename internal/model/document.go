package model

import (
	"encoding/json"
	"fmt"
)

// Document is a parsed source document: a vocabulary context plus one or
// more entities. Source locations may serve either the enveloped form
// {"@context": ..., "@graph": [...]} or a single bare entity object.
type Document struct {
	Context string
	Graph   []Entity
}

// ParseDocument decodes a source document from JSON, accepting both the
// enveloped and the bare-entity form
func ParseDocument(data []byte) (*Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	ctx, _ := raw[KeyContext].(string)

	graphVal, hasGraph := raw[KeyGraph]
	if !hasGraph {
		// Bare entity form: the object itself is the single graph member
		entity := Entity(raw)
		delete(entity, KeyContext)
		return &Document{Context: ctx, Graph: []Entity{entity}}, nil
	}

	items, ok := graphVal.([]any)
	if !ok {
		return nil, fmt.Errorf("decode document: %q is not a list", KeyGraph)
	}

	doc := &Document{Context: ctx, Graph: make([]Entity, 0, len(items))}
	for i, item := range items {
		entity := AsEntity(item)
		if entity == nil {
			return nil, fmt.Errorf("decode document: %q member %d is not an object", KeyGraph, i)
		}
		doc.Graph = append(doc.Graph, entity)
	}
	return doc, nil
}

// GraphDocument is the publishable form of one entity: the root entity
// followed by its non-independent dependents, under a vocabulary context
type GraphDocument struct {
	Context string   `json:"@context"`
	Graph   []Entity `json:"@graph"`
}

// PublishRequest is the envelope submitted to a registry publish endpoint
type PublishRequest struct {
	OrganizationIdentifier string        `json:"organizationIdentifier"`
	Publish                bool          `json:"publish"`
	GraphInput             GraphDocument `json:"graphInput"`
}

// PublishResponse is the registry's answer to a publish submission
type PublishResponse struct {
	Successful bool     `json:"successful"`
	Messages   []string `json:"messages"`
}
