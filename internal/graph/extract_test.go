package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credpub/credpub/internal/model"
	"github.com/credpub/credpub/internal/schema"
	"github.com/credpub/credpub/internal/store"
)

var testReg = model.RegistryConfig{
	BaseURL: "https://registry.test",
	Context: "https://vocab.test/context/json",
}

func newFixtures(t *testing.T) (*store.Store, *schema.Index) {
	t.Helper()
	idx, err := schema.Default()
	require.NoError(t, err)
	return store.New(), idx
}

func TestExtractGraph_UnknownID(t *testing.T) {
	st, idx := newFixtures(t)
	x := NewExtractor(st, idx)

	assert.Nil(t, x.ExtractGraph("https://registry.test/resources/ce-none", testReg))
}

func TestExtractGraph_RootAndBlankDependents(t *testing.T) {
	st, idx := newFixtures(t)
	x := NewExtractor(st, idx)

	root := st.Register(model.Entity{"@id": "a", "@type": "Badge", "ctid": "ce-1"}, true, testReg, "", true)
	st.Register(model.Entity{"@id": "_:qa", "@type": "QACredentialOrganization"}, false, testReg, root.ID(), false)
	st.Register(model.Entity{"@id": "b", "@type": "CredentialOrganization", "ctid": "ce-2"}, false, testReg, root.ID(), false)

	doc := x.ExtractGraph(root.ID(), testReg)
	require.NotNil(t, doc)
	assert.Equal(t, testReg.Context, doc.Context)

	// Root first, then the blank dependent; the independently
	// publishable organization ships as its own graph
	require.Len(t, doc.Graph, 2)
	assert.Equal(t, root.ID(), doc.Graph[0].ID())
	assert.Equal(t, "_:qa", doc.Graph[1].ID())
}

func TestExtractGraph_DiscoveryOrderAndDedupe(t *testing.T) {
	st, idx := newFixtures(t)
	x := NewExtractor(st, idx)

	root := st.Register(model.Entity{"@id": "a", "@type": "Badge", "ctid": "ce-1"}, true, testReg, "", true)
	st.Register(model.Entity{"@id": "_:one", "@type": "QACredentialOrganization"}, false, testReg, root.ID(), false)
	st.Register(model.Entity{"@id": "_:two", "@type": "QACredentialOrganization"}, false, testReg, root.ID(), false)

	// Reachable via a second property: the edge list stays deduplicated
	st.AddReference(root.ID(), "_:one")

	doc := x.ExtractGraph(root.ID(), testReg)
	require.NotNil(t, doc)

	ids := make([]string, 0, len(doc.Graph))
	for _, e := range doc.Graph {
		ids = append(ids, e.ID())
	}
	assert.Equal(t, []string{root.ID(), "_:one", "_:two"}, ids)
}

func TestExtractGraph_SkipsDanglingEdges(t *testing.T) {
	st, idx := newFixtures(t)
	x := NewExtractor(st, idx)

	root := st.Register(model.Entity{"@id": "a", "@type": "Badge", "ctid": "ce-1"}, true, testReg, "", true)
	// Synthesized references point at entities never registered locally
	st.AddReference(root.ID(), "https://registry.test/resources/ce-elsewhere")

	doc := x.ExtractGraph(root.ID(), testReg)
	require.NotNil(t, doc)
	assert.Len(t, doc.Graph, 1)
}
