package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDefault(t *testing.T) *Index {
	t.Helper()
	idx, err := Default()
	require.NoError(t, err)
	return idx
}

func TestLoad_RejectsBadInput(t *testing.T) {
	_, err := Load([]byte(`not json`))
	assert.Error(t, err)

	_, err = Load([]byte(`{"classes": []}`))
	assert.Error(t, err)
}

func TestIsTopLevel(t *testing.T) {
	idx := mustDefault(t)

	assert.True(t, idx.IsTopLevel("Organization"))
	assert.True(t, idx.IsTopLevel("BachelorDegree"))
	assert.False(t, idx.IsTopLevel("ConditionProfile"))
	assert.False(t, idx.IsTopLevel("Place"))
	assert.False(t, idx.IsTopLevel("NoSuchClass"))
}

func TestParentChain(t *testing.T) {
	idx := mustDefault(t)

	assert.Equal(t, "Degree", idx.ParentClass("BachelorDegree"))
	assert.Equal(t, "Credential", idx.ParentClass("Degree"))
	assert.Equal(t, "", idx.ParentClass("Credential"))
	assert.Equal(t, "", idx.ParentClass("NoSuchClass"))
}

func TestIsDescendantOf(t *testing.T) {
	idx := mustDefault(t)

	assert.True(t, idx.IsDescendantOf("BachelorDegree", "Credential"))
	assert.True(t, idx.IsDescendantOf("BachelorDegree", "Degree"))
	assert.True(t, idx.IsDescendantOf("QACredentialOrganization", "Agent"))

	// Strict descent: a class is not its own descendant
	assert.False(t, idx.IsDescendantOf("Credential", "Credential"))

	// Unknown classes and broken chains report false rather than failing
	assert.False(t, idx.IsDescendantOf("NoSuchClass", "Credential"))
	assert.False(t, idx.IsDescendantOf("BachelorDegree", "NoSuchClass"))
	assert.False(t, idx.IsDescendantOf("", "Credential"))
}

func TestPublishEndpointInheritance(t *testing.T) {
	idx := mustDefault(t)

	assert.Equal(t, "/credential/publishGraph", idx.PublishEndpointFor("Credential"))
	assert.Equal(t, "/credential/publishGraph", idx.PublishEndpointFor("BachelorDegree"))
	assert.Equal(t, "/organization/publishGraph", idx.PublishEndpointFor("QACredentialOrganization"))
	assert.Equal(t, "", idx.PublishEndpointFor("Place"))
	assert.Equal(t, "", idx.PublishEndpointFor("NoSuchClass"))
}

func TestPointerPropertiesFor(t *testing.T) {
	idx := mustDefault(t)

	props := idx.PointerPropertiesFor("Badge")
	assert.Contains(t, props, "ownedBy")
	assert.Contains(t, props, "approvedBy")
	assert.Contains(t, props, "regulatedBy")
	// requires points at ConditionProfile, which is not top-level
	assert.NotContains(t, props, "requires")
	// availableAt points at Place, also not top-level
	assert.NotContains(t, props, "availableAt")

	// ConditionProfile has pointer properties of its own
	cpProps := idx.PointerPropertiesFor("ConditionProfile")
	assert.Contains(t, cpProps, "targetCredential")
	assert.Contains(t, cpProps, "assertedBy")
}

func TestConditionProfilePropertiesFor(t *testing.T) {
	idx := mustDefault(t)

	props := idx.ConditionProfilePropertiesFor("Badge")
	assert.Contains(t, props, "requires")
	assert.Contains(t, props, "recommends")
	assert.NotContains(t, props, "ownedBy")
}

func TestRangeAllows(t *testing.T) {
	idx := mustDefault(t)

	// Exact range class and descendants are acceptable
	assert.True(t, idx.RangeAllows("ownedBy", "Organization"))
	assert.True(t, idx.RangeAllows("ownedBy", "QACredentialOrganization"))
	assert.True(t, idx.RangeAllows("requires", "ConditionProfile"))

	assert.False(t, idx.RangeAllows("ownedBy", "Badge"))
	assert.False(t, idx.RangeAllows("approvedBy", "Organization")) // range is the QA subclass
	assert.False(t, idx.RangeAllows("ownedBy", "NoSuchClass"))
	assert.False(t, idx.RangeAllows("noSuchProperty", "Organization"))
}

func TestRangeOf(t *testing.T) {
	idx := mustDefault(t)

	assert.Equal(t, []string{"QACredentialOrganization"}, idx.RangeOf("approvedBy"))
	assert.Nil(t, idx.RangeOf("noSuchProperty"))
}
