package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credpub/credpub/internal/model"
	"github.com/credpub/credpub/internal/schema"
)

const testContext = "https://vocab.test/context/json"

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Registry.BaseURL = "https://registry.test"
	cfg.Registry.Context = testContext
	cfg.Registry.OrganizationCTID = "ce-org"
	cfg.Cache.Enabled = false
	cfg.HTTP.RatePerHost = 0
	return cfg
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	idx, err := schema.Default()
	require.NoError(t, err)
	return New(testConfig(), idx)
}

func writeSource(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// fakePublisher records submissions and optionally fails them
type fakePublisher struct {
	endpoints []string
	published []string
	failAll   bool
}

func (f *fakePublisher) PublishGraph(_ context.Context, endpoint string, g model.GraphDocument) (*model.PublishResponse, error) {
	if f.failAll {
		return nil, fmt.Errorf("publish %s: registry rejected graph", g.Graph[0].ID())
	}
	f.endpoints = append(f.endpoints, endpoint)
	f.published = append(f.published, g.Graph[0].ID())
	return &model.PublishResponse{Successful: true}, nil
}

// The organization precedes the badge, so the badge's ownedBy reference
// resolves from store state rather than the network
const twoEntitySource = `{
	"@context": "https://vocab.test/context/json",
	"@graph": [
		{
			"@id": "http://example.edu/org",
			"@type": "CredentialOrganization",
			"ctid": "ce-owner"
		},
		{
			"@id": "http://example.edu/badge/1",
			"@type": "Badge",
			"ctid": "ce-badge",
			"ownedBy": "http://example.edu/org",
			"approvedBy": {"@type": "QACredentialOrganization", "name": "QA Board"}
		}
	]
}`

func TestRun_PlanMode(t *testing.T) {
	p := newTestPipeline(t)
	src := writeSource(t, "source.json", twoEntitySource)

	report, err := p.Run(context.Background(), []string{src}, false)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)

	badgeID := "https://registry.test/resources/ce-badge"
	orgID := "https://registry.test/resources/ce-owner"

	assert.Equal(t, []string{orgID, badgeID}, report.Processed)
	// Organizations publish before credentials
	assert.Equal(t, []string{orgID, badgeID}, report.Order)
	assert.Empty(t, report.Published)

	require.Len(t, report.Graphs, 2)
	assert.Equal(t, orgID, report.Graphs[0].Graph[0].ID())

	// The badge graph carries its blank QA dependent inline; the owning
	// organization publishes as its own graph
	badgeGraph := report.Graphs[1]
	require.Len(t, badgeGraph.Graph, 2)
	assert.Equal(t, badgeID, badgeGraph.Graph[0].ID())
	assert.Equal(t, "QA Board", badgeGraph.Graph[1]["name"])

	// ownedBy resolved to the organization's canonical identifier even
	// though the organization appears later in the document
	assert.Equal(t, []any{orgID}, badgeGraph.Graph[0]["ownedBy"])
}

func TestRun_PublishOrderAndEndpoints(t *testing.T) {
	p := newTestPipeline(t)
	pub := &fakePublisher{}
	p.SetPublisher(pub)
	src := writeSource(t, "source.json", twoEntitySource)

	report, err := p.Run(context.Background(), []string{src}, true)
	require.NoError(t, err)

	badgeID := "https://registry.test/resources/ce-badge"
	orgID := "https://registry.test/resources/ce-owner"

	assert.Equal(t, []string{orgID, badgeID}, pub.published)
	assert.Equal(t, []string{"/organization/publishGraph", "/credential/publishGraph"}, pub.endpoints)
	assert.Equal(t, []string{orgID, badgeID}, report.Published)
}

func TestRun_PublishFailureHaltsRun(t *testing.T) {
	p := newTestPipeline(t)
	p.SetPublisher(&fakePublisher{failAll: true})
	src := writeSource(t, "source.json", twoEntitySource)

	report, err := p.Run(context.Background(), []string{src}, true)

	require.Error(t, err)
	assert.Empty(t, report.Published)
	// The failure is also visible in the report
	require.NotEmpty(t, report.Errors)
}

func TestRun_ResolvesRemoteReference(t *testing.T) {
	var remoteURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{
			"@context": %q,
			"@graph": [{"@id": %q, "@type": "QACredentialOrganization", "ctid": "ce-qa"}]
		}`, testContext, remoteURL)
	}))
	defer server.Close()
	remoteURL = server.URL + "/qa"

	src := writeSource(t, "source.json", fmt.Sprintf(`{
		"@context": %q,
		"@graph": [{
			"@id": "http://example.edu/badge/1",
			"@type": "Badge",
			"ctid": "ce-badge",
			"approvedBy": %q
		}]
	}`, testContext, remoteURL))

	p := newTestPipeline(t)
	report, err := p.Run(context.Background(), []string{src}, false)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)

	qaID := "https://registry.test/resources/ce-qa"
	rec := p.Store().Get(qaID)
	require.NotNil(t, rec, "fetched reference registers under its canonical identifier")
	assert.True(t, rec.Fetched)

	badge := p.Store().Get("https://registry.test/resources/ce-badge")
	require.NotNil(t, badge)
	assert.Equal(t, []any{qaID}, badge.Entity["approvedBy"])
}

func TestRun_ResolutionErrorsAreCollected(t *testing.T) {
	// One entity lacks a durable identifier; its sibling still processes
	src := writeSource(t, "source.json", fmt.Sprintf(`{
		"@context": %q,
		"@graph": [
			{"@id": "http://example.edu/bad", "@type": "Badge"},
			{"@id": "http://example.edu/ok", "@type": "Badge", "ctid": "ce-ok"}
		]
	}`, testContext))

	p := newTestPipeline(t)
	report, err := p.Run(context.Background(), []string{src}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://registry.test/resources/ce-ok"}, report.Processed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "durable identifier")
}

func TestRun_WrongContextSource(t *testing.T) {
	src := writeSource(t, "source.json", `{
		"@context": "https://other.vocab.test/context",
		"@graph": [{"@id": "x", "@type": "Badge", "ctid": "ce-1"}]
	}`)

	p := newTestPipeline(t)
	report, err := p.Run(context.Background(), []string{src}, false)
	require.NoError(t, err)

	assert.Empty(t, report.Processed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "vocabulary context")
}
