// Package pipeline orchestrates a run: fetch and process every source
// location, then order, extract and publish the resulting graphs.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/credpub/credpub/internal/cache"
	"github.com/credpub/credpub/internal/fetch"
	"github.com/credpub/credpub/internal/graph"
	"github.com/credpub/credpub/internal/model"
	"github.com/credpub/credpub/internal/process"
	"github.com/credpub/credpub/internal/registry"
	"github.com/credpub/credpub/internal/schema"
	"github.com/credpub/credpub/internal/store"
)

// Publisher submits one graph document to a publish endpoint
type Publisher interface {
	PublishGraph(ctx context.Context, endpoint string, g model.GraphDocument) (*model.PublishResponse, error)
}

// Pipeline wires the engine's collaborators for one run. Construct a
// fresh one (or Reset the store) between independent executions.
type Pipeline struct {
	cfg       *model.Config
	schema    *schema.Index
	store     *store.Store
	fetcher   *fetch.Client
	processor *process.Processor
	extractor *graph.Extractor
	orderer   *graph.Orderer
	publisher Publisher
	progress  func(format string, args ...any)
}

// New assembles a Pipeline from configuration and a vocabulary index
func New(cfg *model.Config, idx *schema.Index) *Pipeline {
	var opts []fetch.Option
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = defaultCacheDir()
		}
		opts = append(opts, fetch.WithCache(cache.NewLayered(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)))
	}
	if cfg.HTTP.RatePerHost > 0 {
		opts = append(opts, fetch.WithLimiter(fetch.NewHostLimiter(cfg.HTTP.RatePerHost, cfg.HTTP.RateBurst)))
	}
	if cfg.HTTP.RespectRobots {
		opts = append(opts, fetch.WithRobots(
			fetch.NewRobots(cfg.HTTP.UserAgent, cfg.HTTP.Timeout),
			registryHost(cfg.Registry.BaseURL),
		))
	}

	fetcher := fetch.New(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, opts...)
	st := store.New()

	p := &Pipeline{
		cfg:       cfg,
		schema:    idx,
		store:     st,
		fetcher:   fetcher,
		processor: process.New(st, idx, cfg.Registry, fetcher),
		extractor: graph.NewExtractor(st, idx),
		orderer:   graph.NewOrderer(st, idx),
		publisher: registry.New(cfg.Registry, cfg.HTTP.Timeout, cfg.HTTP.UserAgent),
		progress:  func(string, ...any) {},
	}
	return p
}

// SetPublisher swaps the publish transport; tests use this
func (p *Pipeline) SetPublisher(pub Publisher) { p.publisher = pub }

// SetProgress installs an operator progress callback
func (p *Pipeline) SetProgress(fn func(format string, args ...any)) {
	if fn != nil {
		p.progress = fn
	}
}

// Store exposes the run's entity store
func (p *Pipeline) Store() *store.Store { return p.store }

// Run processes the given source locations and, when publish is set,
// submits the resulting graphs in publication order. Resolution errors
// are collected and do not stop the run; the first publication failure
// halts remaining submissions and is returned alongside the report.
func (p *Pipeline) Run(ctx context.Context, sources []string, publish bool) (*model.RunReport, error) {
	report := &model.RunReport{StartedAt: time.Now().UTC(), Sources: sources}

	for _, src := range sources {
		if err := p.processSource(ctx, src, report); err != nil {
			report.AddError(fmt.Sprintf("source %s: %v", src, err))
		}
	}

	// Select by the run's source locations plus the canonical ids their
	// entities resolved to, so documents whose URL differs from the
	// entity identifier still publish
	selectors := make([]string, 0, len(sources)+len(report.Processed))
	selectors = append(selectors, sources...)
	selectors = append(selectors, report.Processed...)
	report.Order = p.orderer.OrderForPublication(selectors)

	if !publish {
		for _, id := range report.Order {
			if g := p.extractor.ExtractGraph(id, p.cfg.Registry); g != nil {
				report.Graphs = append(report.Graphs, *g)
			}
		}
		return report, nil
	}

	for _, id := range report.Order {
		g := p.extractor.ExtractGraph(id, p.cfg.Registry)
		if g == nil {
			report.AddError(fmt.Sprintf("no record for %s, skipping publish", id))
			continue
		}
		endpoint := p.schema.PublishEndpointFor(g.Graph[0].PrimaryType())
		if endpoint == "" {
			report.AddError(fmt.Sprintf("no publish endpoint for type %q of %s", g.Graph[0].PrimaryType(), id))
			continue
		}
		p.progress("publishing %s -> %s", id, endpoint)
		if _, err := p.publisher.PublishGraph(ctx, endpoint, *g); err != nil {
			// Publication failures are run-terminating
			report.AddError(err.Error())
			return report, err
		}
		report.Published = append(report.Published, id)
	}
	return report, nil
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "credpub-cache")
	}
	return filepath.Join(home, ".credpub", "cache")
}

func registryHost(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// processSource loads one source location and processes every entity it
// contains. Per-entity failures are recorded and do not stop siblings.
func (p *Pipeline) processSource(ctx context.Context, src string, report *model.RunReport) error {
	doc, err := p.loadDocument(ctx, src)
	if err != nil {
		return err
	}
	if doc.Context != "" && doc.Context != p.cfg.Registry.Context {
		return fmt.Errorf("unexpected vocabulary context %q", doc.Context)
	}

	p.progress("processing %s (%d entities)", src, len(doc.Graph))
	for _, entity := range doc.Graph {
		resolved, err := p.processor.ProcessEntity(ctx, entity, src)
		if err != nil {
			report.AddError(fmt.Sprintf("source %s: entity %s: %v", src, entity.ID(), err))
			continue
		}
		// Embedded-only value types come back unchanged and unregistered
		if rec := p.store.Get(resolved.ID()); rec != nil && rec.Processed {
			report.Processed = append(report.Processed, resolved.ID())
		}
		for _, warn := range p.processor.Warnings() {
			report.AddError(warn.Error())
		}
	}
	return nil
}

// loadDocument reads a source location: a local file when one exists at
// that path, otherwise an HTTP(S) URL via the fetch transport
func (p *Pipeline) loadDocument(ctx context.Context, src string) (*model.Document, error) {
	if _, err := os.Stat(src); err == nil {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		return model.ParseDocument(data)
	}
	return p.fetcher.FetchDocument(ctx, src)
}
