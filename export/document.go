package export

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Section is one part of a document. Media holds references.
type Section struct {
	Heading string   `json:"heading" yaml:"heading"`
	Body    string   `json:"body" yaml:"body"`
	Media   []string `json:"media" yaml:"media"`
}

// Document is the input to a build.
type Document struct {
	Title    string    `json:"title" yaml:"title"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// RenderedSection is a section with its media embedded.
type RenderedSection struct {
	Heading string
	Body    string
	Assets  []Asset
}

// Rendered is a document ready for output.
type Rendered struct {
	Title       string
	GeneratedAt time.Time
	Sections    []RenderedSection
}

// Unavailable counts the assets that could not be embedded.
func (r *Rendered) Unavailable() int {
	n := 0
	for _, s := range r.Sections {
		for _, a := range s.Assets {
			if a.Unavailable {
				n++
			}
		}
	}
	return n
}

// AssetEmbedder embeds one reference. *Embedder implements it.
type AssetEmbedder interface {
	Embed(ctx context.Context, ref string) Asset
}

// Builder embeds every media reference of a document.
type Builder struct {
	embedder    AssetEmbedder
	concurrency int
	now         func() time.Time
}

// NewBuilder creates a builder running at most concurrency embeds at once.
func NewBuilder(embedder AssetEmbedder, concurrency int) *Builder {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Builder{embedder: embedder, concurrency: concurrency, now: time.Now}
}

// Build embeds all media of doc concurrently. A reference that appears
// more than once is embedded once. Build never aborts: media that cannot be
// embedded comes back as an unavailable asset.
func (b *Builder) Build(ctx context.Context, doc Document) *Rendered {
	assets := make(map[string]Asset)
	var refs []string
	for _, s := range doc.Sections {
		for _, ref := range s.Media {
			if _, seen := assets[ref]; !seen {
				assets[ref] = unavailable(ref)
				refs = append(refs, ref)
			}
		}
	}

	embedded := make([]Asset, len(refs))
	g := new(errgroup.Group)
	g.SetLimit(b.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			embedded[i] = b.embedder.Embed(ctx, ref)
			return nil
		})
	}
	_ = g.Wait()
	for i, ref := range refs {
		assets[ref] = embedded[i]
	}

	out := &Rendered{
		Title:       doc.Title,
		GeneratedAt: b.now(),
		Sections:    make([]RenderedSection, len(doc.Sections)),
	}
	for i, s := range doc.Sections {
		rs := RenderedSection{Heading: s.Heading, Body: s.Body, Assets: make([]Asset, len(s.Media))}
		for j, ref := range s.Media {
			rs.Assets[j] = assets[ref]
		}
		out.Sections[i] = rs
	}
	return out
}
