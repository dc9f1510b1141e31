// Package docqa provides pipeline configuration options for the document QA
// service: chunking, retrieval, extraction and store backend selection.
package docqa

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/loaddesk/loaddesk/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Store backends.
const (
	StoreMemory = "memory"
	StoreMilvus = "milvus"
)

// Options contains pipeline configuration.
type Options struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap is the character overlap between consecutive chunks.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// TopK is the number of chunks selected per question.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// FetchKMultiplier is the over-fetch factor for diversity re-ranking.
	FetchKMultiplier int `json:"fetch-k-multiplier" mapstructure:"fetch-k-multiplier"`

	// SimilarityThreshold drops candidates below this normalised score.
	SimilarityThreshold float64 `json:"similarity-threshold" mapstructure:"similarity-threshold"`

	// MMRLambda balances relevance against diversity in [0,1].
	MMRLambda float64 `json:"mmr-lambda" mapstructure:"mmr-lambda"`

	// Collection is the vector collection name.
	Collection string `json:"collection" mapstructure:"collection"`

	// EmbeddingDim is the embedding vector dimension.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// StoreBackend selects the vector store implementation (memory|milvus).
	StoreBackend string `json:"store-backend" mapstructure:"store-backend"`

	// AutoExtract runs structured extraction on every upload and indexes the
	// serialized record.
	AutoExtract bool `json:"auto-extract" mapstructure:"auto-extract"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		ChunkSize:           1000,
		ChunkOverlap:        200,
		TopK:                4,
		FetchKMultiplier:    3,
		SimilarityThreshold: 0.5,
		MMRLambda:           0.7,
		Collection:          "loaddesk_chunks",
		EmbeddingDim:        768,
		StoreBackend:        StoreMemory,
		AutoExtract:         true,
	}
}

// AddFlags adds flags for pipeline options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.ChunkSize, options.Join(prefixes...)+"docqa.chunk-size", o.ChunkSize, "Maximum chunk length in characters.")
	fs.IntVar(&o.ChunkOverlap, options.Join(prefixes...)+"docqa.chunk-overlap", o.ChunkOverlap, "Character overlap between consecutive chunks.")
	fs.IntVar(&o.TopK, options.Join(prefixes...)+"docqa.top-k", o.TopK, "Number of chunks selected per question.")
	fs.IntVar(&o.FetchKMultiplier, options.Join(prefixes...)+"docqa.fetch-k-multiplier", o.FetchKMultiplier, "Over-fetch factor for diversity re-ranking.")
	fs.Float64Var(&o.SimilarityThreshold, options.Join(prefixes...)+"docqa.similarity-threshold", o.SimilarityThreshold, "Minimum normalised similarity for a candidate chunk.")
	fs.Float64Var(&o.MMRLambda, options.Join(prefixes...)+"docqa.mmr-lambda", o.MMRLambda, "Relevance/diversity trade-off in [0,1].")
	fs.StringVar(&o.Collection, options.Join(prefixes...)+"docqa.collection", o.Collection, "Vector collection name.")
	fs.IntVar(&o.EmbeddingDim, options.Join(prefixes...)+"docqa.embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.StringVar(&o.StoreBackend, options.Join(prefixes...)+"docqa.store-backend", o.StoreBackend, "Vector store backend (memory|milvus).")
	fs.BoolVar(&o.AutoExtract, options.Join(prefixes...)+"docqa.auto-extract", o.AutoExtract, "Run structured extraction on upload and index the result.")
}

// Validate validates the pipeline options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("docqa.chunk-size must be positive"))
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("docqa.chunk-overlap must be in [0, chunk-size)"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("docqa.top-k must be positive"))
	}
	if o.FetchKMultiplier < 1 {
		errs = append(errs, fmt.Errorf("docqa.fetch-k-multiplier must be at least 1"))
	}
	if o.SimilarityThreshold < 0 || o.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("docqa.similarity-threshold must be in [0,1]"))
	}
	if o.MMRLambda < 0 || o.MMRLambda > 1 {
		errs = append(errs, fmt.Errorf("docqa.mmr-lambda must be in [0,1]"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("docqa.embedding-dim must be positive"))
	}
	if o.StoreBackend != StoreMemory && o.StoreBackend != StoreMilvus {
		errs = append(errs, fmt.Errorf("docqa.store-backend must be %q or %q", StoreMemory, StoreMilvus))
	}
	return errs
}

// Complete completes the pipeline options with defaults.
func (o *Options) Complete() error {
	if o.FetchKMultiplier == 0 {
		o.FetchKMultiplier = 3
	}
	return nil
}
