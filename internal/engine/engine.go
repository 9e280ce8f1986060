// Package engine implements the FAQ matching engine: mode selection between
// dense embeddings and a TF-IDF fallback, index building with atomic snapshot
// swaps, cosine similarity ranking, and query language detection.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/swasth-ai/swasth/internal/config"
	"github.com/swasth-ai/swasth/internal/embedding"
	"github.com/swasth-ai/swasth/internal/lang"
	"github.com/swasth-ai/swasth/internal/models"
	"github.com/swasth-ai/swasth/pkg/utils"
	"go.uber.org/zap"
)

// Mode identifies the active matching strategy.
type Mode string

const (
	// ModeEmbedding ranks by cosine similarity over dense embeddings.
	ModeEmbedding Mode = "embedding"
	// ModeLexical ranks by cosine similarity over TF-IDF weight vectors.
	ModeLexical Mode = "lexical"
)

const defaultEmbedBatchSize = 32

// EmbedderFactory acquires the embedding capability. It is invoked exactly
// once, at Initialize; an error selects lexical mode for the engine's
// lifetime.
type EmbedderFactory func(ctx context.Context) (embedding.Embedder, error)

// Match pairs a corpus entry with its similarity score.
type Match struct {
	Entry models.FaqEntry `json:"entry"`
	Score float64         `json:"score"`
}

// searchIndex is one immutable index snapshot, tagged with the mode that
// built it. Searches dispatch on the snapshot's own tag, so a reader that
// captured a snapshot is unaffected by anything that happens afterwards.
type searchIndex struct {
	mode    Mode
	entries []models.FaqEntry
	dense   [][]float32   // embedding mode: parallel to entries
	lexical *lexicalModel // lexical mode
}

// Engine owns the live index snapshot and the mode selected at Initialize.
// Searches run concurrently against one snapshot; rebuilds are exclusive
// with each other and publish with a single atomic swap. Instances are
// independent, so tests can run several side by side.
type Engine struct {
	factory  EmbedderFactory
	detector *lang.Detector
	cfg      *config.SearchConfig
	logger   *zap.Logger

	initMu      sync.Mutex
	initialized bool
	mode        Mode
	embedder    embedding.Embedder

	rebuildMu sync.Mutex
	mu        sync.RWMutex
	index     *searchIndex
}

// New creates an engine. A nil factory forces lexical mode (embedding
// disabled by configuration). Call Initialize before any other operation.
func New(factory EmbedderFactory, detector *lang.Detector, cfg *config.SearchConfig, logger *zap.Logger) *Engine {
	return &Engine{
		factory:  factory,
		detector: detector,
		cfg:      cfg,
		logger:   logger,
	}
}

// Initialize acquires the embedding capability and selects the matching
// mode. Acquisition failure is recovered locally: the degradation is logged
// and the engine runs lexically for its whole lifetime, with no automatic
// retry or later promotion. Repeat calls return the already-selected mode.
func (e *Engine) Initialize(ctx context.Context) Mode {
	e.initMu.Lock()
	defer e.initMu.Unlock()
	if e.initialized {
		return e.mode
	}
	e.initialized = true
	if e.factory == nil {
		e.mode = ModeLexical
		e.logger.Info("embedding disabled, matching lexically")
		return e.mode
	}
	embedder, err := e.factory(ctx)
	if err != nil {
		e.mode = ModeLexical
		e.logger.Warn("falling back to lexical matching",
			zap.Error(&CapabilityUnavailableError{Err: err}))
		return e.mode
	}
	e.embedder = embedder
	e.mode = ModeEmbedding
	e.logger.Info("embedding capability acquired",
		zap.Int("dimensions", embedder.Dimensions()))
	return e.mode
}

// CurrentMode returns the mode selected at Initialize.
func (e *Engine) CurrentMode() Mode {
	e.initMu.Lock()
	defer e.initMu.Unlock()
	return e.mode
}

// EmbeddingEnabled reports whether the engine holds a live embedding capability.
func (e *Engine) EmbeddingEnabled() bool {
	return e.CurrentMode() == ModeEmbedding
}

// RebuildIndex builds a fresh index over entries under the current mode and
// publishes it with one atomic swap; readers that started earlier finish on
// the snapshot they captured. On any failure the previous index stays
// active. An empty corpus is valid and yields an index that matches
// nothing. At most one rebuild runs at a time.
func (e *Engine) RebuildIndex(ctx context.Context, entries []models.FaqEntry) error {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	for i := range entries {
		if utils.IsBlank(entries[i].Question) {
			return &IndexBuildError{Reason: fmt.Sprintf("entry %d has no question text", entries[i].ID)}
		}
		if utils.IsBlank(entries[i].Answer) {
			return &IndexBuildError{Reason: fmt.Sprintf("entry %d has no answer text", entries[i].ID)}
		}
	}

	snapshot := append([]models.FaqEntry(nil), entries...)
	texts := make([]string, len(snapshot))
	for i := range snapshot {
		texts[i] = utils.NormalizeText(snapshot[i].IndexText())
	}

	mode := e.CurrentMode()
	start := time.Now()
	idx := &searchIndex{mode: mode, entries: snapshot}
	switch mode {
	case ModeEmbedding:
		dense, err := e.encodeBatches(ctx, texts)
		if err != nil {
			return err
		}
		idx.dense = dense
	default:
		idx.lexical = fitLexical(texts, e.lexicalOptions())
	}

	e.mu.Lock()
	e.index = idx
	e.mu.Unlock()

	fields := []zap.Field{
		zap.String("mode", string(mode)),
		zap.Int("entries", len(snapshot)),
		zap.Duration("took", time.Since(start)),
	}
	if idx.lexical != nil {
		fields = append(fields, zap.Int("vocabulary", idx.lexical.vocabularySize()))
	}
	e.logger.Info("index rebuilt", fields...)
	return nil
}

// Search ranks the corpus against query and returns the topK best matches in
// descending score order; equal scores keep corpus insertion order, earliest
// entry first. topK values of zero or below are treated as 1. An empty or
// never-built index returns an empty list and no error; callers must handle
// "no match" separately from "matched with a low score".
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	if utils.IsBlank(query) {
		return nil, &InvalidQueryError{Reason: "query text is empty or whitespace-only"}
	}
	if topK <= 0 {
		topK = 1
	}
	idx := e.snapshot()
	if idx == nil || len(idx.entries) == 0 {
		return []Match{}, nil
	}

	normalized := utils.NormalizeText(query)
	scores := make([]float64, len(idx.entries))
	switch idx.mode {
	case ModeEmbedding:
		qvec, err := e.embedder.Embed(ctx, normalized)
		if err != nil {
			return nil, fmt.Errorf("encode query: %w", err)
		}
		for i, vec := range idx.dense {
			scores[i] = Cosine(qvec, vec)
		}
	default:
		qvec, qnorm := idx.lexical.vectorize(normalized)
		for i := range scores {
			scores[i] = idx.lexical.score(qvec, qnorm, i)
		}
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	if topK > len(order) {
		topK = len(order)
	}
	matches := make([]Match, topK)
	for i := range matches {
		matches[i] = Match{Entry: idx.entries[order[i]], Score: scores[order[i]]}
	}
	return matches, nil
}

// DetectLanguage returns a best-effort ISO-639-1 code for query. The result
// is advisory metadata only; detection on short strings is unreliable. Empty
// input violates the input contract and fails with InvalidQueryError.
func (e *Engine) DetectLanguage(query string) (string, error) {
	if utils.IsBlank(query) {
		return "", &InvalidQueryError{Reason: "detection input is empty"}
	}
	return e.detector.Detect(query), nil
}

// IndexSize returns the number of entries in the live snapshot.
func (e *Engine) IndexSize() int {
	idx := e.snapshot()
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Close releases the embedding capability, if one was acquired.
func (e *Engine) Close() error {
	e.initMu.Lock()
	defer e.initMu.Unlock()
	if e.embedder != nil {
		return e.embedder.Close()
	}
	return nil
}

func (e *Engine) snapshot() *searchIndex {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index
}

func (e *Engine) encodeBatches(ctx context.Context, texts []string) ([][]float32, error) {
	batch := e.cfg.EmbedBatchSize
	if batch <= 0 {
		batch = defaultEmbedBatchSize
	}
	dense := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batch {
		end := start + batch
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, &IndexBuildError{Reason: fmt.Sprintf("encode entries %d-%d", start, end-1), Err: err}
		}
		if len(vecs) != end-start {
			return nil, &IndexBuildError{Reason: fmt.Sprintf("encoder returned %d vectors for %d texts", len(vecs), end-start)}
		}
		dense = append(dense, vecs...)
	}
	return dense, nil
}

func (e *Engine) lexicalOptions() LexicalOptions {
	return LexicalOptions{
		MaxFeatures: e.cfg.Lexical.MaxFeatures,
		NgramMin:    e.cfg.Lexical.NgramMin,
		NgramMax:    e.cfg.Lexical.NgramMax,
		StopWords:   e.cfg.Lexical.StopWords,
	}
}
