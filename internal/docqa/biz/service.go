package biz

import (
	"context"
	"crypto/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kart-io/logger"
	"github.com/oklog/ulid/v2"

	"github.com/loaddesk/loaddesk/internal/docqa/metrics"
	"github.com/loaddesk/loaddesk/internal/docqa/store"
	"github.com/loaddesk/loaddesk/internal/model"
	"github.com/loaddesk/loaddesk/pkg/llm"
	"github.com/loaddesk/loaddesk/internal/pkg/docparse"
	"github.com/loaddesk/loaddesk/pkg/utils/errors"
)

// Document 已入库文档的登记信息，保留解析后的原文供结构化抽取使用。
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Text       string    `json:"-"`
	ChunkCount int       `json:"chunk_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// UploadResult 单个文件的入库结果。
type UploadResult struct {
	DocumentID string                  `json:"document_id"`
	Name       string                  `json:"name"`
	ChunkCount int                     `json:"chunk_count"`
	Extraction *model.ExtractionRecord `json:"extraction,omitempty"`
}

// Source 标注应答引用的块来源。
type Source struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Section      string  `json:"section"`
	ChunkIndex   int     `json:"chunk_index"`
	Score        float64 `json:"score"`
}

// Answer 问答应答。
type Answer struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Sources    []Source `json:"sources"`
	Cached     bool     `json:"cached"`
}

// Stats 服务运行状态概览。
type Stats struct {
	Documents  []*Document      `json:"documents"`
	ChunkCount int64            `json:"chunk_count"`
	Metrics    metrics.Snapshot `json:"metrics"`
}

// ServiceConfig 业务层配置。
type ServiceConfig struct {
	Collection   string
	EmbeddingDim int
	ChunkSize    int
	ChunkOverlap int
	AutoExtract  bool
}

// DocQAService 串联文档入库、问答与结构化抽取。
type DocQAService struct {
	cfg       ServiceConfig
	store     store.VectorStore
	embedder  llm.EmbeddingProvider
	ingester  *Ingester
	retriever *Retriever
	generator *Generator
	extractor *Extractor
	guardrail *Guardrail
	cache     *AnswerCache
	metrics   *metrics.Metrics

	mu          sync.RWMutex
	documents   map[string]*Document
	docOrder    []string
	extractions map[string]*model.ExtractionRecord

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

// NewDocQAService 创建业务服务。cache 可为 nil，表示缓存未启用。
func NewDocQAService(
	cfg ServiceConfig,
	vs store.VectorStore,
	embedder llm.EmbeddingProvider,
	chat llm.ChatProvider,
	guardrail *Guardrail,
	cache *AnswerCache,
	retrieverCfg RetrieverConfig,
) *DocQAService {
	retrieverCfg.Collection = cfg.Collection

	return &DocQAService{
		cfg:         cfg,
		store:       vs,
		embedder:    embedder,
		ingester:    NewIngester(cfg.ChunkSize, cfg.ChunkOverlap),
		retriever:   NewRetriever(vs, embedder, retrieverCfg),
		generator:   NewGenerator(chat),
		extractor:   NewExtractor(chat),
		guardrail:   guardrail,
		cache:       cache,
		metrics:     metrics.Get(),
		documents:   make(map[string]*Document),
		extractions: make(map[string]*model.ExtractionRecord),
		entropy:     ulid.Monotonic(rand.Reader, 0),
	}
}

// Init 确保向量集合存在。
func (s *DocQAService) Init(ctx context.Context) error {
	return s.store.CreateCollection(ctx, &store.CollectionConfig{
		Name:        s.cfg.Collection,
		Description: "logistics document chunks",
		Dimension:   s.cfg.EmbeddingDim,
	})
}

func (s *DocQAService) newDocumentID() string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String())
}

// UploadDocument 解析、切分、向量化并索引一个文件。
// 自动抽取失败不阻断入库，只记录日志；/extract 可重试。
func (s *DocQAService) UploadDocument(ctx context.Context, filename string, content []byte) (*UploadResult, error) {
	text, err := docparse.Parse(filename, content)
	if err != nil {
		return nil, err
	}

	docID := s.newDocumentID()

	chunks, err := s.ingester.BuildChunks(docID, filename, text)
	if err != nil {
		return nil, errors.ErrIndexFailure.WithCause(err)
	}
	if len(chunks) == 0 {
		return nil, errors.ErrEmptyDocument.WithMessagef("no indexable content in %q", filename)
	}

	if err := s.indexChunks(ctx, chunks); err != nil {
		return nil, err
	}
	s.metrics.RecordIndexing(len(chunks))

	doc := &Document{
		ID:         docID,
		Name:       filename,
		Text:       text,
		ChunkCount: len(chunks),
		UploadedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.documents[docID] = doc
	s.docOrder = append(s.docOrder, docID)
	s.mu.Unlock()

	logger.Infow("document indexed",
		"document_id", docID, "name", filename, "chunks", len(chunks))

	result := &UploadResult{DocumentID: docID, Name: filename, ChunkCount: len(chunks)}

	if s.cfg.AutoExtract {
		record, err := s.runExtraction(ctx, doc)
		if err != nil {
			logger.Warnw("auto-extraction failed, document remains searchable",
				"document_id", docID, "error", err)
		} else {
			result.Extraction = record
		}
	}

	return result, nil
}

// indexChunks 向量化并批量写入。
func (s *DocQAService) indexChunks(ctx context.Context, chunks []*store.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embeddings, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return errors.ErrEmbeddingFailure.WithCause(err)
	}
	if len(embeddings) != len(chunks) {
		return errors.ErrEmbeddingFailure.WithMessagef(
			"embedding count %d does not match chunk count %d", len(embeddings), len(chunks))
	}
	for i, c := range chunks {
		c.Embedding = embeddings[i]
	}

	if err := s.store.Insert(ctx, s.cfg.Collection, chunks); err != nil {
		return errors.ErrIndexFailure.WithCause(err)
	}
	return nil
}

// Ask 回答一个问题。护栏命中时返回固定拒答与零置信度，不触达检索与模型。
func (s *DocQAService) Ask(ctx context.Context, question, documentID string, topK int) (*Answer, error) {
	started := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.ErrInvalidRequest.WithMessage("question must not be empty")
	}

	if err := s.guardrail.Check(question); err != nil {
		s.metrics.RecordGuardrailRejection()
		logger.Warnw("question rejected by guardrail", "error", err)
		return &Answer{
			Question:   question,
			Answer:     RefusalMessage,
			Confidence: 0.0,
			Sources:    []Source{},
		}, nil
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, question, documentID)
		if err != nil {
			logger.Warnw("answer cache lookup failed", "error", err)
		} else if cached != nil {
			cached.Cached = true
			s.metrics.RecordQuestion(true, time.Since(started))
			return cached, nil
		}
	}

	results, err := s.retriever.Retrieve(ctx, question, documentID, topK)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRetrieval(len(results))

	text, err := s.generator.GenerateAnswer(ctx, question, results)
	if err != nil {
		return nil, err
	}

	answer := &Answer{
		Question: question,
		Answer:   text,
		Confidence: ScoreConfidence(ConfidenceSignals{
			SupportingChunks: len(results),
			Answer:           text,
		}),
		Sources: make([]Source, 0, len(results)),
	}
	for _, r := range results {
		answer.Sources = append(answer.Sources, Source{
			DocumentID:   r.Chunk.DocumentID,
			DocumentName: r.Chunk.DocumentName,
			Section:      r.Chunk.Section,
			ChunkIndex:   r.Chunk.ChunkIndex,
			Score:        r.Score,
		})
	}

	if s.cache != nil {
		s.cache.Set(ctx, question, documentID, answer)
	}
	s.metrics.RecordQuestion(false, time.Since(started))

	return answer, nil
}

// Extract 对已入库文档执行（或重试）结构化抽取。
func (s *DocQAService) Extract(ctx context.Context, documentID string) (*model.ExtractionRecord, error) {
	s.mu.RLock()
	doc, ok := s.documents[documentID]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.ErrDocumentNotFound.WithMessagef("document %q is not indexed", documentID)
	}

	return s.runExtraction(ctx, doc)
}

// runExtraction 抽取、登记并把结构化块写回索引。
func (s *DocQAService) runExtraction(ctx context.Context, doc *Document) (*model.ExtractionRecord, error) {
	record, err := s.extractor.Extract(ctx, doc.ID, doc.Name, doc.Text)
	s.metrics.RecordExtraction(err)
	if err != nil {
		return record, err
	}

	s.mu.Lock()
	s.extractions[doc.ID] = record
	s.mu.Unlock()

	if err := s.indexChunks(ctx, []*store.Chunk{StructuredChunk(record)}); err != nil {
		logger.Warnw("failed to index structured data chunk",
			"document_id", doc.ID, "error", err)
	}

	logger.Infow("structured extraction complete",
		"document_id", doc.ID, "completeness", record.Completeness)

	return record, nil
}

// Extraction 返回某文档已缓存的抽取记录。
func (s *DocQAService) Extraction(documentID string) (*model.ExtractionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.extractions[documentID]
	return record, ok
}

// Stats 返回运行状态。
func (s *DocQAService) Stats(ctx context.Context) (*Stats, error) {
	count, err := s.store.Count(ctx, s.cfg.Collection)
	if err != nil {
		return nil, errors.ErrSearchFailure.WithCause(err)
	}

	s.mu.RLock()
	docs := make([]*Document, 0, len(s.docOrder))
	for _, id := range s.docOrder {
		docs = append(docs, s.documents[id])
	}
	s.mu.RUnlock()

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt.Before(docs[j].UploadedAt)
	})

	return &Stats{
		Documents:  docs,
		ChunkCount: count,
		Metrics:    s.metrics.Read(),
	}, nil
}
