// Package metrics tracks pipeline counters with atomic operations and exports
// them in Prometheus text format.
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds the service counters.
type Metrics struct {
	questionsTotal    atomic.Int64
	cacheHitsTotal    atomic.Int64
	guardrailRejected atomic.Int64
	retrievalsTotal   atomic.Int64
	chunksRetrieved   atomic.Int64
	llmCallsTotal     atomic.Int64
	llmErrorsTotal    atomic.Int64
	tokensTotal       atomic.Int64
	documentsIndexed  atomic.Int64
	chunksIndexed     atomic.Int64
	extractionsTotal  atomic.Int64
	extractionErrors  atomic.Int64
	questionLatencyMs atomic.Int64
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide metrics instance.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{}
	})
	return instance
}

// RecordQuestion records one answered question.
func (m *Metrics) RecordQuestion(cacheHit bool, latency time.Duration) {
	m.questionsTotal.Add(1)
	if cacheHit {
		m.cacheHitsTotal.Add(1)
	}
	m.questionLatencyMs.Add(latency.Milliseconds())
}

// RecordGuardrailRejection records a denied question.
func (m *Metrics) RecordGuardrailRejection() {
	m.guardrailRejected.Add(1)
}

// RecordRetrieval records a retrieval and how many chunks it selected.
func (m *Metrics) RecordRetrieval(chunks int) {
	m.retrievalsTotal.Add(1)
	m.chunksRetrieved.Add(int64(chunks))
}

// RecordLLMCall records a model invocation.
func (m *Metrics) RecordLLMCall(tokens int, err error) {
	m.llmCallsTotal.Add(1)
	m.tokensTotal.Add(int64(tokens))
	if err != nil {
		m.llmErrorsTotal.Add(1)
	}
}

// RecordIndexing records an indexed document and its chunk count.
func (m *Metrics) RecordIndexing(chunks int) {
	m.documentsIndexed.Add(1)
	m.chunksIndexed.Add(int64(chunks))
}

// RecordExtraction records a structured extraction attempt.
func (m *Metrics) RecordExtraction(err error) {
	m.extractionsTotal.Add(1)
	if err != nil {
		m.extractionErrors.Add(1)
	}
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	QuestionsTotal     int64 `json:"questions_total"`
	CacheHitsTotal     int64 `json:"cache_hits_total"`
	GuardrailRejected  int64 `json:"guardrail_rejected_total"`
	RetrievalsTotal    int64 `json:"retrievals_total"`
	ChunksRetrieved    int64 `json:"chunks_retrieved_total"`
	LLMCallsTotal      int64 `json:"llm_calls_total"`
	LLMErrorsTotal     int64 `json:"llm_errors_total"`
	TokensTotal        int64 `json:"tokens_total"`
	DocumentsIndexed   int64 `json:"documents_indexed_total"`
	ChunksIndexed      int64 `json:"chunks_indexed_total"`
	ExtractionsTotal   int64 `json:"extractions_total"`
	ExtractionErrors   int64 `json:"extraction_errors_total"`
	QuestionLatencyMs  int64 `json:"question_latency_ms_total"`
}

// Read returns a snapshot of the counters.
func (m *Metrics) Read() Snapshot {
	return Snapshot{
		QuestionsTotal:    m.questionsTotal.Load(),
		CacheHitsTotal:    m.cacheHitsTotal.Load(),
		GuardrailRejected: m.guardrailRejected.Load(),
		RetrievalsTotal:   m.retrievalsTotal.Load(),
		ChunksRetrieved:   m.chunksRetrieved.Load(),
		LLMCallsTotal:     m.llmCallsTotal.Load(),
		LLMErrorsTotal:    m.llmErrorsTotal.Load(),
		TokensTotal:       m.tokensTotal.Load(),
		DocumentsIndexed:  m.documentsIndexed.Load(),
		ChunksIndexed:     m.chunksIndexed.Load(),
		ExtractionsTotal:  m.extractionsTotal.Load(),
		ExtractionErrors:  m.extractionErrors.Load(),
		QuestionLatencyMs: m.questionLatencyMs.Load(),
	}
}

// Export renders the counters in Prometheus text exposition format.
func (m *Metrics) Export(namespace, subsystem string) string {
	s := m.Read()
	prefix := namespace + "_" + subsystem + "_"

	var sb strings.Builder
	write := func(name, help string, value int64) {
		fmt.Fprintf(&sb, "# HELP %s%s %s\n", prefix, name, help)
		fmt.Fprintf(&sb, "# TYPE %s%s counter\n", prefix, name)
		fmt.Fprintf(&sb, "%s%s %d\n", prefix, name, value)
	}

	write("questions_total", "Total questions answered.", s.QuestionsTotal)
	write("cache_hits_total", "Questions served from the answer cache.", s.CacheHitsTotal)
	write("guardrail_rejected_total", "Questions denied by the guardrail.", s.GuardrailRejected)
	write("retrievals_total", "Total retrieval operations.", s.RetrievalsTotal)
	write("chunks_retrieved_total", "Total chunks selected by retrieval.", s.ChunksRetrieved)
	write("llm_calls_total", "Total language model invocations.", s.LLMCallsTotal)
	write("llm_errors_total", "Failed language model invocations.", s.LLMErrorsTotal)
	write("tokens_total", "Total tokens reported by the model.", s.TokensTotal)
	write("documents_indexed_total", "Documents indexed.", s.DocumentsIndexed)
	write("chunks_indexed_total", "Chunks written to the vector store.", s.ChunksIndexed)
	write("extractions_total", "Structured extraction attempts.", s.ExtractionsTotal)
	write("extraction_errors_total", "Structured extractions that failed to parse.", s.ExtractionErrors)
	write("question_latency_ms_total", "Cumulative question latency in milliseconds.", s.QuestionLatencyMs)

	return sb.String()
}
