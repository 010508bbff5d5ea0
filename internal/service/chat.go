package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eluia/eluia-api/internal/index"
	"github.com/eluia/eluia-api/internal/llm"
	"github.com/eluia/eluia-api/internal/model"
	"github.com/eluia/eluia-api/pkg/logger"
	"github.com/eluia/eluia-api/pkg/metrics"
)

// ChatLog is the durable record of served questions. Implemented by the
// JetStream stream manager; nil disables publishing.
type ChatLog interface {
	PublishRecord(ctx context.Context, rec *model.ChatRecord) error
}

// ChatConfig tunes retrieval and generation.
type ChatConfig struct {
	RetrievalK      int
	MinSimilarity   float64
	AnswerModel     string
	FallbackModel   string
	MaxAnswerTokens int
	LLMTimeout      time.Duration
}

func (c *ChatConfig) defaults() {
	if c.RetrievalK <= 0 {
		c.RetrievalK = 5
	}
	if c.MinSimilarity == 0 {
		c.MinSimilarity = 0.2
	}
	if c.AnswerModel == "" {
		c.AnswerModel = "claude-3-haiku-20240307"
	}
	if c.FallbackModel == "" {
		c.FallbackModel = "gpt-4o-mini"
	}
	if c.MaxAnswerTokens <= 0 {
		c.MaxAnswerTokens = 1024
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = 30 * time.Second
	}
}

// ChatService answers citizen questions against one tenant's knowledge base.
type ChatService struct {
	tenants   *TenantService
	quota     *QuotaTracker
	costs     *CostMonitor
	cache     *AnswerCache
	idx       *index.Index
	embedder  llm.Embedder
	generator llm.Client
	fallback  llm.Client
	analytics *Aggregator
	chatLog   ChatLog
	cfg       ChatConfig
	logger    *logger.Logger
}

// NewChatService creates a new chat service. fallback and chatLog may be nil.
func NewChatService(
	tenants *TenantService,
	quota *QuotaTracker,
	costs *CostMonitor,
	cache *AnswerCache,
	idx *index.Index,
	embedder llm.Embedder,
	generator llm.Client,
	fallback llm.Client,
	analytics *Aggregator,
	chatLog ChatLog,
	cfg ChatConfig,
	log *logger.Logger,
) *ChatService {
	cfg.defaults()
	return &ChatService{
		tenants:   tenants,
		quota:     quota,
		costs:     costs,
		cache:     cache,
		idx:       idx,
		embedder:  embedder,
		generator: generator,
		fallback:  fallback,
		analytics: analytics,
		chatLog:   chatLog,
		cfg:       cfg,
		logger:    log,
	}
}

// Info returns the public chat metadata for a slug, or ErrChatUnavailable
// until the tenant has at least one processed document.
func (s *ChatService) Info(ctx context.Context, slug string) (*model.ChatInfo, error) {
	tenant, err := s.tenants.GetBySlug(ctx, slug)
	if err != nil {
		return nil, model.ErrChatUnavailable
	}
	if !tenant.HasReadyDocument() {
		return nil, model.ErrChatUnavailable
	}
	return &model.ChatInfo{
		Name:      tenant.Name,
		AgentName: tenant.Persona.AgentName,
		Election:  tenant.Election,
	}, nil
}

// Ask answers one citizen question. The quota is consumed together with the
// decision to serve the request; a client disconnecting mid-generation does
// not unwind any counter.
func (s *ChatService) Ask(ctx context.Context, slug, sessionHash, question string) (*model.ChatResponse, error) {
	tenant, err := s.tenants.GetBySlug(ctx, slug)
	if err != nil {
		return nil, model.ErrChatUnavailable
	}
	if !tenant.HasReadyDocument() {
		return nil, model.ErrChatUnavailable
	}

	remaining, err := s.quota.Consume(tenant.ID, sessionHash)
	if err != nil {
		metrics.QuotaRejectionsTotal.WithLabelValues(tenant.ID).Inc()
		return nil, err
	}

	start := time.Now()

	if answer, ok := s.cache.Lookup(tenant.ID, question); ok {
		s.record(ctx, tenant, sessionHash, question, answer, true, start)
		return &model.ChatResponse{
			Answer:            answer,
			Cached:            true,
			RemainingMessages: remaining,
		}, nil
	}

	sections, err := s.retrieve(ctx, tenant, question)
	if err != nil {
		// Embedding outage: same user-facing posture as a generation
		// failure, the citizen gets an apology rather than an error.
		s.logger.WithTenant(tenant.ID).Error("question embedding failed", zap.Error(err))
		answer := GenerationFailureAnswer()
		s.record(ctx, tenant, sessionHash, question, answer, false, start)
		return &model.ChatResponse{Answer: answer, RemainingMessages: remaining}, nil
	}

	if len(sections) == 0 {
		answer := NoCoverageAnswer(tenant)
		s.record(ctx, tenant, sessionHash, question, answer, false, start)
		return &model.ChatResponse{Answer: answer, RemainingMessages: remaining}, nil
	}

	system := BuildSystemPrompt(tenant, sections)

	// The reservation commits an upper-bound spend before the provider is
	// called and is settled to the actual cost afterwards.
	estimate := GenerationCost(s.cfg.AnswerModel, (len(system)+len(question))/4, s.cfg.MaxAnswerTokens)
	if err := s.costs.Reserve(tenant.ID, estimate); err != nil {
		metrics.BudgetRejectionsTotal.WithLabelValues(tenant.ID).Inc()
		answer := BudgetExhaustedAnswer(tenant)
		s.record(ctx, tenant, sessionHash, question, answer, false, start)
		return &model.ChatResponse{
			Answer:            answer,
			RemainingMessages: remaining,
			BudgetExhausted:   true,
		}, nil
	}

	resp, err := s.generate(ctx, system, question)
	if err != nil {
		s.costs.Settle(tenant.ID, estimate, 0)
		s.logger.WithTenant(tenant.ID).Error("answer generation failed", zap.Error(err))
		answer := GenerationFailureAnswer()
		s.record(ctx, tenant, sessionHash, question, answer, false, start)
		return &model.ChatResponse{Answer: answer, RemainingMessages: remaining}, nil
	}

	s.costs.Settle(tenant.ID, estimate, GenerationCost(resp.Model, resp.TokensIn, resp.TokensOut))
	s.cache.Store(tenant.ID, question, resp.Content)
	s.record(ctx, tenant, sessionHash, question, resp.Content, false, start)

	return &model.ChatResponse{
		Answer:            resp.Content,
		RemainingMessages: remaining,
	}, nil
}

// retrieve embeds the question and ranks the tenant's chunks, keeping only
// sections above the relevance threshold.
func (s *ChatService) retrieve(ctx context.Context, tenant *model.Tenant, question string) ([]model.RetrievedChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	vectors, err := embedWithRetry(ctx, s.embedder, []string{question})
	if err != nil {
		return nil, err
	}

	results := s.idx.Search(tenant.ID, vectors[0], s.cfg.RetrievalK)

	sections := results[:0]
	for _, r := range results {
		if r.Score >= s.cfg.MinSimilarity {
			sections = append(sections, r)
		}
	}
	return sections, nil
}

const generateRetries = 2

func (s *ChatService) generate(ctx context.Context, system, question string) (*llm.CompletionResponse, error) {
	req := &llm.CompletionRequest{
		Model:     s.cfg.AnswerModel,
		System:    system,
		Messages:  []llm.ChatMessage{{Role: "user", Content: question}},
		MaxTokens: s.cfg.MaxAnswerTokens,
	}

	var lastErr error
	for attempt := 0; attempt <= generateRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
		resp, err := s.generator.Complete(callCtx, req)
		cancel()

		if err == nil {
			metrics.RecordLLMCall("generate", resp.Model, "success", float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)
			return resp, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		lastErr = err
	}

	metrics.RecordLLMCall("generate", s.cfg.AnswerModel, "error", 0, 0, 0)

	if s.fallback != nil {
		fbReq := *req
		fbReq.Model = s.cfg.FallbackModel
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
		resp, err := s.fallback.Complete(callCtx, &fbReq)
		cancel()
		if err == nil {
			metrics.RecordLLMCall("generate", resp.Model, "fallback", float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)
			return resp, nil
		}
		lastErr = err
	}

	return nil, errors.Join(model.ErrGenerationUnavailable, lastErr)
}

func (s *ChatService) record(ctx context.Context, tenant *model.Tenant, sessionHash, question, answer string, cached bool, start time.Time) {
	rec := &model.ChatRecord{
		ID:          uuid.Must(uuid.NewV7()).String(),
		TenantID:    tenant.ID,
		SessionHash: sessionHash,
		Question:    question,
		Answer:      answer,
		Cached:      cached,
		LatencyMs:   time.Since(start).Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}

	s.analytics.Record(rec)
	metrics.RecordQuestion(tenant.ID, cached)

	if s.chatLog != nil {
		if err := s.chatLog.PublishRecord(ctx, rec); err != nil {
			s.logger.WithTenant(tenant.ID).Warn("failed to publish chat record", zap.Error(err))
		}
	}
}

// retryDelay returns an exponential backoff capped at 5s.
func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

// embedWithRetry calls the embedder with bounded retries on transient
// failure.
func embedWithRetry(ctx context.Context, embedder llm.Embedder, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= generateRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
		}

		vectors, err := embedder.EmbedTexts(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
