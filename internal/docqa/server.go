// Package docqa assembles the document QA service: vector store, model
// providers, cache, business service and HTTP transport.
package docqa

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/kart-io/version"
	goredis "github.com/redis/go-redis/v9"

	"github.com/loaddesk/loaddesk/internal/docqa/biz"
	"github.com/loaddesk/loaddesk/internal/docqa/handler"
	"github.com/loaddesk/loaddesk/internal/docqa/router"
	"github.com/loaddesk/loaddesk/internal/docqa/store"
	"github.com/loaddesk/loaddesk/pkg/component/milvus"
	"github.com/loaddesk/loaddesk/pkg/llm"
	_ "github.com/loaddesk/loaddesk/pkg/llm/openai" // register providers
	cacheopts "github.com/loaddesk/loaddesk/pkg/options/cache"
	docqaopts "github.com/loaddesk/loaddesk/pkg/options/docqa"
	llmopts "github.com/loaddesk/loaddesk/pkg/options/llm"
	loggeropts "github.com/loaddesk/loaddesk/pkg/options/logger"
	milvusopts "github.com/loaddesk/loaddesk/pkg/options/milvus"
	httpopts "github.com/loaddesk/loaddesk/pkg/options/server/http"
)

// shutdownTimeout bounds graceful drain on exit.
const shutdownTimeout = 10 * time.Second

// Config 服务全量配置，由命令行选项层组装。
type Config struct {
	HTTP      *httpopts.Options
	Log       *loggeropts.Options
	Chat      *llmopts.ProviderOptions
	Embedding *llmopts.ProviderOptions
	Milvus    *milvusopts.Options
	Cache     *cacheopts.Options
	Pipeline  *docqaopts.Options
}

// Server 运行中的服务实例。
type Server struct {
	cfg        *Config
	httpServer *http.Server
	store      store.VectorStore
	redis      *goredis.Client
}

// NewServer 按配置组装服务。缓存不可用时降级为无缓存运行。
func NewServer(cfg *Config) (*Server, error) {
	if err := cfg.Log.Init(); err != nil {
		return nil, err
	}
	logger.Infow("starting docqa server",
		"service", "loaddesk-docqa",
		"version", version.Get().GitVersion,
		"store_backend", cfg.Pipeline.StoreBackend,
		"chat_provider", cfg.Chat.Provider,
		"embedding_provider", cfg.Embedding.Provider,
	)

	vs, err := newVectorStore(cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := llm.NewEmbeddingProvider(cfg.Embedding.Provider, cfg.Embedding.ToConfigMap())
	if err != nil {
		return nil, err
	}
	chat, err := llm.NewChatProvider(cfg.Chat.Provider, cfg.Chat.ToConfigMap())
	if err != nil {
		return nil, err
	}

	var (
		cache       *biz.AnswerCache
		redisClient *goredis.Client
	)
	if cfg.Cache.Enabled {
		redisClient, cache = newAnswerCache(cfg.Cache)
	}

	svc := biz.NewDocQAService(
		biz.ServiceConfig{
			Collection:   cfg.Pipeline.Collection,
			EmbeddingDim: cfg.Pipeline.EmbeddingDim,
			ChunkSize:    cfg.Pipeline.ChunkSize,
			ChunkOverlap: cfg.Pipeline.ChunkOverlap,
			AutoExtract:  cfg.Pipeline.AutoExtract,
		},
		vs,
		embedder,
		chat,
		biz.NewGuardrail(nil),
		cache,
		biz.RetrieverConfig{
			TopK:                cfg.Pipeline.TopK,
			FetchKMultiplier:    cfg.Pipeline.FetchKMultiplier,
			SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
			MMRLambda:           cfg.Pipeline.MMRLambda,
		},
	)

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := svc.Init(initCtx); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	h := handler.New(svc, cfg.HTTP.MaxUploadSize, cfg.Chat.Timeout)
	router.Register(engine, h)

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		},
		store: vs,
		redis: redisClient,
	}, nil
}

// newVectorStore 按配置选择向量存储后端。
func newVectorStore(cfg *Config) (store.VectorStore, error) {
	switch cfg.Pipeline.StoreBackend {
	case docqaopts.StoreMilvus:
		client, err := milvus.New(cfg.Milvus)
		if err != nil {
			return nil, err
		}
		logger.Infow("using milvus vector store", "address", cfg.Milvus.Address)
		return store.NewMilvusStore(client), nil
	default:
		logger.Infow("using in-memory vector store")
		return store.NewMemoryStore(), nil
	}
}

// newAnswerCache 连接 Redis；连通性检查失败时关闭缓存但不阻止启动。
func newAnswerCache(opts *cacheopts.Options) (*goredis.Client, *biz.AnswerCache) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         opts.Redis.Addr(),
		Password:     opts.Redis.Password,
		DB:           opts.Redis.Database,
		MaxRetries:   opts.Redis.MaxRetries,
		PoolSize:     opts.Redis.PoolSize,
		DialTimeout:  opts.Redis.DialTimeout,
		ReadTimeout:  opts.Redis.ReadTimeout,
		WriteTimeout: opts.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.Redis.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnw("redis unreachable, answer cache disabled",
			"addr", opts.Redis.Addr(), "error", err)
		client.Close()
		return nil, nil
	}

	logger.Infow("answer cache enabled", "redis", opts.Redis.String(), "ttl", opts.TTL.String())
	return client, biz.NewAnswerCache(client, opts.TTL, opts.KeyPrefix)
}

// Run 启动 HTTP 服务并在 ctx 结束时优雅退出。
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infow("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("http shutdown failed", "error", err)
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.Warnw("redis close failed", "error", err)
		}
	}
	if err := s.store.Close(shutdownCtx); err != nil {
		logger.Warnw("vector store close failed", "error", err)
	}

	logger.Infow("shutdown complete")
	return nil
}
