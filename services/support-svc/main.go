package main

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	prom "github.com/hertz-contrib/monitor-prometheus"
	"go.uber.org/zap"

	"github.com/bpispark/sparkdesk/internal/ai/chain"
	"github.com/bpispark/sparkdesk/internal/assistant"
	"github.com/bpispark/sparkdesk/internal/chat"
	"github.com/bpispark/sparkdesk/internal/common"
	"github.com/bpispark/sparkdesk/internal/kb"
	"github.com/bpispark/sparkdesk/internal/kb/esrepo"
	"github.com/bpispark/sparkdesk/internal/observability"
	"github.com/bpispark/sparkdesk/internal/ticket"
	router "github.com/bpispark/sparkdesk/services/support-svc/internal/router"
)

const (
	headerContentType    = "Content-Type"
	contentTypeTextPlain = "text/plain; charset=utf-8"
)

// promOnce guards the prometheus tracer: its exporter binds a fixed port, so
// only the first server in a process (tests build several) gets one.
var promOnce sync.Once

func main() {
	cfg := common.LoadConfig()
	h := BuildServer(cfg)
	log.Printf("support-svc listening on %s", cfg.HTTPAddr)
	h.Spin()
}

// BuildServer assembles the Hertz server with all routes for reuse in tests.
func BuildServer(cfg *common.Config) *server.Hertz {
	common.InitLogger()
	common.InitHertzLogger()
	logger := common.Logger

	repo, esPing, esPlanned, esInitOK := buildKBRepo(cfg, logger)

	chatChain := chain.NewChatChain(cfg.AIProvider)
	embedChain := chain.NewEmbeddingChain(cfg.AIProvider)
	logger.Info("ai chains ready",
		zap.String("chat_provider", chatChain.Provider()),
		zap.String("embed_provider", embedChain.Provider()))

	client := assistant.NewClient(chatChain, logger)
	ticketRepo := ticket.NewMemoryRepo()
	submitter := ticket.NewSubmitter(ticketRepo, logger, ticket.WithLatency(cfg.SubmitLatency))
	ctrl := chat.NewController(chat.NewStore(), repo, client, submitter, cfg.ModelTimeout, logger)

	var h *server.Hertz
	if os.Getenv("PROM_DISABLE") == "" {
		promOnce.Do(func() {
			h = server.Default(server.WithHostPorts(cfg.HTTPAddr),
				server.WithTracer(prom.NewServerTracer(":9100", "/metrics", prom.WithEnableGoCollector(true))))
		})
	}
	if h == nil {
		h = server.Default(server.WithHostPorts(cfg.HTTPAddr))
	}

	h.Use(common.Middlewares()...)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		ctx.Response.Header.Set("X-SparkDesk-Project", common.ProjectName)
		ctx.Response.Header.Set("X-SparkDesk-Version", common.ProjectVersion)
		ctx.Next(c)
	})

	// domain metrics snapshot under a separate path to keep the standard
	// prometheus namespace clean
	h.GET("/metrics/domain", func(c context.Context, ctx *app.RequestContext) {
		ctx.Response.Header.Set(headerContentType, contentTypeTextPlain)
		ctx.Write([]byte(observability.Snapshot()))
	})

	router.RegisterHealth(h, esPing, esPlanned, esInitOK)
	router.RegisterChat(h, ctrl)
	router.RegisterKB(h, repo)
	router.RegisterTickets(h, ticketRepo)
	router.RegisterAI(h, embedChain)

	if cfg.MetricsAddr != "" {
		observability.InitMetrics(common.ProjectName, cfg.MetricsAddr, logger)
	}
	if _, err := observability.InitTracing(common.ProjectName, logger); err != nil {
		logger.Warn("tracing init failed", zap.Error(err))
	}
	return h
}

// buildKBRepo selects the document store. An unreachable Elasticsearch falls
// back to memory so the chat flow keeps working in degraded mode.
func buildKBRepo(cfg *common.Config, logger *zap.Logger) (repo kb.Repo, esPing func(context.Context) error, esPlanned, esInitOK bool) {
	esPlanned = cfg.KBBackend == "es"
	esInitOK = true
	if esPlanned {
		es, err := esrepo.New(esrepo.Config{
			Addresses: cfg.EsAddressesOrDefault(),
			Index:     cfg.ESIndex,
			Username:  cfg.ESUsername,
			Password:  cfg.ESPassword,
		})
		if err == nil {
			if pingErr := es.Ping(context.Background()); pingErr == nil {
				logger.Info("kb backend ready", zap.String("backend", "es"), zap.String("index", cfg.ESIndex))
				seedKB(es, logger)
				return es, es.Ping, esPlanned, true
			} else {
				err = pingErr
			}
		}
		logger.Warn("es init failed, falling back to memory kb", zap.Error(err))
		esInitOK = false
	}
	mem := kb.NewMemoryRepo()
	seedKB(mem, logger)
	return mem, nil, esPlanned, esInitOK
}

func seedKB(repo kb.Repo, logger *zap.Logger) {
	if err := kb.Seed(context.Background(), repo); err != nil {
		logger.Warn("kb seed failed", zap.Error(err))
		return
	}
	n, _ := repo.Count(context.Background())
	logger.Info("kb seeded", zap.Int("docs", n))
}
