package main

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/ragvault/ragvault/internal/ai"
	"github.com/ragvault/ragvault/internal/attest"
	"github.com/ragvault/ragvault/internal/chunker"
	"github.com/ragvault/ragvault/internal/config"
	"github.com/ragvault/ragvault/internal/db"
	"github.com/ragvault/ragvault/internal/extract"
	"github.com/ragvault/ragvault/internal/filestore"
	"github.com/ragvault/ragvault/internal/handler"
	"github.com/ragvault/ragvault/internal/job"
	"github.com/ragvault/ragvault/internal/keycustody"
	"github.com/ragvault/ragvault/internal/middleware"
	"github.com/ragvault/ragvault/internal/repo"
	"github.com/ragvault/ragvault/internal/schedule"
	"github.com/ragvault/ragvault/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "ragvault",
		Short: "ragvault confidential retrieval server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run ragvault server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.Bool("require_attestation", cfg.Confidential.RequireAttestation),
	)

	tenantRepo := repo.NewTenantRepo(database)
	tenantKeyRepo := repo.NewTenantKeyRepo(database)
	docRepo := repo.NewDocumentRepo(database)
	chunkRepo := repo.NewChunkRepo(database)
	policyRepo := repo.NewPolicyRepo(database)
	convRepo := repo.NewConversationRepo(database)
	auditRepo := repo.NewAuditRepo(database)

	attestProvider, err := attest.NewProvider(cfg.Confidential.AttestProvider, cfg.Confidential.AttestData)
	if err != nil {
		return fmt.Errorf("init attest provider: %w", err)
	}
	masterSecret, err := base64.StdEncoding.DecodeString(cfg.Confidential.MasterKey)
	if err != nil {
		return fmt.Errorf("decode master key: %w", err)
	}
	custodian, err := keycustody.NewCustodian(tenantKeyRepo, attestProvider, cfg.Confidential.RequireAttestation, masterSecret)
	if err != nil {
		return fmt.Errorf("init key custodian: %w", err)
	}
	scopes := keycustody.NewScopeFactory(custodian)

	splitter, err := chunker.NewSplitter(cfg.Chunking.MinSize, cfg.Chunking.MaxSize, cfg.Chunking.Overlap)
	if err != nil {
		return fmt.Errorf("init splitter: %w", err)
	}
	extractor := extract.NewExtractor()

	embedProvider, err := ai.NewEmbedProvider(cfg.AI.EmbedProvider, cfg.AI.EmbedData)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	chatProvider, err := ai.NewChatProvider(cfg.AI.ChatProvider, cfg.AI.ChatData)
	if err != nil {
		return fmt.Errorf("init chat provider: %w", err)
	}
	embedder := ai.NewEmbedder(embedProvider, cfg.AI.EmbedModel)
	generator := ai.NewGenerator(chatProvider, cfg.AI.ChatModel)

	blobs, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	tenantService := service.NewTenantService(tenantRepo, policyRepo)
	policyService := service.NewPolicyService(policyRepo)
	ingestService := service.NewIngestService(docRepo, chunkRepo, blobs, extractor, splitter, embedder, scopes, cfg.AI.EmbedDim)
	retrievalService := service.NewRetrievalService(docRepo, chunkRepo, convRepo, auditRepo, policyService, embedder, generator, scopes)

	deps := handler.RouterDeps{
		Tenants:       handler.NewTenantHandler(tenantService),
		Documents:     handler.NewDocumentHandler(ingestService),
		Chat:          handler.NewChatHandler(retrievalService),
		Audits:        handler.NewAuditHandler(auditRepo),
		JWTSecret:     []byte(cfg.JWTSecret),
		ChatRateLimit: time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := schedule.NewRunner(10 * time.Minute)
	staleAfter := time.Duration(cfg.Jobs.StaleAfterMinute) * time.Minute
	if err := runner.Register(cfg.Jobs.StaleDocSpec, job.NewStaleDocumentJob(docRepo, staleAfter)); err != nil {
		return fmt.Errorf("schedule stale document task: %w", err)
	}
	if err := runner.Register(cfg.Jobs.ChunkPurgeSpec, job.NewChunkPurgeJob(docRepo, chunkRepo)); err != nil {
		return fmt.Errorf("schedule chunk purge task: %w", err)
	}
	runner.Start(ctx)
	defer runner.Shutdown()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
