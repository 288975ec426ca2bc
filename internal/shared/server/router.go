package server

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"iris-backend/internal/llm"
	"iris-backend/internal/llm/openai"
	"iris-backend/internal/profile"
	"iris-backend/internal/shared/config"
	"iris-backend/internal/shared/metrics"
	"iris-backend/internal/shared/server/middleware"
	"iris-backend/internal/shared/server/respond"
	"iris-backend/internal/shared/storage/object"
	localstore "iris-backend/internal/shared/storage/object/local"
	s3store "iris-backend/internal/shared/storage/object/s3"
	"iris-backend/internal/shared/telemetry"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	// Dependencies
	var store object.ObjectStore
	var err error
	switch cfg.ObjectStoreType {
	case "s3":
		store, err = s3store.New(context.Background(), cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, err
		}
	default:
		store = localstore.New(cfg.LocalStoreDir)
	}

	client := buildLLMClient(cfg)
	svc := profile.NewService(store, profile.NewMemoryRepo(), client, cfg.WorkDir, cfg.SchemaVersion)
	handler := profile.NewHandler(svc)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	handler.RegisterRoutes(api)

	r.GET("/metrics", metrics.Handler())

	return r, nil
}

func buildLLMClient(cfg config.Config) llm.Client {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if cfg.LLMProvider != "openai" || apiKey == "" {
		telemetry.Info("llm.placeholder", map[string]any{
			"provider": cfg.LLMProvider,
		})
		return llm.PlaceholderClient{}
	}
	client, err := openai.NewClient(apiKey, cfg.LLMModel)
	if err != nil {
		telemetry.Error("llm.client_init_failed", map[string]any{"error": err.Error()})
		return llm.PlaceholderClient{}
	}
	return client
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
