package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"findocs-backend/internal/docqueue"
	"findocs-backend/internal/documents"
	"findocs-backend/internal/extract"
	"findocs-backend/internal/shared/config"
	"findocs-backend/internal/shared/metrics"
	"findocs-backend/internal/shared/server/middleware"
	"findocs-backend/internal/shared/server/respond"
	"findocs-backend/internal/shared/storage/db"
	"findocs-backend/internal/shared/storage/object"
	localstore "findocs-backend/internal/shared/storage/object/local"
	s3store "findocs-backend/internal/shared/storage/object/s3"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(),
	)

	// Dependencies
	store := newObjectStore(cfg)
	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			log.Printf("failed to connect database, falling back to memory: %v", err)
		} else {
			if err := db.RunMigrations(context.Background(), dbConn); err != nil {
				log.Printf("failed to run migrations, falling back to memory: %v", err)
				dbConn = nil
			}
		}
		sqlDB = dbConn
	}

	var docRepo documents.Repo
	if sqlDB != nil {
		docRepo = &documents.PGRepo{DB: sqlDB}
	} else {
		docRepo = documents.NewMemoryRepo()
	}

	extractor := extract.NewExtractor(cfg.TesseractBin, cfg.TesseractLang)
	docSvc := &documents.Service{Repo: docRepo, Store: store, Extractor: extractor}

	applier := &documents.StatusApplier{Repo: docRepo}
	jobQueue := docqueue.New(docSvc.Reverify, applier.Apply, docqueue.WithQueueSize(cfg.QueueSize))

	docHandler := documents.NewHandler(docSvc, jobQueue, cfg.MaxUploadBytes, cfg.UploadTmpDir)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"UPLOAD": {Rate: 0.5, Burst: 5},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/documents" {
				return "UPLOAD"
			}
			return ""
		},
	}))
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true, "queueDepth": jobQueue.Len()})
	})
	api.GET("/metrics", metrics.Handler())
	docHandler.RegisterRoutes(api)

	return r
}

func newObjectStore(cfg config.Config) object.ObjectStore {
	if cfg.ObjectStoreType == "s3" {
		store, err := s3store.New(context.Background(), cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			log.Printf("failed to init s3 store, falling back to local: %v", err)
		} else {
			return store
		}
	}
	return localstore.New(cfg.LocalStoreDir)
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
