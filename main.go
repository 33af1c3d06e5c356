package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/askdocs/askdocs/handlers"
	"github.com/askdocs/askdocs/internal/audit"
	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/database"
	docrepo "github.com/askdocs/askdocs/internal/document/repository"
	"github.com/askdocs/askdocs/internal/history"
	"github.com/askdocs/askdocs/internal/index"
	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/internal/search"
	"github.com/askdocs/askdocs/internal/storage"
	"github.com/askdocs/askdocs/internal/tokens"
	"github.com/askdocs/askdocs/internal/users"
	"github.com/askdocs/askdocs/pkg/logger"
	"github.com/askdocs/askdocs/pkg/metrics"
	"github.com/askdocs/askdocs/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging level controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v elasticsearch=%v rabbitmq=%v llm=%v redis=%v",
		cfg.MongoDB.URI != "", cfg.Elasticsearch.URL != "", cfg.RabbitMQ.URL != "", cfg.LLM.APIKey != "", cfg.Redis.Host != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	r.Use(gin.Logger(), gin.Recovery())

	// Connect to Redis early so the rate-limiter can use it when configured
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	ctx := context.Background()

	// MongoDB with retry/backoff to tolerate startup races
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
			mongoClient = nil
		} else {
			defer func() { _ = mongoClient.Disconnect(ctx) }()
		}
	}

	// Persistence: Mongo-backed when connected, in-memory otherwise so the
	// service still comes up for local development.
	var docs docrepo.Repository
	var records history.Repository
	var userRepo users.UserRepository
	if mongoClient != nil {
		db := mongoClient.Database(cfg.MongoDB.Database)
		docs = docrepo.NewMongoRepo(db.Collection("documents"))
		records = history.NewMongoRepo(db.Collection("searches"))
		userRepo = users.NewMongoUserRepository(db.Collection("users"))
	} else {
		logger.Warnf("MongoDB unavailable, using in-memory stores (data is not persisted)")
		docs = docrepo.NewMemoryRepo()
		records = history.NewMemoryRepo()
		userRepo = users.NewMemoryUserRepository()
	}
	userSvc := users.NewService(userRepo)

	// Optional full-text index: failure degrades retrieval to the lexical fallback
	var idx index.Index
	if cfg.Elasticsearch.URL != "" {
		es, err := index.NewElastic([]string{cfg.Elasticsearch.URL}, cfg.Elasticsearch.Index)
		if err != nil {
			logger.Warnf("elasticsearch unavailable, retrieval uses lexical fallback: %v", err)
		} else {
			idx = es
			logger.Infof("elasticsearch index %q ready", cfg.Elasticsearch.Index)
		}
	}

	// Optional audit sink
	var sink audit.Sink = audit.Nop{}
	if cfg.RabbitMQ.URL != "" {
		rs, err := audit.NewRabbitSink(cfg.RabbitMQ.URL)
		if err != nil {
			logger.Warnf("rabbitmq unavailable, audit events dropped: %v", err)
		} else {
			defer rs.Close()
			sink = rs
		}
	}

	// Optional completion service
	var completer llm.Completer
	if cfg.LLM.APIKey != "" {
		gc, err := llm.NewGroqClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout)
		if err != nil {
			logger.Warnf("completion service unavailable, answers degrade to previews: %v", err)
		} else {
			completer = gc
			logger.Infof("completion service ready: model=%s", cfg.LLM.Model)
		}
	}

	// Optional object store for raw uploads
	var store *storage.MinIOStorage
	if mcfg := storage.LoadMinIOConfig(); mcfg.Endpoint != "" {
		s, err := storage.NewMinIOStorage(mcfg)
		if err != nil {
			logger.Warnf("minio unavailable, raw files not archived: %v", err)
		} else {
			store = s
		}
	}

	retriever := search.NewRetriever(idx, docs, 0)
	composer := search.NewComposer(retriever, completer, records, sink)

	verifier := tokens.NewJWTVerifier(cfg.JWT.Secret)
	authmw := middleware.AuthMiddleware(verifier)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when the critical dependency (document storage) is
	// durable; optional services are reported but never gate readiness
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{
			"mongodb":       mongoClient != nil,
			"elasticsearch": idx != nil,
			"llm":           completer != nil,
			"redis":         redisClient != nil,
		}
		status := http.StatusOK
		state := "ready"
		if mongoClient == nil {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	root := r.Group("/")
	handlers.NewAuthHandler(cfg, userSvc, sink).Register(root)
	handlers.NewDocumentsHandler(cfg, docs, records, userSvc, idx, store, composer, sink).Register(root, authmw)
	handlers.NewSearchHandler(composer, records, idx != nil, completer != nil).Register(root, authmw)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting askdocs on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
