package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yair/lineup/pkg/cache"
	"github.com/yair/lineup/pkg/catalogfile"
	"github.com/yair/lineup/pkg/collectors"
	"github.com/yair/lineup/pkg/config"
	"github.com/yair/lineup/pkg/domain"
	"github.com/yair/lineup/pkg/integrations"
	"github.com/yair/lineup/pkg/interfaces"
	"github.com/yair/lineup/pkg/logger"
	"github.com/yair/lineup/pkg/matching"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML or JSON config file")
	importPath := flag.String("import", "", "import a festival timetable from a YAML file and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	zl := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zl.Sync()
	log := logger.NewZapAdapter(zl)

	if err := cfg.Validate(); err != nil {
		zl.Fatal("invalid configuration", zap.Error(err))
	}

	zl.Info("starting lineup", zap.String("driver", cfg.Database.Driver))

	db, err := collectors.Open(cfg.Database.Driver, cfg.Database.GetDSN())
	if err != nil {
		zl.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	catalogRepo, err := collectors.NewCatalogRepository(db)
	if err != nil {
		zl.Fatal("failed to create catalog repository", zap.Error(err))
	}
	relatedRepo, err := collectors.NewRelatedArtistRepository(db)
	if err != nil {
		zl.Fatal("failed to create related artist repository", zap.Error(err))
	}
	profileRepo, err := collectors.NewProfileRepository(db)
	if err != nil {
		zl.Fatal("failed to create profile repository", zap.Error(err))
	}
	artistRepo, err := collectors.NewArtistRepository(db)
	if err != nil {
		zl.Fatal("failed to create artist repository", zap.Error(err))
	}

	var (
		recCache   domain.RecommendationCache = cache.NopCache{}
		redisCache *cache.RedisCache
	)
	if cfg.Redis.Enabled {
		redisCache = cache.NewRedisCache(cache.NewRedisClient(cache.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), cfg.Cache.TTL())
		defer redisCache.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisCache.Ping(ctx); err != nil {
			zl.Warn("redis unreachable, recommendations will be recomputed on each request", zap.Error(err))
		} else {
			zl.Info("recommendation cache enabled", zap.String("address", cfg.Redis.Address), zap.Duration("ttl", cfg.Cache.TTL()))
		}
		cancel()
		recCache = redisCache
	}

	if *importPath != "" {
		runImport(*importPath, catalogRepo, relatedRepo, redisCache, zl)
		return
	}

	var source interfaces.ProfileSource
	if cfg.SpotifyEnabled() {
		spotifyClient, err := integrations.NewSpotifyClient(integrations.SpotifyConfig{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RedirectURL:  cfg.Spotify.RedirectURI,
			BaseURL:      cfg.Spotify.APIBaseURL,
			TimeRange:    cfg.Spotify.TimeRange,
		})
		if err != nil {
			zl.Warn("failed to create spotify client", zap.Error(err))
		} else {
			source = spotifyClient
		}
	} else {
		zl.Warn("spotify is not configured, only shared recommendations are available")
	}

	batchSize := cfg.Matching.BatchSize
	if batchSize > collectors.MaxRelatedBatch {
		zl.Warn("batch size exceeds related artist store limit, clamping",
			zap.Int("configured", batchSize), zap.Int("limit", collectors.MaxRelatedBatch))
		batchSize = collectors.MaxRelatedBatch
	}

	engine := matching.NewEngine(relatedRepo, matching.Options{
		SlotWidth:        cfg.Matching.SlotWidth(),
		BatchSize:        batchSize,
		Concurrency:      cfg.Matching.Concurrency,
		RankDiscountStep: cfg.Matching.RankDiscountStep,
	}, log.WithFields(map[string]interface{}{"component": "engine"}))

	recService := interfaces.NewRecommendationService(catalogRepo, profileRepo, source, engine, recCache,
		log.WithFields(map[string]interface{}{"component": "service"}))
	artistService := interfaces.NewArtistService(artistRepo)

	recHandler := interfaces.NewRecommendationHandler(recService, log.WithFields(map[string]interface{}{"component": "http"}))
	artistHandler := interfaces.NewArtistHandler(artistService)

	router := mux.NewRouter()
	recHandler.RegisterRoutes(router)
	artistHandler.RegisterRoutes(router)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		path, _ := route.GetPathTemplate()
		methods, _ := route.GetMethods()
		zl.Info("route registered", zap.Strings("methods", methods), zap.String("path", path))
		return nil
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		zl.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	zl.Info("server stopped")
}

func runImport(path string, catalogs catalogfile.CatalogSaver, relations catalogfile.RelationSaver, redisCache *cache.RedisCache, zl *zap.Logger) {
	imp, err := catalogfile.Load(path)
	if err != nil {
		zl.Fatal("failed to read timetable", zap.String("path", path), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := imp.Store(ctx, catalogs, relations); err != nil {
		zl.Fatal("failed to import timetable", zap.String("path", path), zap.Error(err))
	}

	// The timetable changed, so every cached set for the festival is stale.
	if redisCache != nil {
		n, err := redisCache.Invalidate(ctx, "", imp.Catalog.FestivalID)
		if err != nil {
			zl.Warn("failed to invalidate cached recommendations", zap.Error(err))
		} else if n > 0 {
			zl.Info("cached recommendations invalidated", zap.Int("keys", n))
		}
	}

	acts := 0
	for _, day := range imp.Catalog.Days {
		for _, stage := range day.Stages {
			acts += len(stage.Acts)
		}
	}
	zl.Info("timetable imported",
		zap.String("festivalId", imp.Catalog.FestivalID),
		zap.String("version", imp.Catalog.Version),
		zap.Int("days", len(imp.Catalog.Days)),
		zap.Int("artists", len(imp.Catalog.Artists)),
		zap.Int("acts", acts),
		zap.Int("relations", len(imp.Relations)))
}
