package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"skin-analysis-service/api"
	"skin-analysis-service/cache"
	"skin-analysis-service/catalog"
	"skin-analysis-service/config"
	"skin-analysis-service/data"
	"skin-analysis-service/event"
	"skin-analysis-service/logging"
	"skin-analysis-service/model"
	"skin-analysis-service/scraper"
	"skin-analysis-service/service"
	"skin-analysis-service/vision/face"
	"skin-analysis-service/vision/preprocess"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("service stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	skinModel, err := model.NewONNXModel(model.Options{
		Path:              cfg.Model.Path,
		SharedLibraryPath: cfg.Model.RuntimeLib,
		InputName:         cfg.Model.InputName,
		OutputName:        cfg.Model.OutputName,
		InputShape:        preprocess.Default.Shape(),
		NumClasses:        int64(len(catalog.Labels)),
	})
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	defer skinModel.Close()
	logging.Info().
		Str("path", cfg.Model.Path).
		Ints64("input_shape", skinModel.GetInputShape()).
		Int("classes", skinModel.GetNumClasses()).
		Msg("model loaded")

	detector, err := face.NewDetector(face.Config{
		CascadePath:  cfg.Face.CascadePath,
		ScaleFactor:  cfg.Face.ScaleFactor,
		MinNeighbors: cfg.Face.MinNeighbors,
		MinSize:      cfg.Face.MinSize,
	})
	if err != nil {
		return err
	}
	defer detector.Close()

	g, gctx := errgroup.WithContext(ctx)

	var (
		events  chan event.Event
		history api.History
	)
	if cfg.Database.DSN != "" {
		db, err := data.Open(cfg.Database.DSN)
		if err != nil {
			return err
		}
		repo := data.NewAnalysisRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		history = repo
		events = make(chan event.Event, event.DefaultBuffer)
		stopRecorder := event.NewRecorder(repo, events).Start()
		defer stopRecorder()
		logging.Info().Msg("analysis history enabled")
	}

	analysis := service.NewAnalysisService(detector, skinModel, service.AnalysisOptions{
		Transform:    preprocess.Default,
		ApplySigmoid: cfg.Model.ApplySigmoid,
		Events:       events,
	})

	search, err := scraper.NewGoogleSearch(ctx, scraper.GoogleConfig{
		APIKey:   cfg.Search.APIKey,
		EngineID: cfg.Search.EngineID,
		Endpoint: cfg.Search.Endpoint,
		Timeout:  cfg.Search.Timeout,
	})
	if err != nil {
		return err
	}
	fetcher := scraper.NewFetcher(scraper.FetcherConfig{
		UserAgent:  cfg.Scraper.UserAgent,
		Timeout:    cfg.Scraper.FetchTimeout,
		SizeCap:    cfg.Scraper.MaxBodyBytes,
		RateLimit:  cfg.Scraper.RateLimit,
		Burst:      cfg.Scraper.Burst,
		MaxRetries: cfg.Scraper.MaxRetries,
	})
	products := scraper.New(search, scraper.NewExtractor(fetcher), scraper.Options{
		Site:        cfg.Search.Site,
		MaxPerBrand: cfg.Scraper.MaxPerBrand,
		Concurrency: cfg.Scraper.Concurrency,
	})

	productCache := cache.New[[]scraper.Product](cfg.Cache.TTL)
	defer productCache.Close()
	recommend := service.NewRecommendService(products, productCache)

	restServer := api.NewApp(api.NewHandlers(analysis, recommend, history), api.AppConfig{BodyLimit: cfg.Server.BodyLimit})
	grpcServer := grpc.NewServer(grpc.MaxRecvMsgSize(cfg.Server.BodyLimit))
	api.RegisterSkinAnalysisServiceServer(grpcServer, api.NewSkinAnalysisServer(analysis, cfg.Server.BodyLimit))

	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		g.Go(func() error {
			logging.Info().Str("addr", cfg.Server.GRPCAddr).Msg("starting gRPC server")
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("serve grpc: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		logging.Info().Str("addr", cfg.Server.HTTPAddr).Msg("starting Fiber server")
		if err := restServer.Listen(cfg.Server.HTTPAddr); err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.Info().Msg("shutting down")
		grpcServer.GracefulStop()
		return restServer.ShutdownWithTimeout(cfg.Server.ShutdownTimeout)
	})

	return g.Wait()
}
