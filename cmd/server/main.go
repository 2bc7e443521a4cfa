package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/raywall/car-listing-service/envloader"
	"github.com/raywall/car-listing-service/pkg/catalog"
	"github.com/raywall/car-listing-service/pkg/config"
	"github.com/raywall/car-listing-service/pkg/config/injector"
	"github.com/raywall/car-listing-service/pkg/inventory"
	"github.com/raywall/car-listing-service/pkg/logger"
	"github.com/raywall/car-listing-service/pkg/observability"
	"github.com/raywall/car-listing-service/pkg/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// Variáveis injetáveis para mocking
	serverStarter   = transport.StartHTTPServer
	lambdaStarter   = lambda.Start
	reloaderStarter = startReloader
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.LookupEnv); err != nil {
		log.Fatal().Err(err).Msg("FATAL: falha na inicialização")
	}
}

// run contém a lógica principal testável
func run(ctx context.Context, lookup envloader.LookupFunc) error {
	// 1. Configuração (uma vez, na fronteira do processo)
	cfg, err := config.Load(envloader.WithLookup(lookup))
	if err != nil {
		return err
	}

	// 2. Logger global e de contexto
	base := logger.Configure(cfg.Logging, cfg.Service.Name)
	log.Logger = base
	zerolog.DefaultContextLogger = &base

	// 3. Métricas
	provider, err := observability.SetupMetrics(cfg.Metrics.Datadog)
	if err != nil {
		return err
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}

	// 4. Catálogo de filtros
	cat, err := catalog.NewLoader(cfg.AWS.Region).Load(ctx, cfg.Catalog.Source)
	if err != nil {
		return fmt.Errorf("falha ao carregar catálogo: %w", err)
	}

	svc, err := inventory.NewService(cfg, cat,
		inventory.WithMetrics(provider),
		inventory.WithResolver(injector.New(
			injector.WithRegion(cfg.AWS.Region),
			injector.WithLookup(lookup),
		)),
	)
	if err != nil {
		return err
	}

	base.Info().
		Str("runtime", cfg.Service.Runtime).
		Str("catalog_version", cat.Version).
		Str("database", cfg.Cosmos.Database).
		Str("container", cfg.Cosmos.Container).
		Msg("serviço inicializado")

	// 5. Seleciona Runtime Strategy
	switch cfg.Service.Runtime {
	case config.RuntimeLocal, config.RuntimeAzureFunctions:
		if cfg.Catalog.ReloadQueue != "" {
			go reloaderStarter(ctx, cfg, svc)
		}
		return serverStarter(ctx, svc)
	case config.RuntimeLambda:
		handler := transport.NewLambdaHandler(svc)
		lambdaStarter(handler.Handle)
		return nil
	default:
		return fmt.Errorf("runtime desconhecido: %s", cfg.Service.Runtime)
	}
}

func startReloader(ctx context.Context, cfg *config.Config, svc *inventory.Service) {
	client, err := transport.NewSQSClient(ctx, cfg.AWS.Region)
	if err != nil {
		log.Error().Err(err).Msg("reload do catálogo desativado")
		return
	}
	transport.NewSQSReloader(client, cfg.Catalog.ReloadQueue, svc).Start(ctx)
}
