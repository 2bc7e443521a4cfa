// Package inventory implementa as operações expostas pelo serviço de
// listagem: busca filtrada (GET), busca completa e filtro por corpo JSON
// (POST). As operações não conhecem o transporte; recebem os dados já
// extraídos da requisição e devolvem um Response.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/raywall/car-listing-service/pkg/apperr"
	"github.com/raywall/car-listing-service/pkg/catalog"
	"github.com/raywall/car-listing-service/pkg/config"
	"github.com/raywall/car-listing-service/pkg/config/injector"
	"github.com/raywall/car-listing-service/pkg/listing"
	"github.com/raywall/car-listing-service/pkg/metrics"
	"github.com/raywall/car-listing-service/pkg/rules"
	"github.com/raywall/car-listing-service/pkg/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Nomes das rotas, usados em logs, métricas e nas regras do catálogo.
const (
	RouteFetchItems    = "fetch_items"
	RouteFetchAllItems = "fetch_all_items"
	RouteFilterCars    = "filter_cars"
)

// Resolver resolve referências de segredo na connection string.
type Resolver interface {
	Resolve(ctx context.Context, value string) (string, error)
}

// CatalogLoader carrega o catálogo de uma origem (arquivo, s3:// ou vazio).
type CatalogLoader interface {
	Load(ctx context.Context, source string) (*catalog.Catalog, error)
}

// snapshot é o catálogo com suas regras já compiladas. Nunca é alterado;
// Reload troca o snapshot inteiro.
type snapshot struct {
	catalog *catalog.Catalog
	rules   *rules.RuleSet
}

// Service concentra as dependências do processo. É seguro para uso
// concorrente, inclusive durante um Reload.
type Service struct {
	Config *config.Config

	current  atomic.Pointer[snapshot]
	loader   CatalogLoader
	opener   store.Opener
	resolver Resolver
	recorder *metrics.Recorder
}

// Option configura o Service.
type Option func(*Service)

// WithOpener troca a fábrica de Store (testes usam um fake).
func WithOpener(o store.Opener) Option {
	return func(s *Service) { s.opener = o }
}

func WithResolver(r Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

func WithMetrics(p metrics.Provider) Option {
	return func(s *Service) { s.recorder = metrics.NewRecorder(p) }
}

// WithCatalogLoader define de onde Reload busca o catálogo.
func WithCatalogLoader(l CatalogLoader) Option {
	return func(s *Service) { s.loader = l }
}

// NewService monta o serviço. Sem catálogo, usa o embutido.
func NewService(cfg *config.Config, cat *catalog.Catalog, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("inventory: config is required")
	}

	if cat == nil {
		var err error
		if cat, err = catalog.Default(); err != nil {
			return nil, fmt.Errorf("inventory: default catalog: %w", err)
		}
	}

	s := &Service{Config: cfg}
	for _, opt := range opts {
		opt(s)
	}

	snap, err := compile(cat)
	if err != nil {
		return nil, err
	}
	s.current.Store(snap)

	if s.loader == nil {
		s.loader = catalog.NewLoader(cfg.AWS.Region)
	}
	if s.opener == nil {
		s.opener = store.NewCosmosOpener(store.Target{
			Database:  cfg.Cosmos.Database,
			Container: cfg.Cosmos.Container,
		}, nil)
	}
	if s.resolver == nil {
		s.resolver = injector.New(injector.WithRegion(cfg.AWS.Region))
	}
	if s.recorder == nil {
		s.recorder = metrics.NewRecorder(nil)
	}

	return s, nil
}

// Catalog devolve o catálogo em uso.
func (s *Service) Catalog() *catalog.Catalog {
	return s.current.Load().catalog
}

// Reload relê o catálogo de CATALOG_SOURCE e o troca atomicamente. Em caso
// de erro o catálogo anterior continua valendo.
func (s *Service) Reload(ctx context.Context) error {
	cat, err := s.loader.Load(ctx, s.Config.Catalog.Source)
	if err != nil {
		return fmt.Errorf("inventory: reload catalog: %w", err)
	}
	snap, err := compile(cat)
	if err != nil {
		return err
	}
	s.current.Store(snap)
	log.Ctx(ctx).Info().Str("version", cat.Version).Msg("catalog reloaded")
	return nil
}

func compile(cat *catalog.Catalog) (*snapshot, error) {
	rm, err := rules.NewRuleManager()
	if err != nil {
		return nil, fmt.Errorf("falha fatal ao iniciar RuleManager: %w", err)
	}
	rs, err := rm.Compile(cat.Validations)
	if err != nil {
		return nil, fmt.Errorf("inventory: compile validations: %w", err)
	}
	return &snapshot{catalog: cat, rules: rs}, nil
}

// FetchItems executa a busca filtrada a partir da query string.
func (s *Service) FetchItems(ctx context.Context, params url.Values) Response {
	return s.filtered(ctx, RouteFetchItems, func(cat *catalog.Catalog) (*listing.Request, error) {
		return listing.ParseQuery(params, cat, s.Config.Service.MaxPageSize)
	})
}

// FilterCars executa a busca filtrada a partir de um corpo JSON.
func (s *Service) FilterCars(ctx context.Context, body []byte) Response {
	return s.filtered(ctx, RouteFilterCars, func(cat *catalog.Catalog) (*listing.Request, error) {
		return listing.ParseBody(body, cat, s.Config.Service.MaxPageSize)
	})
}

// FetchAllItems devolve todos os documentos do container, ignorando parâmetros.
func (s *Service) FetchAllItems(ctx context.Context) Response {
	start := time.Now()
	logger := routeLogger(ctx, RouteFetchAllItems)
	logger.Info().Msg("fetching all items")

	if s.Config.Cosmos.Connection == "" {
		return s.fail(logger, RouteFetchAllItems, start, apperr.Configuration(store.ErrMissingConnection))
	}

	st, appErr := s.open(ctx)
	if appErr != nil {
		return s.fail(logger, RouteFetchAllItems, start, appErr)
	}

	items, err := st.ReadAll(ctx)
	if err != nil {
		s.recorder.StoreError(RouteFetchAllItems)
		return s.fail(logger, RouteFetchAllItems, start, apperr.Store(err))
	}

	logger.Info().Int("items", len(items)).Msg("items fetched")
	s.recorder.Observe(RouteFetchAllItems, 200, time.Since(start), len(items))
	return documents(items)
}

// Health não toca no banco.
func (s *Service) Health(context.Context) Response {
	return JSON(200, []byte(`{"status":"ok"}`))
}

// filtered é o caminho comum de FetchItems e FilterCars: conexão
// configurada, parse, regras do catálogo, statement e consulta.
func (s *Service) filtered(ctx context.Context, route string, parse func(*catalog.Catalog) (*listing.Request, error)) Response {
	start := time.Now()
	logger := routeLogger(ctx, route)
	logger.Info().Msg("filtering items")

	if s.Config.Cosmos.Connection == "" {
		return s.fail(logger, route, start, apperr.Configuration(store.ErrMissingConnection))
	}

	snap := s.current.Load()

	req, err := parse(snap.catalog)
	if err != nil {
		return s.fail(logger, route, start, validationError(err))
	}

	violation, err := snap.rules.Check(route, req.Values())
	if err != nil {
		return s.fail(logger, route, start, apperr.Internal(err))
	}
	if violation != nil {
		return s.fail(logger, route, start,
			apperr.Validation(violation.Code, violation.Msg, fmt.Errorf("rule %s rejected the request", violation.RuleID)))
	}

	stmt, err := req.Statement(snap.catalog)
	if err != nil {
		return s.fail(logger, route, start, apperr.Validation(400, msgInvalidQuery, err))
	}

	logger.Info().
		Str("query", stmt.Text).
		Interface("parameters", stmt.Parameters).
		Msg("executing query")

	st, appErr := s.open(ctx)
	if appErr != nil {
		return s.fail(logger, route, start, appErr)
	}

	items, err := st.Query(ctx, stmt)
	if err != nil {
		s.recorder.StoreError(route)
		return s.fail(logger, route, start, apperr.Store(err))
	}

	logger.Info().Int("items", len(items)).Msg("items fetched")
	s.recorder.Observe(route, 200, time.Since(start), len(items))
	return documents(items)
}

// open resolve a connection string e abre o Store da invocação.
func (s *Service) open(ctx context.Context) (store.Store, *apperr.Error) {
	conn, err := s.resolver.Resolve(ctx, s.Config.Cosmos.Connection)
	if err != nil {
		return nil, apperr.Configuration(err)
	}
	if conn == "" {
		return nil, apperr.Configuration(store.ErrMissingConnection)
	}

	st, err := s.opener.Open(ctx, conn)
	if err != nil {
		if errors.Is(err, store.ErrMissingConnection) {
			return nil, apperr.Configuration(err)
		}
		return nil, apperr.Store(err)
	}
	return st, nil
}

func (s *Service) fail(logger zerolog.Logger, route string, start time.Time, e *apperr.Error) Response {
	ev := logger.Warn()
	if e.Status >= 500 {
		ev = logger.Error()
	}
	ev.Err(e.Err).
		Str("kind", string(e.Kind)).
		Int("status", e.Status).
		Msg(e.Public)

	s.recorder.Observe(route, e.Status, time.Since(start), 0)
	return Error(e)
}

func routeLogger(ctx context.Context, route string) zerolog.Logger {
	return log.Ctx(ctx).With().Str("route", route).Logger()
}
