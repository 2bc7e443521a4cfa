package transport

import (
	"context"
	"net/http"
	"net/url"

	"github.com/raywall/car-listing-service/pkg/inventory"
)

const (
	HeaderCorrelationID = "x-correlation-id"
	HeaderLatency       = "x-latency-ms"
)

type ctxKey string

// ContextKeyCorrID guarda o correlation id no contexto da requisição.
const ContextKeyCorrID ctxKey = "correlation_id"

// maxBodyBytes limita o corpo aceito em POST /filter-cars.
const maxBodyBytes = 1 << 20

// Input é o que as operações consomem de uma requisição, qualquer que seja
// o transporte.
type Input struct {
	Query url.Values
	Body  []byte
}

// Route liga método e caminho a uma operação do serviço.
type Route struct {
	Name   string
	Method string
	Path   string
	Invoke func(ctx context.Context, svc *inventory.Service, in Input) inventory.Response
}

// Routes é a tabela única usada pelo servidor HTTP e pelo adaptador Lambda.
func Routes() []Route {
	return []Route{
		{
			Name:   inventory.RouteFetchItems,
			Method: http.MethodGet,
			Path:   "/fetch-items",
			Invoke: func(ctx context.Context, svc *inventory.Service, in Input) inventory.Response {
				return svc.FetchItems(ctx, in.Query)
			},
		},
		{
			Name:   inventory.RouteFetchAllItems,
			Method: http.MethodGet,
			Path:   "/fetch-all-items",
			Invoke: func(ctx context.Context, svc *inventory.Service, _ Input) inventory.Response {
				return svc.FetchAllItems(ctx)
			},
		},
		{
			Name:   inventory.RouteFilterCars,
			Method: http.MethodPost,
			Path:   "/filter-cars",
			Invoke: func(ctx context.Context, svc *inventory.Service, in Input) inventory.Response {
				return svc.FilterCars(ctx, in.Body)
			},
		},
		{
			Name:   "health",
			Method: http.MethodGet,
			Path:   "/healthz",
			Invoke: func(ctx context.Context, svc *inventory.Service, _ Input) inventory.Response {
				return svc.Health(ctx)
			},
		},
	}
}
