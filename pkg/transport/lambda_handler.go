package transport

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/raywall/car-listing-service/pkg/apperr"
	"github.com/raywall/car-listing-service/pkg/inventory"
	"github.com/rs/zerolog/log"
)

// LambdaHandler adapta eventos do API Gateway para o inventory.Service.
type LambdaHandler struct {
	svc    *inventory.Service
	routes []Route
}

// NewLambdaHandler cria uma nova instância do adaptador
func NewLambdaHandler(svc *inventory.Service) *LambdaHandler {
	return &LambdaHandler{svc: svc, routes: Routes()}
}

// Handle processa a requisição Lambda
func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()

	corrID := header(req.Headers, HeaderCorrelationID)
	if corrID == "" {
		corrID = uuid.NewString()
	}

	logger := log.With().Str("correlation_id", corrID).Logger()
	ctx = logger.WithContext(ctx)
	ctx = context.WithValue(ctx, ContextKeyCorrID, corrID)

	resp := h.dispatch(ctx, req)

	logger.Info().
		Str("method", req.HTTPMethod).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("lambda request completed")

	headers := make(map[string]string, len(resp.Headers)+1)
	for k, v := range resp.Headers {
		headers[k] = v
	}
	headers[HeaderCorrelationID] = corrID

	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       string(resp.Body),
	}, nil
}

func (h *LambdaHandler) dispatch(ctx context.Context, req events.APIGatewayProxyRequest) inventory.Response {
	path := strings.TrimSuffix(req.Path, "/")
	if prefix := h.svc.Config.Service.RoutePrefix; prefix != "" {
		path = strings.TrimPrefix(path, prefix)
	}

	var matched bool
	for _, route := range h.routes {
		if route.Path != path {
			continue
		}
		matched = true
		if !strings.EqualFold(route.Method, req.HTTPMethod) {
			continue
		}

		if timeout := h.svc.Config.Service.Timeout; timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		body := []byte(req.Body)
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return inventory.Error(apperr.Validation(http.StatusBadRequest, apperr.MsgInvalidJSON, err))
			}
			body = decoded
		}

		return route.Invoke(ctx, h.svc, Input{Query: queryValues(req), Body: body})
	}

	if matched {
		return inventory.Error(apperr.Validation(http.StatusMethodNotAllowed, "Method not allowed.", nil))
	}
	return inventory.Error(apperr.NotFound())
}

// queryValues prefere os parâmetros multi-valor, que preservam repetições
// como brand=A&brand=B.
func queryValues(req events.APIGatewayProxyRequest) url.Values {
	values := url.Values{}
	if len(req.MultiValueQueryStringParameters) > 0 {
		for k, vs := range req.MultiValueQueryStringParameters {
			values[k] = append([]string(nil), vs...)
		}
		return values
	}
	for k, v := range req.QueryStringParameters {
		values.Set(k, v)
	}
	return values
}

// header busca sem diferenciar maiúsculas; o API Gateway nem sempre
// normaliza os nomes.
func header(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
