package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/raywall/car-listing-service/pkg/apperr"
	"github.com/raywall/car-listing-service/pkg/inventory"
	"github.com/rs/zerolog/log"
)

// NewRouter monta o roteador com todas as rotas sob o ROUTE_PREFIX.
func NewRouter(svc *inventory.Service) http.Handler {
	router := mux.NewRouter()

	base := router
	if prefix := svc.Config.Service.RoutePrefix; prefix != "" {
		base = router.PathPrefix(prefix).Subrouter()
	}

	for _, route := range Routes() {
		base.HandleFunc(route.Path, createHandler(svc, route)).Methods(route.Method)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, inventory.Error(apperr.NotFound()))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, inventory.Error(apperr.Validation(http.StatusMethodNotAllowed, "Method not allowed.", nil)))
	})

	return ObservabilityMiddleware(router)
}

// StartHTTPServer sobe o servidor e bloqueia até ctx ser cancelado. Também
// é o processo de custom handler do Azure Functions.
func StartHTTPServer(ctx context.Context, svc *inventory.Service) error {
	addr := fmt.Sprintf(":%d", svc.Config.Service.ListenPort())
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("prefix", svc.Config.Service.RoutePrefix).Msg("Servidor HTTP ouvindo")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("Encerrando servidor HTTP")
		return srv.Shutdown(shutdownCtx)
	}
}

func createHandler(svc *inventory.Service, route Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout := svc.Config.Service.Timeout; timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		in := Input{Query: r.URL.Query()}
		if r.Body != nil {
			defer r.Body.Close()
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).Msg("falha ao ler o corpo")
				writeResponse(w, inventory.Error(apperr.Validation(http.StatusBadRequest, apperr.MsgInvalidJSON, err)))
				return
			}
			in.Body = body
		}

		writeResponse(w, route.Invoke(ctx, svc, in))
	}
}

func writeResponse(w http.ResponseWriter, resp inventory.Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	startTime   time.Time
	wroteHeader bool
}

func (rw *responseWriterWrapper) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.Header().Set(HeaderLatency, fmt.Sprintf("%d", time.Since(rw.startTime).Milliseconds()))
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

func (rw *responseWriterWrapper) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// ObservabilityMiddleware propaga (ou cria) o correlation id e registra o
// fim de cada requisição.
func ObservabilityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		corrID := r.Header.Get(HeaderCorrelationID)
		if corrID == "" {
			corrID = uuid.NewString()
		}
		w.Header().Set(HeaderCorrelationID, corrID)

		logger := log.With().Str("correlation_id", corrID).Logger()
		ctx := logger.WithContext(r.Context())
		ctx = context.WithValue(ctx, ContextKeyCorrID, corrID)

		wrapper := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			startTime:      start,
		}

		next.ServeHTTP(wrapper, r.WithContext(ctx))

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Msg("request completed")
	})
}
