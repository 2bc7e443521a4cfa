package metrics

// Provider define o contrato para envio de métricas.
// Isso permite trocar Datadog por Prometheus ou Logging sem alterar a lógica de negócio.
type Provider interface {
	Count(name string, value float64, tags []string) error
	Gauge(name string, value float64, tags []string) error
	Histogram(name string, value float64, tags []string) error
}

// Nomes das métricas emitidas pelo serviço (o namespace vem do provider).
const (
	MetricRequests    = "requests"
	MetricStoreErrors = "store.errors"
	MetricLatency     = "latency_ms"
	MetricItems       = "items"
)
