package metrics

import (
	"fmt"
	"time"
)

// Recorder traduz eventos de uma invocação em chamadas ao Provider.
// Falhas de envio são ignoradas: métrica nunca derruba uma requisição.
type Recorder struct {
	provider Provider
}

// NewRecorder cria um Recorder. Com provider nil ele não faz nada.
func NewRecorder(p Provider) *Recorder {
	return &Recorder{provider: p}
}

// Observe registra o fim de uma invocação da rota.
func (r *Recorder) Observe(route string, status int, elapsed time.Duration, items int) {
	if r == nil || r.provider == nil {
		return
	}
	tags := []string{"route:" + route, fmt.Sprintf("status:%d", status)}

	_ = r.provider.Count(MetricRequests, 1, tags)
	_ = r.provider.Histogram(MetricLatency, float64(elapsed.Milliseconds()), tags)
	if status < 300 {
		_ = r.provider.Histogram(MetricItems, float64(items), tags)
	}
}

// StoreError registra uma falha do document store.
func (r *Recorder) StoreError(route string) {
	if r == nil || r.provider == nil {
		return
	}
	_ = r.provider.Count(MetricStoreErrors, 1, []string{"route:" + route})
}
