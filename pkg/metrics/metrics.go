package metrics

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	TradesParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_trades_parsed_total",
		Help: "Total number of trade records parsed",
	}, []string{"status"})

	FilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_files_processed_total",
		Help: "Total number of trade files processed",
	}, []string{"status"})

	TradesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_trades_appended_total",
		Help: "Total number of trades appended to a ledger",
	})

	LedgerQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_ledger_queries_total",
		Help: "Total number of ledger queries",
	}, []string{"operation"})

	LedgerQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portfolio_ledger_query_duration_seconds",
		Help:    "Duration of ledger queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

func RecordTradeParsed(status string) {
	TradesParsed.WithLabelValues(status).Inc()
}

func RecordFileProcessed(status string) {
	FilesProcessed.WithLabelValues(status).Inc()
}

func RecordTradesAppended(n int) {
	TradesAppended.Add(float64(n))
}

// RecordQuery conta a consulta e retorna o timer da sua duração.
func RecordQuery(operation string) *Timer {
	LedgerQueries.WithLabelValues(operation).Inc()
	return NewTimer()
}

type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
	}
}

func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Sample é o valor de uma série: nome mais labels no formato do prometheus.
type Sample struct {
	Name  string
	Value float64
}

// Snapshot lê os contadores e a contagem dos histogramas do gatherer, apenas
// das métricas com o prefixo portfolio_.
func Snapshot(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for _, mf := range families {
		name := mf.GetName()
		if len(name) < 10 || name[:10] != "portfolio_" {
			continue
		}
		for _, m := range mf.GetMetric() {
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				samples = append(samples, Sample{Name: seriesName(name, m), Value: m.GetCounter().GetValue()})
			case dto.MetricType_HISTOGRAM:
				samples = append(samples, Sample{Name: seriesName(name+"_count", m), Value: float64(m.GetHistogram().GetSampleCount())})
			}
		}
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Name < samples[j].Name
	})
	return samples, nil
}

func seriesName(name string, m *dto.Metric) string {
	labels := m.GetLabel()
	if len(labels) == 0 {
		return name
	}
	s := name + "{"
	for i, l := range labels {
		if i > 0 {
			s += ","
		}
		s += l.GetName() + "=\"" + l.GetValue() + "\""
	}
	return s + "}"
}
