package fixer

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"go-payout-simulator/domain"
)

type instrumentingService struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	next     Service
}

// NewInstrumentingService counts and times provider calls, labelled by method and outcome.
func NewInstrumentingService(reg prometheus.Registerer, s Service) Service {
	factory := promauto.With(reg)
	return &instrumentingService{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixer_requests_total",
				Help: "Number of rate provider requests",
			},
			[]string{"method", "outcome"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fixer_request_duration_seconds",
				Help:    "Rate provider request latency, retries included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		next: s,
	}
}

func (s *instrumentingService) observe(method string, begin time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.requests.WithLabelValues(method, outcome).Inc()
	s.latency.WithLabelValues(method).Observe(time.Since(begin).Seconds())
}

func (s *instrumentingService) Latest(ctx context.Context) (q domain.Quote, err error) {
	defer func(begin time.Time) { s.observe("latest", begin, err) }(time.Now())
	return s.next.Latest(ctx)
}

func (s *instrumentingService) Symbols(ctx context.Context) (symbols domain.SymbolTable, err error) {
	defer func(begin time.Time) { s.observe("symbols", begin, err) }(time.Now())
	return s.next.Symbols(ctx)
}
