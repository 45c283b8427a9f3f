package simulation

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"go-payout-simulator/catalog"
	"go-payout-simulator/domain"
)

type instrumentingService struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	volume   *prometheus.CounterVec
	next     Service
}

// NewInstrumentingService records run counts by method and outcome, run latency and simulated volume.
func NewInstrumentingService(reg prometheus.Registerer, s Service) Service {
	factory := promauto.With(reg)
	return &instrumentingService{
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payout_simulations_total",
				Help: "Number of payout simulations by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "payout_simulation_duration_seconds",
				Help:    "Payout simulation latency, processing delay included",
				Buckets: []float64{.001, .01, .1, .5, 1, 1.5, 2, 5},
			},
		),
		volume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payout_simulated_amount_total",
				Help: "Sum of simulated source amounts by target currency",
			},
			[]string{"currency"},
		),
		next: s,
	}
}

func (s *instrumentingService) Run(ctx context.Context, req domain.Request) (res domain.Result, err error) {
	defer func(begin time.Time) {
		s.runs.WithLabelValues(methodLabel(req.MethodID), outcome(err)).Inc()
		s.duration.Observe(time.Since(begin).Seconds())
		if err == nil {
			s.volume.WithLabelValues(string(res.Currency)).Add(float64(res.OriginalAmount))
		}
	}(time.Now())
	return s.next.Run(ctx, req)
}

// methodLabel keeps label cardinality bounded to the catalog
func methodLabel(id string) string {
	if _, err := catalog.Lookup(id); err != nil {
		return "unknown"
	}
	return id
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "completed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case domain.IsInputError(err):
		return "rejected"
	}
	return "failed"
}
