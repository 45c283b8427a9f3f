package simulation

import (
	"context"
	"time"

	"github.com/go-kit/log"

	"go-payout-simulator/domain"
)

// loggingService decorates a simulation.Service with logging
type loggingService struct {
	logger log.Logger
	next   Service
}

// NewLoggingService returns a new instance of a logging Service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

func (s *loggingService) Run(ctx context.Context, req domain.Request) (res domain.Result, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "run",
			"amount", req.Amount,
			"from", req.SourceCurrency,
			"to", req.TargetCurrency,
			"payout_method", req.MethodID,
			"fee", res.Fee,
			"converted_amount", res.ConvertedAmount,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Run(ctx, req)
}
