package fixer

import (
	"context"
	"time"

	"github.com/go-kit/log"

	"go-payout-simulator/domain"
)

// loggingService decorates a fixer.Service with logging
type loggingService struct {
	next   Service
	logger log.Logger
}

// NewLoggingService return a new logging service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

func (s *loggingService) Latest(ctx context.Context) (q domain.Quote, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "latest",
			"base", q.Base,
			"currencies", len(q.Rates),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Latest(ctx)
}

func (s *loggingService) Symbols(ctx context.Context) (symbols domain.SymbolTable, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "symbols",
			"currencies", len(symbols),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Symbols(ctx)
}
