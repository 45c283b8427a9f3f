package rates

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/singleflight"

	"go-payout-simulator/domain"
)

// Provider is the external source of rates and currency names. fixer.Service satisfies it.
type Provider interface {
	Latest(ctx context.Context) (domain.Quote, error)
	Symbols(ctx context.Context) (domain.SymbolTable, error)
}

// Store holds the latest rate snapshot and symbol table.
// Both are replaced by atomic pointer swap, so readers never see a partially updated value
// and no lock is held while talking to the provider.
type Store struct {
	// provider the data source refreshes read from
	provider Provider

	snapshot atomic.Pointer[domain.Snapshot]
	symbols  atomic.Pointer[domain.SymbolTable]

	// group collapses concurrent refreshes of the same kind into one provider call
	group singleflight.Group

	// maxAge how old a snapshot may get before simulations are refused, 0 disables
	maxAge time.Duration

	now    func() time.Time
	logger log.Logger
}

// Option configures a Store
type Option func(*Store)

// WithMaxAge sets the staleness limit
func WithMaxAge(d time.Duration) Option {
	return func(s *Store) { s.maxAge = d }
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns an empty Store. Nothing is fetched until a refresh is requested.
func NewStore(p Provider, logger log.Logger, opts ...Option) *Store {
	s := &Store{
		provider: p,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshRates fetches the latest rates and installs them as the current snapshot.
// On failure the previous snapshot is kept and a *domain.RateFetchError is returned.
func (s *Store) RefreshRates(ctx context.Context) (*domain.Snapshot, error) {
	v, err, shared := s.group.Do("latest", func() (interface{}, error) {
		quote, err := s.provider.Latest(ctx)
		if err != nil {
			return nil, err
		}
		snapshot := domain.NewSnapshot(quote.Base, quote.Rates, s.now())
		if err := snapshot.Validate(); err != nil {
			return nil, err
		}
		s.snapshot.Store(snapshot)
		return snapshot, nil
	})
	if err != nil {
		return nil, fetchError("latest", err)
	}
	snapshot := v.(*domain.Snapshot)
	level.Debug(s.logger).Log("msg", "rates refreshed", "base", snapshot.Base(), "currencies", snapshot.Len(), "shared", shared)
	return snapshot, nil
}

// RefreshSymbols fetches the symbol table. It is independent of the rate snapshot:
// a failure here never touches rate availability.
func (s *Store) RefreshSymbols(ctx context.Context) (domain.SymbolTable, error) {
	v, err, _ := s.group.Do("symbols", func() (interface{}, error) {
		symbols, err := s.provider.Symbols(ctx)
		if err != nil {
			return nil, err
		}
		table := copySymbols(symbols)
		s.symbols.Store(&table)
		return table, nil
	})
	if err != nil {
		return nil, fetchError("symbols", err)
	}
	return copySymbols(v.(domain.SymbolTable)), nil
}

// CurrentSnapshot returns the last successfully fetched snapshot, false before the first one.
func (s *Store) CurrentSnapshot() (*domain.Snapshot, bool) {
	snapshot := s.snapshot.Load()
	return snapshot, snapshot != nil
}

// Symbols returns a copy of the last fetched symbol table, false before the first one.
func (s *Store) Symbols() (domain.SymbolTable, bool) {
	table := s.symbols.Load()
	if table == nil {
		return nil, false
	}
	return copySymbols(*table), true
}

// Usable returns the current snapshot if one exists and is not older than the max age.
func (s *Store) Usable() (*domain.Snapshot, error) {
	snapshot, ok := s.CurrentSnapshot()
	if !ok {
		return nil, domain.ErrRatesUnavailable
	}
	if s.maxAge > 0 && snapshot.Age(s.now()) > s.maxAge {
		return nil, fmt.Errorf("%w: fetched at %v", domain.ErrStaleRates, snapshot.FetchedAt().Format(time.RFC3339))
	}
	return snapshot, nil
}

// Fresh reports whether the current snapshot is usable for simulations
func (s *Store) Fresh() bool {
	_, err := s.Usable()
	return err == nil
}

// Run refreshes rates and symbols immediately and then every interval until ctx is done.
// Failures are logged; the previous data keeps being served.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	s.refreshAll(ctx)
	for {
		select {
		case <-time.After(interval):
			s.refreshAll(ctx)
		case <-ctx.Done():
			level.Info(s.logger).Log("msg", "shutting down periodic refresh")
			return
		}
	}
}

func (s *Store) refreshAll(ctx context.Context) {
	if _, err := s.RefreshRates(ctx); err != nil {
		// Don't return, just log and hope this is a transient error
		level.Warn(s.logger).Log("msg", "rate refresh failed", "err", err)
	}
	if _, err := s.RefreshSymbols(ctx); err != nil {
		level.Warn(s.logger).Log("msg", "symbol refresh failed", "err", err)
	}
}

func fetchError(op string, err error) error {
	var fetchErr *domain.RateFetchError
	if errors.As(err, &fetchErr) {
		return err
	}
	return &domain.RateFetchError{Op: op, Err: err}
}

func copySymbols(in domain.SymbolTable) domain.SymbolTable {
	out := make(domain.SymbolTable, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
