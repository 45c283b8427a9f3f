package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"go-payout-simulator/catalog"
	"go-payout-simulator/domain"
	"go-payout-simulator/engine"
)

// Service runs payout simulations
type Service interface {
	Run(ctx context.Context, req domain.Request) (domain.Result, error)
}

// Results gives access to the last published result
type Results interface {
	Last() (domain.Result, bool)
	Clear()
}

// RateSource supplies the snapshot a run computes against. *rates.Store satisfies it.
type RateSource interface {
	Usable() (*domain.Snapshot, error)
}

// State of a simulation run
type State int32

const (
	Idle State = iota
	Validating
	Processing
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Processing:
		return "processing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Config for a Controller
type Config struct {
	// SourceCurrency used when a request doesn't name one
	SourceCurrency domain.Currency
	// Latency simulated processing delay, 0 for none
	Latency time.Duration
}

// Controller orchestrates simulation runs: validate, wait out the processing latency, convert, publish.
// Runs are independent of each other; each one reads a single snapshot for its whole computation.
type Controller struct {
	rates    RateSource
	config   Config
	validate *validator.Validate
	logger   log.Logger

	last  atomic.Pointer[domain.Result]
	state atomic.Int32
}

// NewController constructs a valid Controller
func NewController(rates RateSource, config Config, logger log.Logger) *Controller {
	return &Controller{
		rates:    rates,
		config:   config,
		validate: validator.New(),
		logger:   logger,
	}
}

// Run executes one simulation. It returns either a complete result or a *domain.SimulationError,
// never a partial result. A run cancelled through ctx publishes nothing.
func (c *Controller) Run(ctx context.Context, req domain.Request) (domain.Result, error) {
	logger := log.With(c.logger, "run", uuid.NewString())

	c.transition(logger, Validating)
	if req.SourceCurrency == "" {
		req.SourceCurrency = c.config.SourceCurrency
	}
	method, snapshot, err := c.check(req)
	if err != nil {
		return c.fail(logger, Validating, err)
	}

	c.transition(logger, Processing)
	if err := c.wait(ctx); err != nil {
		return c.fail(logger, Processing, err)
	}

	result, err := engine.Simulate(req, snapshot, method)
	if err != nil {
		return c.fail(logger, Processing, err)
	}
	if err := ctx.Err(); err != nil {
		return c.fail(logger, Processing, err)
	}

	c.last.Store(&result)
	c.transition(logger, Completed)
	c.transition(logger, Idle)
	return result, nil
}

// Last returns the most recently published result
func (c *Controller) Last() (domain.Result, bool) {
	r := c.last.Load()
	if r == nil {
		return domain.Result{}, false
	}
	return *r, true
}

// Clear drops the published result
func (c *Controller) Clear() {
	c.last.Store(nil)
}

// State reports the state of the most recently started run
func (c *Controller) State() State {
	return State(c.state.Load())
}

// check validates the request and resolves its method and snapshot
func (c *Controller) check(req domain.Request) (domain.Method, *domain.Snapshot, error) {
	if err := c.validate.Struct(req); err != nil {
		return domain.Method{}, nil, validationError(err)
	}
	method, err := catalog.Lookup(req.MethodID)
	if err != nil {
		return domain.Method{}, nil, err
	}
	snapshot, err := c.rates.Usable()
	if err != nil {
		return domain.Method{}, nil, err
	}
	return method, snapshot, nil
}

// wait is the only suspension point of a run
func (c *Controller) wait(ctx context.Context) error {
	if c.config.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.config.Latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) transition(logger log.Logger, to State) {
	c.state.Store(int32(to))
	level.Debug(logger).Log("msg", "simulation state", "state", to)
}

func (c *Controller) fail(logger log.Logger, in State, err error) (domain.Result, error) {
	c.transition(logger, Failed)
	c.transition(logger, Idle)
	return domain.Result{}, &domain.SimulationError{State: in.String(), Err: err}
}

// validationError maps the first failing field onto the domain error taxonomy
func validationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err
	}
	fe := fieldErrors[0]
	switch fe.Field() {
	case "Amount":
		return fmt.Errorf("%w: must be greater than 0", domain.ErrInvalidAmount)
	case "TargetCurrency", "SourceCurrency":
		return fmt.Errorf("%w: %s failed %q", domain.ErrUnknownCurrency, fe.Field(), fe.Tag())
	case "MethodID":
		return fmt.Errorf("%w: method is required", domain.ErrUnknownMethod)
	}
	return err
}
