package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"go-payout-simulator/catalog"
	"go-payout-simulator/domain"
	"go-payout-simulator/simulation"
	"go-payout-simulator/split"
)

// RateView read access to the rate store. *rates.Store satisfies it.
type RateView interface {
	CurrentSnapshot() (*domain.Snapshot, bool)
	Symbols() (domain.SymbolTable, bool)
	Fresh() bool
}

// Server is the presentation boundary: it collects input, runs simulations
// and renders results rounded for display.
type Server struct {
	Simulator simulation.Service
	Results   simulation.Results
	Rates     RateView

	// Source the currency amounts are entered in
	Source domain.Currency

	// Metrics optional handler served on /metrics
	Metrics http.Handler

	Logger log.Logger

	validate *validator.Validate
	router   *http.ServeMux
}

func NewServer(sim simulation.Service, results simulation.Results, rates RateView, logger log.Logger) *Server {
	server := &Server{
		Simulator: sim,
		Results:   results,
		Rates:     rates,
		Source:    "USD",
		Logger:    logger,
		validate:  validator.New(),
		router:    http.NewServeMux(),
	}
	server.routes()
	return server
}

func (s *Server) routes() {
	s.router.Handle("POST /api/simulate", s.simulate())
	s.router.Handle("GET /api/simulation", s.lastSimulation())
	s.router.Handle("DELETE /api/simulation", s.clearSimulation())
	s.router.Handle("GET /api/methods", s.methods())
	s.router.Handle("GET /api/currencies", s.currencies())
	s.router.Handle("GET /api/rates", s.rates())
	s.router.Handle("POST /api/split", s.split())
	s.router.Handle("GET /api/split/presets", s.presets())
	s.router.Handle("GET /metrics", s.metrics())
}

func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(rw, r)
}

// result for marshalling simulation results to clients, amounts rounded to cents
type result struct {
	OriginalAmount  float64 `json:"originalAmount"`
	Fee             float64 `json:"fee"`
	ConvertedAmount float64 `json:"convertedAmount"`
	EstimatedTime   string  `json:"estimatedTime"`
	Currency        string  `json:"currency"`
	SourceCurrency  string  `json:"sourceCurrency"`
	Method          string  `json:"method,omitempty"`
	Summary         string  `json:"summary,omitempty"`
}

func (s *Server) render(r domain.Result) result {
	return result{
		OriginalAmount:  round(r.OriginalAmount),
		Fee:             round(r.Fee),
		ConvertedAmount: round(r.ConvertedAmount),
		EstimatedTime:   r.EstimatedTime,
		Currency:        string(r.Currency),
		SourceCurrency:  string(s.Source),
	}
}

// simulate produces HTTP handler for payout simulations
func (s *Server) simulate() http.HandlerFunc {

	// request for unmarshalling JSON requests posted by clients
	type request struct {
		Amount         domain.Amount   `json:"amount"`
		TargetCurrency domain.Currency `json:"targetCurrency"`
		Method         string          `json:"method"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var request request
		if !s.decode(rw, r, &request) {
			return
		}

		res, err := s.Simulator.Run(r.Context(), domain.Request{
			Amount:         request.Amount,
			SourceCurrency: s.Source,
			TargetCurrency: request.TargetCurrency,
			MethodID:       request.Method,
		})
		if err != nil {
			s.fail(rw, err)
			return
		}

		response := s.render(res)
		if method, err := catalog.Lookup(request.Method); err == nil {
			response.Method = method.DisplayName
			response.Summary = fmt.Sprintf("Sending %s %s via %s",
				res.Currency, decimal.NewFromFloat(float64(res.ConvertedAmount)).StringFixed(2), method.DisplayName)
		}
		s.encode(rw, http.StatusOK, response)
	}
}

func (s *Server) lastSimulation() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		res, ok := s.Results.Last()
		if !ok {
			writeError(rw, http.StatusNotFound, "no simulation result")
			return
		}
		s.encode(rw, http.StatusOK, s.render(res))
	}
}

func (s *Server) clearSimulation() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		s.Results.Clear()
		rw.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) methods() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		s.encode(rw, http.StatusOK, catalog.Methods())
	}
}

// currencies lists selectable target currencies. Names come from the symbol table;
// before it has loaded, the codes of the rate snapshot are listed without names.
func (s *Server) currencies() http.HandlerFunc {

	type currency struct {
		Code string `json:"code"`
		Name string `json:"name,omitempty"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var out []currency
		if symbols, ok := s.Rates.Symbols(); ok {
			for code, name := range symbols {
				out = append(out, currency{Code: string(code), Name: name})
			}
		} else if snapshot, ok := s.Rates.CurrentSnapshot(); ok {
			for _, code := range snapshot.Currencies() {
				out = append(out, currency{Code: string(code)})
			}
		} else {
			writeError(rw, http.StatusServiceUnavailable, domain.ErrRatesUnavailable.Error())
			return
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
		s.encode(rw, http.StatusOK, out)
	}
}

func (s *Server) rates() http.HandlerFunc {

	type response struct {
		Base       string    `json:"base"`
		FetchedAt  time.Time `json:"fetchedAt"`
		Currencies int       `json:"currencies"`
		Fresh      bool      `json:"fresh"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		snapshot, ok := s.Rates.CurrentSnapshot()
		if !ok {
			writeError(rw, http.StatusServiceUnavailable, domain.ErrRatesUnavailable.Error())
			return
		}
		s.encode(rw, http.StatusOK, response{
			Base:       string(snapshot.Base()),
			FetchedAt:  snapshot.FetchedAt(),
			Currencies: snapshot.Len(),
			Fresh:      s.Rates.Fresh(),
		})
	}
}

func (s *Server) split() http.HandlerFunc {

	type request struct {
		Amount  domain.Amount `json:"amount" validate:"gte=0"`
		Friends int           `json:"friends" validate:"gte=0"`
	}

	type response struct {
		Share        float64 `json:"share"`
		Participants int     `json:"participants"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var request request
		if !s.decode(rw, r, &request) {
			return
		}
		if err := s.validate.Struct(request); err != nil {
			writeError(rw, http.StatusBadRequest, "amount and friends must not be negative")
			return
		}

		share, err := split.Share(request.Amount, request.Friends)
		if err != nil {
			writeError(rw, http.StatusBadRequest, err.Error())
			return
		}
		s.encode(rw, http.StatusOK, response{
			Share:        round(share),
			Participants: split.Participants(request.Friends),
		})
	}
}

func (s *Server) presets() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		s.encode(rw, http.StatusOK, split.Presets)
	}
}

func (s *Server) metrics() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if s.Metrics == nil {
			http.NotFound(rw, r)
			return
		}
		s.Metrics.ServeHTTP(rw, r)
	}
}

// decode reads a JSON body, writing a 400 and returning false when it can't
func (s *Server) decode(rw http.ResponseWriter, r *http.Request, into interface{}) bool {
	defer r.Body.Close()

	bytes, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(rw, http.StatusBadRequest, "invalid request")
		return false
	}
	if err := json.Unmarshal(bytes, into); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func (s *Server) encode(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		level.Error(s.Logger).Log("msg", "failed json encoding", "err", err)
	}
}

// fail maps simulation errors to status codes
func (s *Server) fail(rw http.ResponseWriter, err error) {
	switch {
	case domain.IsInputError(err):
		writeError(rw, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRatesUnavailable), errors.Is(err, domain.ErrStaleRates):
		writeError(rw, http.StatusServiceUnavailable, "simulation unavailable: "+err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(rw, http.StatusServiceUnavailable, "simulation cancelled")
	default:
		level.Error(s.Logger).Log("msg", "simulation failed", "err", err)
		writeError(rw, http.StatusInternalServerError, "failed simulation")
	}
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(map[string]string{"error": msg})
}

// round to two decimals for display only
func round(a domain.Amount) float64 {
	return decimal.NewFromFloat(float64(a)).Round(2).InexactFloat64()
}
