// Package circuitmock runs a local stand-in for the remote routing API. It
// implements every endpoint the HTTP client calls against in-memory state,
// with fault knobs for the failure modes worth rehearsing: rate limiting,
// canceled optimizations and read-only plans.
package circuitmock

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/routeup/routeup/config"
	"github.com/routeup/routeup/core/circuit"
	"github.com/routeup/routeup/core/model"
	"github.com/routeup/routeup/infra/logger"
)

// pageSize keeps list responses small so local runs always exercise the
// pagination path.
const pageSize = 2

type mockPlan struct {
	plan  circuit.Plan
	stops []circuit.Stop
}

type opState struct {
	op    circuit.Operation
	polls int
}

// Server serves the mock routing API.
type Server struct {
	cfg    config.MockConfig
	log    logger.Logger
	srv    *http.Server
	addr   string
	roster []model.Driver

	mu    sync.Mutex
	seq   int
	calls int
	plans map[string]*mockPlan
	ops   map[string]*opState

	served *prometheus.CounterVec
	failed prometheus.Counter
}

// NewServer creates a mock server using the default Prometheus registerer.
func NewServer(cfg config.MockConfig) *Server {
	return NewServerWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewServerWithRegistry creates a mock server and registers its metrics on
// the provided registerer. If reg is nil the default registerer is used.
func NewServerWithRegistry(cfg config.MockConfig, reg prometheus.Registerer) *Server {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	log := logger.New("circuit-mock")

	served := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mock_requests_total",
		Help: "Requests served by the mock routing API",
	}, []string{"endpoint"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mock_requests_failed",
		Help: "Requests the mock routing API rejected",
	})

	if err := reg.Register(served); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				served = exist
			} else {
				log.Errorf("existing collector for mock_requests_total has wrong type %T", are.ExistingCollector)
			}
		}
	}
	if err := reg.Register(failed); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(prometheus.Counter); ok {
				failed = exist
			} else {
				log.Errorf("existing collector for mock_requests_failed has wrong type %T", are.ExistingCollector)
			}
		}
	}

	return &Server{
		cfg:    cfg,
		log:    log,
		addr:   cfg.Address,
		roster: rosterFromNames(cfg.Drivers),
		plans:  make(map[string]*mockPlan),
		ops:    make(map[string]*opState),
		served: served,
		failed: failed,
	}
}

// rosterFromNames builds the driver roster served by /drivers. An empty list
// falls back to a small default crew.
func rosterFromNames(names []string) []model.Driver {
	if len(names) == 0 {
		names = []string{"Ana Lopez", "Bob Kowalski", "Cara Quinn"}
	}
	roster := make([]model.Driver, len(names))
	for i, name := range names {
		first := strings.ToLower(strings.Fields(name)[0])
		roster[i] = model.Driver{
			ID:     fmt.Sprintf("drivers/d%d", i+1),
			Name:   name,
			Email:  first + "@mock.local",
			Active: true,
		}
	}
	return roster
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("pong")); err != nil {
			s.log.Errorf("write pong: %v", err)
		}
	})
	mux.HandleFunc("/drivers", s.listDrivers)
	mux.HandleFunc("/plans", s.handlePlans)
	mux.HandleFunc("/plans/", s.handlePlanSubpath)
	mux.HandleFunc("/operations/", s.checkOperation)
	return s.limit(mux)
}

// Handler exposes the routes for tests that mount the server on their own
// listener.
func (s *Server) Handler() http.Handler { return s.routes() }

// limit answers every Nth API call with a 429 when the fault is configured.
// The ping endpoint stays exempt so health checks keep passing.
func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			next.ServeHTTP(w, r)
			return
		}
		s.mu.Lock()
		s.calls++
		limited := s.cfg.Every429 > 0 && s.calls%s.cfg.Every429 == 0
		s.mu.Unlock()
		if limited {
			s.error(w, http.StatusTooManyRequests, "rate limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createPlan(w, r)
	case http.MethodGet:
		s.listPlans(w, r)
	default:
		s.error(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handlePlanSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/plans/")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(rest, ":optimize"):
		s.optimize(w, "plans/"+strings.TrimSuffix(rest, ":optimize"))
	case r.Method == http.MethodPost && strings.HasSuffix(rest, ":distribute"):
		s.distribute(w, "plans/"+strings.TrimSuffix(rest, ":distribute"))
	case r.Method == http.MethodPost && strings.HasSuffix(rest, "/stops:import"):
		s.importStops(w, r, "plans/"+strings.TrimSuffix(rest, "/stops:import"))
	case r.Method == http.MethodGet && strings.HasSuffix(rest, "/stops"):
		s.listStops(w, r, "plans/"+strings.TrimSuffix(rest, "/stops"))
	case r.Method == http.MethodDelete:
		s.deletePlan(w, "plans/"+rest)
	default:
		s.error(w, http.StatusNotFound, "unknown endpoint")
	}
}

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	s.served.WithLabelValues("create_plan").Inc()
	var spec circuit.PlanSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		s.error(w, http.StatusBadRequest, "bad plan payload")
		return
	}
	if spec.Title == "" {
		s.error(w, http.StatusBadRequest, "title is required")
		return
	}
	s.mu.Lock()
	s.seq++
	plan := circuit.Plan{
		ID:       fmt.Sprintf("plans/p%d", s.seq),
		Title:    spec.Title,
		Starts:   spec.Starts,
		Writable: !s.cfg.ReadOnlyPlans,
	}
	s.plans[plan.ID] = &mockPlan{plan: plan}
	s.mu.Unlock()
	s.log.Debugf("created %s for route %q", plan.ID, plan.Title)
	s.json(w, plan)
}

func (s *Server) importStops(w http.ResponseWriter, r *http.Request, planID string) {
	s.served.WithLabelValues("import_stops").Inc()
	var stops []circuit.StopInput
	if err := json.NewDecoder(r.Body).Decode(&stops); err != nil {
		s.error(w, http.StatusBadRequest, "bad stops payload")
		return
	}
	if len(stops) == 0 {
		s.error(w, http.StatusBadRequest, "no stops in batch")
		return
	}
	if len(stops) > 100 {
		s.error(w, http.StatusBadRequest, "batch exceeds 100 stops")
		return
	}
	s.mu.Lock()
	p, ok := s.plans[planID]
	if !ok {
		s.mu.Unlock()
		s.error(w, http.StatusNotFound, "unknown plan")
		return
	}
	if !p.plan.Writable {
		s.mu.Unlock()
		s.error(w, http.StatusBadRequest, "plan is not writable")
		return
	}
	ids := make([]string, len(stops))
	for i, in := range stops {
		s.seq++
		id := fmt.Sprintf("%s/stops/s%d", planID, s.seq)
		p.stops = append(p.stops, circuit.Stop{ID: id, StopInput: in})
		ids[i] = id
	}
	s.mu.Unlock()
	s.json(w, circuit.ImportResult{Success: ids})
}

func (s *Server) optimize(w http.ResponseWriter, planID string) {
	s.served.WithLabelValues("optimize").Inc()
	s.mu.Lock()
	if _, ok := s.plans[planID]; !ok {
		s.mu.Unlock()
		s.error(w, http.StatusNotFound, "unknown plan")
		return
	}
	s.seq++
	op := circuit.Operation{
		ID:   fmt.Sprintf("operations/o%d", s.seq),
		Done: s.cfg.OptimizePolls <= 0,
	}
	if s.cfg.CancelOptimize {
		op.Done = true
		op.Metadata.Canceled = true
	}
	s.ops[op.ID] = &opState{op: op, polls: s.cfg.OptimizePolls}
	s.mu.Unlock()
	s.json(w, op)
}

func (s *Server) checkOperation(w http.ResponseWriter, r *http.Request) {
	s.served.WithLabelValues("check_operation").Inc()
	if r.Method != http.MethodGet {
		s.error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	opID := "operations/" + strings.TrimPrefix(r.URL.Path, "/operations/")
	s.mu.Lock()
	st, ok := s.ops[opID]
	if !ok {
		s.mu.Unlock()
		s.error(w, http.StatusNotFound, "unknown operation")
		return
	}
	if !st.op.Done {
		st.polls--
		if st.polls <= 0 {
			st.op.Done = true
		}
	}
	op := st.op
	s.mu.Unlock()
	s.json(w, op)
}

func (s *Server) distribute(w http.ResponseWriter, planID string) {
	s.served.WithLabelValues("distribute").Inc()
	s.mu.Lock()
	p, ok := s.plans[planID]
	if ok {
		p.plan.Distributed = true
	}
	s.mu.Unlock()
	if !ok {
		s.error(w, http.StatusNotFound, "unknown plan")
		return
	}
	s.json(w, map[string]bool{"distributed": true})
}

func (s *Server) deletePlan(w http.ResponseWriter, planID string) {
	s.served.WithLabelValues("delete_plan").Inc()
	s.mu.Lock()
	_, ok := s.plans[planID]
	delete(s.plans, planID)
	s.mu.Unlock()
	if !ok {
		s.error(w, http.StatusNotFound, "unknown plan")
		return
	}
	s.json(w, map[string]any{})
}

func (s *Server) listDrivers(w http.ResponseWriter, r *http.Request) {
	s.served.WithLabelValues("list_drivers").Inc()
	if r.Method != http.MethodGet {
		s.error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writePage(s, w, r, "drivers", s.roster)
}

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	s.served.WithLabelValues("list_plans").Inc()
	gte := r.URL.Query().Get("filter.startsGte")
	lte := r.URL.Query().Get("filter.startsLte")
	s.mu.Lock()
	plans := make([]circuit.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		date := planDate(p.plan.Starts)
		if gte != "" && date < gte {
			continue
		}
		if lte != "" && date > lte {
			continue
		}
		plans = append(plans, p.plan)
	}
	s.mu.Unlock()
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	writePage(s, w, r, "plans", plans)
}

func (s *Server) listStops(w http.ResponseWriter, r *http.Request, planID string) {
	s.served.WithLabelValues("list_stops").Inc()
	s.mu.Lock()
	p, ok := s.plans[planID]
	var stops []circuit.Stop
	if ok {
		stops = append(stops, p.stops...)
	}
	s.mu.Unlock()
	if !ok {
		s.error(w, http.StatusNotFound, "unknown plan")
		return
	}
	writePage(s, w, r, "stops", stops)
}

// writePage writes one page of items under the given field, carrying the
// next offset in nextPageToken while more remain.
func writePage[T any](s *Server, w http.ResponseWriter, r *http.Request, field string, items []T) {
	start := 0
	if token := r.URL.Query().Get("pageToken"); token != "" {
		v, err := strconv.Atoi(token)
		if err != nil || v < 0 || v > len(items) {
			s.error(w, http.StatusBadRequest, "bad page token")
			return
		}
		start = v
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	resp := map[string]any{field: items[start:end]}
	if end < len(items) {
		resp["nextPageToken"] = strconv.Itoa(end)
	}
	s.json(w, resp)
}

func planDate(p circuit.PlanStart) string {
	return fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, p.Day)
}

func (s *Server) json(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("encode response: %v", err)
	}
}

func (s *Server) error(w http.ResponseWriter, status int, msg string) {
	s.failed.Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		s.log.Errorf("encode error response: %v", err)
	}
}

// Addr returns the listening address once Start has been called.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start runs the mock API until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	s.srv = &http.Server{Handler: s.routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("shutdown server: %v", err)
		}
		cancel()
	}()
	s.log.Infof("mock routing API listening on %s", ln.Addr())
	err = s.srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
