package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/esg-engine/internal/config"
	"github.com/sells-group/esg-engine/internal/dashboard"
	"github.com/sells-group/esg-engine/internal/source"
)

// datasetLoader returns the engine input for a request.
type datasetLoader func(ctx context.Context, filters dashboard.Filters) (*source.Dataset, error)

type apiServer struct {
	load    datasetLoader
	scoring config.ScoringConfig
	memo    *dashboard.Memo
}

func newAPIServer(load datasetLoader, scoring config.ScoringConfig) *apiServer {
	return &apiServer{load: load, scoring: scoring, memo: &dashboard.Memo{}}
}

// routes builds the HTTP handler.
func (s *apiServer) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/firms", s.handleFirms)
		r.Get("/firms/{id}", s.handleFirm)
	})
	return r
}

func (s *apiServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	vm, status, err := s.viewModel(r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, vm)
}

func (s *apiServer) handleFirms(w http.ResponseWriter, r *http.Request) {
	vm, status, err := s.viewModel(r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, vm.Firms)
}

func (s *apiServer) handleFirm(w http.ResponseWriter, r *http.Request) {
	vm, status, err := s.viewModel(r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	id := chi.URLParam(r, "id")
	detail, ok := vm.FirmDetail(id)
	if !ok {
		writeJSONResponse(w, http.StatusNotFound, map[string]string{"error": "firm not found"})
		return
	}
	writeJSONResponse(w, http.StatusOK, detail)
}

// viewModel parses the request filters, loads the dataset and returns the
// memoized view model. The status code is meaningful only with an error.
func (s *apiServer) viewModel(r *http.Request) (*dashboard.ViewModel, int, error) {
	q := r.URL.Query()
	filters, err := filtersFromQuery(q)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	dims, err := parseDimensions(splitList(q["dimension"]))
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	ds, err := s.load(r.Context(), filters)
	if err != nil {
		return nil, http.StatusBadGateway, err
	}

	vm, err := s.memo.Get(dashboard.Input{
		Firms:       ds.Firms,
		Assessments: ds.Assessments,
		Filters:     filters,
		Scoring:     s.scoring,
		Dimensions:  dims,
	})
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return vm, http.StatusOK, nil
}

// filtersFromQuery reads filters from query parameters. List parameters may
// repeat or carry comma-separated values.
func filtersFromQuery(q url.Values) (dashboard.Filters, error) {
	f := dashboard.Filters{
		Sectors:            splitList(q["sector"]),
		Industries:         splitList(q["industry"]),
		IndustryCategories: splitList(q["industry_category"]),
		BusinessSizes:      splitList(q["business_size"]),
		Locations:          splitList(q["location"]),
		Search:             q.Get("search"),
	}
	var err error
	if f.YearFrom, err = queryInt(q, "year_from"); err != nil {
		return f, err
	}
	if f.YearTo, err = queryInt(q, "year_to"); err != nil {
		return f, err
	}
	return f, f.Validate()
}

func queryInt(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, eris.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSONResponse(w, status, map[string]string{"error": err.Error()})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
