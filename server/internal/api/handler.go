package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mdrdcalc/mdrdcalc/server/internal/egfr"
	"github.com/mdrdcalc/mdrdcalc/server/internal/metrics"
)

// Calculator endpoint paths.
const (
	PathFormCalculate = "/calculate_mdrd_gfr"
	PathJSONCalculate = "/calculate"
)

// Handler is the HTTP handler for the calculator endpoints.
type Handler struct {
	svc     *Service
	metrics *metrics.Registry
	mux     *http.ServeMux
}

// New creates a Handler backed by svc and registers both calculator routes.
// CORS is applied by the caller around the whole server mux.
func New(svc *Service, reg *metrics.Registry) http.Handler {
	h := &Handler{svc: svc, metrics: reg, mux: http.NewServeMux()}

	h.mux.Handle(PathFormCalculate, h.instrument(PathFormCalculate, h.calculateForm))
	h.mux.Handle(PathJSONCalculate, h.instrument(PathJSONCalculate, h.calculateJSON))

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// calculateForm serves POST /calculate_mdrd_gfr with a form-encoded body and
// responds with the formatted result string.
func (h *Handler) calculateForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	fields, err := decodeFormFields(w, r)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.svc.Calculate(fields)
	if err != nil {
		validationErr(w, err)
		return
	}
	jsonResp(w, http.StatusOK, FormattedResponse{EGFR: FormatEGFR(v)})
}

// calculateJSON serves POST /calculate with a JSON body and responds with the
// bare numeric result.
func (h *Handler) calculateJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	fields, err := decodeJSONFields(r.Body)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.svc.Calculate(fields)
	if err != nil {
		validationErr(w, err)
		return
	}
	jsonResp(w, http.StatusOK, CalculateResponse{EGFR: v})
}

// --- helpers ----------------------------------------------------------------

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument wraps fn with request logging and the request counter.
func (h *Handler) instrument(endpoint string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		fn(rec, r)

		h.metrics.ObserveRequest(endpoint, rec.code)
		slog.Debug("api: request",
			"method", r.Method,
			"path", r.URL.Path,
			"code", rec.code,
			"duration", time.Since(start),
		)
	})
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// validationErr writes a 422 listing every rejected field. Any other error
// from the service is unexpected and reported as 500.
func validationErr(w http.ResponseWriter, err error) {
	var verr *egfr.ValidationError
	if !errors.As(err, &verr) {
		slog.Error("api: calculate failed", "err", err)
		jsonErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResp(w, http.StatusUnprocessableEntity, errorResponse{
		Error:  "validation failed",
		Fields: verr.Fields,
	})
}
