// Package httpapi exposes the pricing pipeline over a minimal HTTP surface
// for transport collaborators to call.
package httpapi

import (
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/solescan/solescan/errs"
	"github.com/solescan/solescan/internal/pipeline"
	"github.com/solescan/solescan/internal/schema"
)

// maxImageBytes bounds uploaded image size.
const maxImageBytes = 10 << 20

// NewHandler returns the HTTP facade over the pipeline.
func NewHandler(p *pipeline.Pipeline) http.Handler {
	server := &apiServer{pipeline: p}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/pricing", server.handlePricing)
	mux.HandleFunc("/v1/invalidate", server.handleInvalidate)
	mux.HandleFunc("/healthz", server.handleHealth)
	return mux
}

type apiServer struct {
	pipeline *pipeline.Pipeline
}

func (s *apiServer) handlePricing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	image, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read image body")
		return
	}
	if len(image) == 0 {
		writeError(w, http.StatusBadRequest, "empty image body")
		return
	}
	if len(image) > maxImageBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	result := s.pipeline.Handle(r.Context(), image)
	writeJSON(w, statusFor(result), result)
}

func (s *apiServer) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var identity schema.SneakerIdentity
	if err := json.NewDecoder(r.Body).Decode(&identity); err != nil {
		writeError(w, http.StatusBadRequest, "invalid identity payload")
		return
	}
	if err := identity.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.pipeline.Invalidate(r.Context(), identity); err != nil {
		writeError(w, http.StatusInternalServerError, "invalidate failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps outcome kinds onto HTTP statuses. Ambiguous results are a
// successful response; the transport drives disambiguation.
func statusFor(result schema.PricingResult) int {
	if result.Outcome != schema.OutcomeFailure || result.Failure == nil {
		return http.StatusOK
	}
	switch result.Failure.Kind {
	case errs.CodeNoMatch:
		return http.StatusNotFound
	case errs.CodeNoPricingData:
		return http.StatusBadGateway
	case errs.CodeTimeout:
		return http.StatusGatewayTimeout
	case errs.CodeInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
