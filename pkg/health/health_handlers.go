package health

import (
	"encoding/json"
	"net/http"
)

// HTTPHandler serves the general checks. Degraded still answers 200.
func (hc *Checker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := hc.Check(r.Context())
		code := http.StatusOK
		if response.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeResponse(w, code, response)
	}
}

// ReadinessHandler serves readiness checks. Anything but healthy is 503.
func (hc *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeBinary(w, hc.CheckReadiness(r.Context()))
	}
}

// LivenessHandler serves liveness checks. Anything but healthy is 503.
func (hc *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeBinary(w, hc.CheckLiveness(r.Context()))
	}
}

// Register mounts the three handlers under /health.
func (hc *Checker) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", hc.HTTPHandler())
	mux.HandleFunc("/health/ready", hc.ReadinessHandler())
	mux.HandleFunc("/health/live", hc.LivenessHandler())
}

func writeBinary(w http.ResponseWriter, response Response) {
	code := http.StatusOK
	if response.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeResponse(w, code, response)
}

func writeResponse(w http.ResponseWriter, code int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response)
}
