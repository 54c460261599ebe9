package probe

import (
	"encoding/json"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-checked service name of the calculator.
const ServiceName = "mdrd.Calculator"

// Probe tracks whether the calculator is accepting work.
type Probe struct {
	health *health.Server
}

// New returns a Probe that reports NOT_SERVING until SetServing(true).
func New() *Probe {
	p := &Probe{health: health.NewServer()}
	p.SetServing(false)
	return p
}

// Register attaches the health service to srv.
func (p *Probe) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, p.health)
}

// SetServing updates the status of the overall and calculator services.
func (p *Probe) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	p.health.SetServingStatus("", status)
	p.health.SetServingStatus(ServiceName, status)
}

// Shutdown marks every service NOT_SERVING permanently; later SetServing
// calls are ignored by the underlying health server.
func (p *Probe) Shutdown() {
	p.health.Shutdown()
}

// Health returns the gRPC health server, mainly for in-process checks.
func (p *Probe) Health() healthpb.HealthServer {
	return p.health
}

type statusResponse struct {
	Status string `json:"status"`
}

// ServeHTTP answers GET /healthz.
func (p *Probe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed"}) //nolint:errcheck
		return
	}

	resp, err := p.health.Check(r.Context(), &healthpb.HealthCheckRequest{Service: ServiceName})
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if err == nil {
		status = resp.GetStatus()
	}

	code := http.StatusOK
	if status != healthpb.HealthCheckResponse_SERVING {
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(statusResponse{Status: status.String()}) //nolint:errcheck
}
