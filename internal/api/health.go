package api

import "net/http"

// HealthHandler answers GET /api/healthz for load balancers and uptime
// probes. It deliberately touches no dependencies: a live process reports
// healthy even while the store or cache is down, which keeps a degraded
// instance reachable for diagnosis instead of being restarted in a loop.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("{\"status\":\"ok\"}\n"))
}
