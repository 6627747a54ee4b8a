package internaldefs

import (
	sessiongate "github.com/cityhealth/sessiongate"
)

// CounterDef binds a counter MetricID to its exported name and help text.
type CounterDef struct {
	ID   sessiongate.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram MetricID to its exported name and help text.
type HistogramDef struct {
	ID   sessiongate.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in a stable order. Exporters iterate
// this slice so both backends emit identical names.
var CounterDefs = []CounterDef{
	{ID: sessiongate.MetricLoginSuccess, Name: "sessiongate_login_success_total", Help: "Successful login operations."},
	{ID: sessiongate.MetricLoginFailure, Name: "sessiongate_login_failure_total", Help: "Failed login operations."},
	{ID: sessiongate.MetricRegisterSuccess, Name: "sessiongate_register_success_total", Help: "Successful registrations."},
	{ID: sessiongate.MetricRegisterFailure, Name: "sessiongate_register_failure_total", Help: "Failed registrations."},
	{ID: sessiongate.MetricLogout, Name: "sessiongate_logout_total", Help: "Logout operations."},
	{ID: sessiongate.MetricLogoutEndpointFailure, Name: "sessiongate_logout_endpoint_failure_total", Help: "Logout endpoint notifications that failed after local cleanup."},
	{ID: sessiongate.MetricHydrate, Name: "sessiongate_hydrate_total", Help: "Session hydrations from the token store."},
	{ID: sessiongate.MetricStorageCorrupt, Name: "sessiongate_storage_corrupt_total", Help: "Corrupt persisted records recovered by clearing storage."},
	{ID: sessiongate.MetricSessionInvalidated, Name: "sessiongate_session_invalidated_total", Help: "Sessions ended by a downstream unauthorized signal."},
	{ID: sessiongate.MetricValidateSuccess, Name: "sessiongate_validate_success_total", Help: "Server-side token re-checks that passed."},
	{ID: sessiongate.MetricValidateRejected, Name: "sessiongate_validate_rejected_total", Help: "Server-side token re-checks that rejected the token."},
	{ID: sessiongate.MetricGateAllow, Name: "sessiongate_gate_allow_total", Help: "Gate decisions that admitted a request."},
	{ID: sessiongate.MetricGateDenyAnonymous, Name: "sessiongate_gate_deny_anonymous_total", Help: "Gate denials for anonymous sessions."},
	{ID: sessiongate.MetricGateDenyForbidden, Name: "sessiongate_gate_deny_forbidden_total", Help: "Gate denials for wrong-role sessions."},
}

// HistogramDefs lists every engine histogram in a stable order.
var HistogramDefs = []HistogramDef{
	{ID: sessiongate.MetricLoginLatency, Name: "sessiongate_login_latency_seconds", Help: "Login round-trip latency histogram."},
}

// HistogramBounds are the upper bucket bounds rendered in Prometheus le labels.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are the bound spellings usable in OTel instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed bucket
// count, so exporters never index past a short slice.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms expose.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
