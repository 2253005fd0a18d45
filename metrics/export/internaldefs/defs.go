package internaldefs

import (
	"strconv"

	goCare "github.com/MrEthical07/goCare"
)

// CounterDef names one client counter for export.
type CounterDef struct {
	ID   goCare.MetricID
	Name string
	Help string
}

// HistogramDef names one client histogram for export.
type HistogramDef struct {
	ID   goCare.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goCare.MetricLoginSuccess, Name: "gocare_login_success_total", Help: "Logins that produced a stored session."},
	{ID: goCare.MetricLoginFailure, Name: "gocare_login_failure_total", Help: "Failed logins."},
	{ID: goCare.MetricRegisterSuccess, Name: "gocare_register_success_total", Help: "Registrations that produced a stored session."},
	{ID: goCare.MetricRegisterFailure, Name: "gocare_register_failure_total", Help: "Failed registrations."},
	{ID: goCare.MetricLogout, Name: "gocare_logout_total", Help: "Logout calls."},
	{ID: goCare.MetricHydrateRestored, Name: "gocare_hydrate_restored_total", Help: "Startups that restored a stored session."},
	{ID: goCare.MetricHydrateCleared, Name: "gocare_hydrate_cleared_total", Help: "Startups that discarded an unusable stored credential."},
	{ID: goCare.MetricHydrateEmpty, Name: "gocare_hydrate_empty_total", Help: "Startups without a stored session."},
	{ID: goCare.MetricDecryptFailOpen, Name: "gocare_decrypt_fail_open_total", Help: "Requests sent without a credential because the stored token did not decrypt."},
	{ID: goCare.MetricRequestSuccess, Name: "gocare_request_success_total", Help: "Gateway requests answered with 2xx."},
	{ID: goCare.MetricRequestFailure, Name: "gocare_request_failure_total", Help: "Gateway requests returned as failures."},
}

var HistogramDefs = []HistogramDef{
	{ID: goCare.MetricRequestLatency, Name: "gocare_request_latency_seconds", Help: "Gateway round-trip latency."},
}

// HistogramBounds are the upper bounds in seconds of the first seven buckets. The
// eighth bucket is +Inf.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// BucketLabels returns the le label of every bucket, +Inf included.
func BucketLabels() []string {
	out := make([]string, 0, len(HistogramBounds)+1)
	for _, le := range HistogramBounds {
		out = append(out, strconv.FormatFloat(le, 'g', -1, 64))
	}
	return append(out, "+Inf")
}

// NormalizeBuckets copies raw into a fixed array, ignoring extra entries.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
