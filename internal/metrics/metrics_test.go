// SPDX-License-Identifier: MIT

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// gather returns the metric family with the given name, or nil.
func gather(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func counterValue(mf *dto.MetricFamily, labels map[string]string) float64 {
	if mf == nil {
		return 0
	}
outer:
	for _, m := range mf.GetMetric() {
		for k, v := range labels {
			found := false
			for _, lp := range m.GetLabel() {
				if lp.GetName() == k && lp.GetValue() == v {
					found = true
					break
				}
			}
			if !found {
				continue outer
			}
		}
		return m.GetCounter().GetValue()
	}
	return 0
}

func TestRecordDecision_NormalizesLabels(t *testing.T) {
	RecordDecision("detail", false, false, "premium_locked")
	RecordDecision("bogus-mode", true, true, "made-up-reason")

	mf := gather(t, "viewgate_entitlement_decisions_total")
	require.NotNil(t, mf)

	require.GreaterOrEqual(t, counterValue(mf, map[string]string{
		"mode":   "detail",
		"reason": "premium_locked",
	}), 1.0)
	require.GreaterOrEqual(t, counterValue(mf, map[string]string{
		"mode":   "unknown",
		"reason": "unknown",
	}), 1.0)
}

func TestRecordView_Outcomes(t *testing.T) {
	RecordView(true)
	RecordView(false)

	mf := gather(t, "viewgate_views_total")
	require.NotNil(t, mf)
	require.GreaterOrEqual(t, counterValue(mf, map[string]string{"outcome": "counted"}), 1.0)
	require.GreaterOrEqual(t, counterValue(mf, map[string]string{"outcome": "deduplicated"}), 1.0)
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("GET", "/api/channels", 200, 5*time.Millisecond)

	mf := gather(t, "viewgate_http_requests_total")
	require.NotNil(t, mf)
	require.GreaterOrEqual(t, counterValue(mf, map[string]string{
		"method": "GET",
		"route":  "/api/channels",
		"code":   "200",
	}), 1.0)
}
