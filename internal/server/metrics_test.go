package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricValue returns the value of the counter, gauge or histogram sample
// count named name whose labels include every name=value pair in labels.
// It fails the test when no such series exists.
func metricValue(t *testing.T, reg prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			got := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue series
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("%s%v not found in gathered metrics", name, labels)
	return 0
}

func Test_Metrics_EndpointReturns200(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	newServerMetrics(reg)

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/metrics", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("want 200, got %d", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("want text/plain content-type, got %q", ct)
	}
}

func Test_Metrics_RecommendCounterIncremented(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := newServerMetrics(reg)

	m.recommendRequestsTotal.WithLabelValues("ok").Inc()
	m.recommendRequestsTotal.WithLabelValues("ok").Inc()
	m.recommendRequestsTotal.WithLabelValues("empty").Inc()

	if v := metricValue(t, reg, "carrierfit_recommend_requests_total", map[string]string{"outcome": "ok"}); v != 2 {
		t.Errorf("want ok=2, got %v", v)
	}
	if v := metricValue(t, reg, "carrierfit_recommend_requests_total", map[string]string{"outcome": "empty"}); v != 1 {
		t.Errorf("want empty=1, got %v", v)
	}
}

func Test_Metrics_IngestCounters(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := newServerMetrics(reg)

	m.ingestedVectorsTotal.Add(30)
	m.ingestFailedDocumentsTotal.Inc()

	if v := metricValue(t, reg, "carrierfit_ingest_vectors_total", nil); v != 30 {
		t.Errorf("want vectors=30, got %v", v)
	}
	if v := metricValue(t, reg, "carrierfit_ingest_failed_documents_total", nil); v != 1 {
		t.Errorf("want failed=1, got %v", v)
	}
}

func Test_Metrics_IsolatedRegistries(t *testing.T) {
	t.Parallel()
	// Registering twice against fresh registries must not panic.
	newServerMetrics(prometheus.NewRegistry())
	newServerMetrics(prometheus.NewRegistry())
}
