package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100, 1000})
	h.Observe(5)
	h.Observe(5)
	h.Observe(50)
	h.Observe(5000)

	var buf bytes.Buffer
	writeHistogram(&buf, "test_ms", "help", h.Snapshot())
	out := buf.String()

	for _, line := range []string{
		`test_ms_bucket{le="10"} 2`,
		`test_ms_bucket{le="100"} 3`,
		`test_ms_bucket{le="1000"} 3`,
		`test_ms_bucket{le="+Inf"} 4`,
		`test_ms_count 4`,
		`test_ms_sum 5060`,
	} {
		if !strings.Contains(out, line) {
			t.Errorf("output missing %q:\n%s", line, out)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{100, "100"},
		{0.5, "0.5"},
		{1234.56, "1234.56"},
	}
	for _, tc := range cases {
		if got := formatFloat(tc.in); got != tc.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderIncludesCounters(t *testing.T) {
	out := Render()
	for _, name := range []string{
		"document_uploads_received_total",
		"document_uploads_completed_total",
		"document_uploads_failed_total",
		"document_queue_jobs_total",
		"text_extraction_duration_ms_bucket",
	} {
		if !strings.Contains(out, name) {
			t.Errorf("render missing %q", name)
		}
	}
}
