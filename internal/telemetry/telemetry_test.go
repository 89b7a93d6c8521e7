package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	recording := NewRecordingAPI(nil)
	scoped := NewScopedAPI("cageots", NewScopedAPI("client", recording))

	scoped.ReportBroken("authenticate", errors.New("boom"))
	scoped.ReportWarning("extractor.rows", "row 1")
	scoped.ReportDebug("logged in")
	scoped.ReportCount("records", 3)

	broken := recording.Reports(REPORT_BROKEN)
	require.Len(t, broken, 1)
	require.Equal(t, "client: cageots: authenticate", broken[0].Id)
	require.Len(t, broken[0].Params, 1)

	require.True(t, recording.Has(REPORT_WARNING, "extractor.rows"))
	require.False(t, recording.Has(REPORT_WARNING, "authenticate"))
	require.True(t, recording.Has(REPORT_DEBUG, "logged in"))

	counts := recording.Reports(REPORT_COUNT)
	require.Len(t, counts, 1)
	require.Equal(t, int64(3), counts[0].Count)
}

func TestRecordingForwards(t *testing.T) {
	inner := NewRecordingAPI(nil)
	outer := NewRecordingAPI(inner)

	outer.ReportWarning("konnector.run", "empty")
	require.True(t, inner.Has(REPORT_WARNING, "konnector.run"))

	// SlogAPI is safe to forward to.
	NewRecordingAPI(SlogAPI{}).ReportCount("records", 1)
}
