package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NissanArmada/GazooRazoo/pkg/ingest"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest/chunk"
	"github.com/NissanArmada/GazooRazoo/testsupport/telemetrydata"
)

func sampleExport() string {
	ts := telemetrydata.Timestamp
	return telemetrydata.TelemetryCSV(
		telemetrydata.Sample{Vehicle: "22", Channel: "speed", Value: 120, Timestamp: ts(1000)},
		telemetrydata.Sample{Vehicle: "3", Channel: "speed", Value: 110, Timestamp: ts(1000)},
		telemetrydata.Sample{Vehicle: "14", Channel: "nmot", Value: 6000, Timestamp: ts(1000)},
		telemetrydata.Sample{Vehicle: "22", Channel: "gear", Value: 3, Timestamp: ts(1100)},
		telemetrydata.Sample{Vehicle: "3", Channel: "gear", Value: 2, Timestamp: ts(1100)},
		telemetrydata.Sample{Vehicle: "14", Channel: "speed", Value: 99, Timestamp: ts(1100)},
	)
}

func TestScan_SortedNumericallyForAnyChunkSize(t *testing.T) {
	content := sampleExport()
	for _, size := range []int{1, 7, 64, 200, len(content), chunk.DefaultChunkSize} {
		res, err := Scan(context.Background(),
			chunk.FromString(content, chunk.WithChunkSize(size)))
		require.NoError(t, err, "chunk size %d", size)
		assert.Equal(t, []string{"3", "14", "22"}, res.Drivers, "chunk size %d", size)
		assert.Equal(t, 6, res.Stats.Lines)
	}
}

func TestScan_IgnoresMalformedTrailingFields(t *testing.T) {
	content := telemetrydata.TelemetryHeader + "\n" +
		"a,b,c,d,e,f,g,h,speed,1,2025-01-01T00:00:00Z,x,7\n" +
		"a,b,c,d,e,f,g,h,speed,1,2025-01-01T00:00:00Z,x,\n" +
		"a,b,c,d,e,f,g,h,speed,1,2025-01-01T00:00:00Z,x,GR86\n" +
		"a,b,c,d,e,f,g,h,speed,1,2025-01-01T00:00:00Z,x,12345678901\n" +
		"garbage\n" +
		"a,b,c,d,e,f,g,h,speed,1,2025-01-01T00:00:00Z,x,NaN\n" +
		"a,b,c,d,e,f,g,h,speed,1,2025-01-01T00:00:00Z,x,Inf\n" +
		"a,b,c,d,e,f,g,h,speed,1,2025-01-01T00:00:00Z,x,+Inf\n" +
		"a,b,c,d,e,f,g,h,speed,1,2025-01-01T00:00:00Z,x,0x1p3\n" +
		"a,b,c,d,e,f,g,h,speed,1,2025-01-01T00:00:00Z,x,1_0\n" +
		"a,b,c,d,e,f,g,h,speed,1,2025-01-01T00:00:00Z,x, 55 \r\n"
	res, err := Scan(context.Background(), chunk.FromString(content))
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "55"}, res.Drivers)
	assert.Equal(t, 9, res.Stats.Skipped)
}

func TestScan_HeaderOnlyIsParseError(t *testing.T) {
	_, err := Scan(context.Background(),
		chunk.FromString(telemetrydata.TelemetryHeader+"\n"), WithPath("t.csv"))
	var pe *ingest.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "discovery", pe.Op)
	assert.ErrorIs(t, err, ingest.ErrNoDrivers)
}

func TestScan_HeaderIsSkippedEvenIfNumeric(t *testing.T) {
	res, err := Scan(context.Background(), chunk.FromString("a,99\nb,4\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, res.Drivers)
}

func TestSortIDs(t *testing.T) {
	assert.Equal(t,
		[]string{"2", "07", "7", "13", "100"},
		SortIDs([]string{"100", "7", "13", "2", "07"}))
}
