//nolint:funlen,lll // ok for tests
package assemble

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NissanArmada/GazooRazoo/pkg/ingest"
	"github.com/NissanArmada/GazooRazoo/pkg/ingest/chunk"
	"github.com/NissanArmada/GazooRazoo/pkg/model"
	"github.com/NissanArmada/GazooRazoo/testsupport/telemetrydata"
)

var ts = telemetrydata.Timestamp

type sample = telemetrydata.Sample

func TestAssemble_EndToEnd(t *testing.T) {
	content := telemetrydata.TelemetryCSV(
		sample{Vehicle: "14", Channel: "speed", Value: 101.5, Timestamp: ts(2000)},
		sample{Vehicle: "3", Channel: "speed", Value: 88, Timestamp: ts(1000)},
		sample{Vehicle: "14", Channel: "speed", Value: 99.25, Timestamp: ts(1000)},
	)
	res, err := Assemble(context.Background(), chunk.FromString(content), "14")
	require.NoError(t, err)
	want := []model.TelemetryPoint{
		{Timestamp: 1000, Speed: 99.25, Channels: model.ChannelSet(model.ChannelSpeed)},
		{Timestamp: 2000, Speed: 101.5, Channels: model.ChannelSet(model.ChannelSpeed)},
	}
	if diff := cmp.Diff(want, res.Points); diff != "" {
		t.Errorf("Points mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, res.Stats.Lines)
	assert.Equal(t, 2, res.Stats.Matched)
}

func TestAssemble_OnlyTargetVehicle(t *testing.T) {
	var samples []sample
	for i := int64(0); i < 50; i++ {
		samples = append(samples,
			sample{Vehicle: "3", Channel: "speed", Value: 3, Timestamp: ts(i * 100)},
			sample{Vehicle: "14", Channel: "speed", Value: 14, Timestamp: ts(i * 100)},
			sample{Vehicle: "22", Channel: "speed", Value: 22, Timestamp: ts(i*100 + 50)},
			sample{Vehicle: "114", Channel: "speed", Value: 114, Timestamp: ts(i*100 + 25)},
		)
	}
	content := telemetrydata.TelemetryCSV(samples...)
	for _, size := range []int{3, 100, 4096} {
		res, err := Assemble(context.Background(),
			chunk.FromString(content, chunk.WithChunkSize(size)), "14")
		require.NoError(t, err)
		require.Len(t, res.Points, 50)
		for i, p := range res.Points {
			assert.Equal(t, 14.0, p.Speed)
			assert.Equal(t, int64(i*100), p.Timestamp)
		}
	}
}

func TestAssemble_MergeAndOverwrite(t *testing.T) {
	content := telemetrydata.TelemetryCSV(
		sample{Vehicle: "14", Channel: "speed", Value: 120, Timestamp: ts(500)},
		sample{Vehicle: "14", Channel: "nmot", Value: 6500, Timestamp: ts(500)},
		sample{Vehicle: "14", Channel: "gear", Value: 3, Timestamp: ts(500)},
		sample{Vehicle: "14", Channel: "ath", Value: 80, Timestamp: ts(500)},
		sample{Vehicle: "14", Channel: "pbrake_f", Value: 12.5, Timestamp: ts(500)},
		sample{Vehicle: "14", Channel: "Steering_Angle", Value: -15, Timestamp: ts(500)},
		sample{Vehicle: "14", Channel: "speed", Value: 121, Timestamp: ts(500)},
		sample{Vehicle: "14", Channel: "accx_can", Value: 0.4, Timestamp: ts(500)},
	)
	res, err := Assemble(context.Background(), chunk.FromString(content), "14")
	require.NoError(t, err)
	require.Len(t, res.Points, 1)
	p := res.Points[0]
	assert.Equal(t, 121.0, p.Speed)
	assert.Equal(t, 6500.0, p.RPM)
	assert.Equal(t, 3, p.Gear)
	assert.InDelta(t, 0.8, p.Throttle, 1e-12)
	assert.InDelta(t, 0.125, p.Brake, 1e-12)
	assert.Equal(t, -15.0, p.Steering)
	for _, ch := range []model.Channel{
		model.ChannelSpeed, model.ChannelRPM, model.ChannelGear,
		model.ChannelThrottle, model.ChannelBrake, model.ChannelSteering,
	} {
		assert.True(t, p.Channels.Has(ch), ch.String())
	}
}

func TestAssemble_UnsampledChannelsAreAbsent(t *testing.T) {
	content := telemetrydata.TelemetryCSV(
		sample{Vehicle: "14", Channel: "gear", Value: 2, Timestamp: ts(100)},
		sample{Vehicle: "14", Channel: "speed", Value: 50, Timestamp: ts(200)},
	)
	res, err := Assemble(context.Background(), chunk.FromString(content), "14")
	require.NoError(t, err)
	require.Len(t, res.Points, 2)
	assert.Equal(t, 0.0, res.Points[0].Speed)
	assert.False(t, res.Points[0].Channels.Has(model.ChannelSpeed))
	assert.Equal(t, 0, res.Points[1].Gear)
	assert.False(t, res.Points[1].Channels.Has(model.ChannelGear))
}

func TestAssemble_BadRowsAreSkipped(t *testing.T) {
	content := telemetrydata.TelemetryHeader + "\n" +
		"x,1,speed,14\n" + // short row
		",1,e,s,src,t,id,0,speed,100,,id,14\n" + // missing timestamp
		",1,e,s,src,t,id,0,speed,abc," + ts(100) + ",id,14\n" + // bad value
		",1,e,s,src,t,id,0,speed,100,not-a-time,id,14\n" + // bad timestamp
		",1,e,s,src,t,id,0,speed,100," + ts(100) + ",id,14\n"
	res, err := Assemble(context.Background(), chunk.FromString(content), "14")
	require.NoError(t, err)
	require.Len(t, res.Points, 1)
	assert.Equal(t, 1, res.Stats.Format)
	assert.Equal(t, 3, res.Stats.Skipped)
}

func TestAssemble_UnknownVehicleFails(t *testing.T) {
	content := telemetrydata.TelemetryCSV(
		sample{Vehicle: "3", Channel: "speed", Value: 1, Timestamp: ts(100)},
	)
	_, err := Assemble(context.Background(), chunk.FromString(content), "99")
	var pe *ingest.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "assemble", pe.Op)
}

func TestAssemble_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Assemble(ctx, chunk.FromString(telemetrydata.TelemetryCSV(
		sample{Vehicle: "3", Channel: "speed", Value: 1, Timestamp: ts(100)},
	)), "3")
	assert.ErrorIs(t, err, context.Canceled)
}
