// Package telemetrydata builds synthetic session exports for tests.
package telemetrydata

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NissanArmada/GazooRazoo/pkg/model"
)

//nolint:lll // by design
const (
	TelemetryHeader = "expire_at,lap,meta_event,meta_session,meta_source,meta_time,original_vehicle_id,outing,telemetry_name,telemetry_value,timestamp,vehicle_id,vehicle_number"
	LapsHeader      = "expire_at,lap,meta_event,meta_session,meta_source,meta_time,original_vehicle_id,timestamp,value,vehicle_id,outing"
	WeatherHeader   = "TIME_UTC_SECONDS;TIME_UTC_STR;AIR_TEMP;TRACK_TEMP;HUMIDITY;PRESSURE;WIND_SPEED;WIND_DIRECTION;RAIN"
)

// Sample is one long-format telemetry row
type Sample struct {
	Vehicle   string
	Lap       int
	Channel   string
	Value     float64
	Timestamp string
}

// Timestamp formats epoch ms the way the exports do
func Timestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

func TelemetryRow(s Sample) string {
	return strings.Join([]string{
		"", strconv.Itoa(s.Lap), "I_R06_2025-09-07", "R1", "kafka:gr-raw",
		s.Timestamp, "GR86-002-" + s.Vehicle, "0",
		s.Channel, strconv.FormatFloat(s.Value, 'f', -1, 64), s.Timestamp,
		"GR86-002-" + s.Vehicle, s.Vehicle,
	}, ",")
}

// TelemetryCSV renders header and rows separated by "\n"
func TelemetryCSV(samples ...Sample) string {
	lines := []string{TelemetryHeader}
	for _, s := range samples {
		lines = append(lines, TelemetryRow(s))
	}
	return strings.Join(lines, "\n") + "\n"
}

// Point is a shortcut to describe all channels of a vehicle at one instant.
// Throttle and Brake are given in percent, the way the export carries them.
type Point struct {
	Ms       int64
	Speed    float64
	RPM      float64
	Gear     int
	Throttle float64
	Brake    float64
}

// Samples expands points to one row per channel
func Samples(vehicle string, points ...Point) []Sample {
	ret := make([]Sample, 0, len(points)*5)
	for _, p := range points {
		ts := Timestamp(p.Ms)
		ret = append(ret,
			Sample{vehicle, 1, "speed", p.Speed, ts},
			Sample{vehicle, 1, "nmot", p.RPM, ts},
			Sample{vehicle, 1, "gear", float64(p.Gear), ts},
			Sample{vehicle, 1, "ath", p.Throttle, ts},
			Sample{vehicle, 1, "pbrake_f", p.Brake, ts},
		)
	}
	return ret
}

// LapsCSV renders laps with the lap time in milliseconds
func LapsCSV(laps ...model.LapRecord) string {
	lines := []string{LapsHeader}
	for _, l := range laps {
		lines = append(lines, fmt.Sprintf(",%d,I_R06,R1,kafka,%s,GR86-002-2,%s,%d,GR86-002-2,0",
			l.LapNumber,
			Timestamp(l.StartTimestamp),
			Timestamp(l.StartTimestamp),
			int64(l.DurationSeconds*1000)))
	}
	return strings.Join(lines, "\n") + "\n"
}

func WeatherCSV(samples ...model.WeatherSample) string {
	lines := []string{WeatherHeader}
	for i, w := range samples {
		lines = append(lines, fmt.Sprintf("%d;%s;%g;%g;%g;992;5;120;%g",
			1757000000+i*60, w.Timestamp, w.AirTemp, w.TrackTemp, w.Humidity, w.Rain))
	}
	return strings.Join(lines, "\n") + "\n"
}

// SectionsCSV renders sections rows with 27 columns
func SectionsCSV(records ...model.SectionRecord) string {
	header := make([]string, 27)
	for i := range header {
		header[i] = fmt.Sprintf("COL%d", i)
	}
	header[0], header[2], header[23] = "NUMBER", "LAP_NUMBER", "FLAG_AT_FL"
	header[24], header[25], header[26] = "S1_SECONDS", "S2_SECONDS", "S3_SECONDS"
	lines := []string{strings.Join(header, ";")}
	for _, r := range records {
		row := make([]string, 27)
		row[0] = r.CarNumber
		row[2] = strconv.Itoa(r.LapNumber)
		row[23] = r.Flag
		row[24] = strconv.FormatFloat(r.Sector1Seconds, 'f', -1, 64)
		row[25] = strconv.FormatFloat(r.Sector2Seconds, 'f', -1, 64)
		row[26] = strconv.FormatFloat(r.Sector3Seconds, 'f', -1, 64)
		lines = append(lines, strings.Join(row, ";"))
	}
	return strings.Join(lines, "\n") + "\n"
}
