package attendance

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const earthRadiusMeters = 6371000.0

// Distance is the great-circle distance between two coordinates in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func ValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 && !math.IsNaN(lat) && !math.IsNaN(lon)
}

// ParseClock reads an "HH:MM" wall clock time.
func ParseClock(value string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q", value)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}

// Lateness compares a check-in against the configured start of the working
// day plus tolerance. Minutes are counted from the start, not the tolerance.
func Lateness(loc Location, at time.Time) (bool, int) {
	hour, minute, err := ParseClock(loc.WorkStart)
	if err != nil {
		return false, 0
	}
	start := time.Date(at.Year(), at.Month(), at.Day(), hour, minute, 0, 0, at.Location())
	deadline := start.Add(time.Duration(loc.LateToleranceMinutes) * time.Minute)
	if !at.After(deadline) {
		return false, 0
	}
	return true, int(at.Sub(start) / time.Minute)
}

// WorkHours is the time between check-in and check-out in hours, rounded to
// two decimals.
func WorkHours(in, out time.Time) float64 {
	if !out.After(in) {
		return 0
	}
	return math.Round(out.Sub(in).Hours()*100) / 100
}

// Evaluate classifies an attempt against the office geofence.
func Evaluate(loc Location, lat, lon float64) (status string, distance float64) {
	distance = math.Round(Distance(loc.Latitude, loc.Longitude, lat, lon)*10) / 10
	if distance <= float64(loc.RadiusMeters) {
		return StatusSuccess, distance
	}
	return StatusFailed, distance
}

// LateSeverity grades a late arrival for alerts.
func LateSeverity(minutes int) int {
	switch {
	case minutes > 30:
		return 3
	case minutes > 15:
		return 2
	default:
		return 1
	}
}

// DayRange returns [start, end) of the calendar day containing t.
func DayRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// MonthRange returns [start, end) of the calendar month containing t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// Summarize folds a month of records into counters. Only successful
// check-ins count as presence; work hours come from check-outs.
func Summarize(records []Record) MonthSummary {
	var out MonthSummary
	for _, r := range records {
		if r.Status != StatusSuccess {
			if r.Type == TypeCheckIn {
				out.Failed++
			}
			continue
		}
		switch r.Type {
		case TypeCheckIn:
			out.Present++
			if r.IsLate {
				out.Late++
			} else {
				out.OnTime++
			}
		case TypeCheckOut:
			out.TotalHours += r.WorkHours
		}
	}
	out.TotalHours = math.Round(out.TotalHours*100) / 100
	if out.Present > 0 {
		out.AverageHours = math.Round(out.TotalHours/float64(out.Present)*10) / 10
	}
	return out
}

func (l Location) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("location name is required")
	}
	if !ValidCoordinate(l.Latitude, l.Longitude) {
		return ErrInvalidCoordinate
	}
	if l.RadiusMeters <= 0 {
		return fmt.Errorf("radius must be positive")
	}
	if l.LateToleranceMinutes < 0 {
		return fmt.Errorf("late tolerance must not be negative")
	}
	if _, _, err := ParseClock(l.WorkStart); err != nil {
		return err
	}
	return nil
}
