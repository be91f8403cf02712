// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package humanize renders sizes, rates, durations and timestamps for display.
package humanize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	gohumanize "github.com/dustin/go-humanize"
)

// Infinity is shown for an unknown or unbounded ETA.
const Infinity = "∞"

var sizes = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// BytesToSize formats bytes with base-1000 units and two significant digits.
// Values up to 1000 are shown as whole bytes. perSec appends "/s".
func BytesToSize(bytes int64, perSec bool) string {
	suffix := ""
	if perSec {
		suffix = "/s"
	}
	if bytes <= 1000 {
		return fmt.Sprintf("%d B%s", bytes, suffix)
	}

	v := float64(bytes)
	i := 0
	for v >= 1000 && i < len(sizes)-1 {
		v /= 1000
		i++
	}

	v = roundSignificant(v, 2)
	// 999.9 KB rounds up to 1000 KB, carry into the next unit
	if v >= 1000 && i < len(sizes)-1 {
		v /= 1000
		i++
	}

	return formatSignificant(v) + " " + sizes[i] + suffix
}

func roundSignificant(v float64, digits int) float64 {
	if v == 0 {
		return 0
	}
	mag := math.Floor(math.Log10(math.Abs(v)))
	factor := math.Pow(10, mag-float64(digits-1))
	return math.Round(v/factor) * factor
}

func formatSignificant(v float64) string {
	if v < 10 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// FormatETA renders seconds remaining, zero meaning unknown.
func FormatETA(seconds int64) string {
	if seconds == 0 {
		return Infinity
	}
	return FormatDuration(seconds)
}

// FormatDuration renders a duration in seconds as a rough human phrase such as
// "an hour" or "3 days".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = -seconds
	}
	s := float64(seconds)
	m := math.Round(s / 60)
	h := math.Round(s / 3600)
	d := math.Round(s / 86400)

	switch {
	case s < 45:
		return "a few seconds"
	case s < 90:
		return "a minute"
	case m < 45:
		return plural(m, "minute")
	case m < 90:
		return "an hour"
	case h < 22:
		return plural(h, "hour")
	case h < 36:
		return "a day"
	case d < 26:
		return plural(d, "day")
	case d < 45:
		return "a month"
	case d < 320:
		return plural(math.Round(d/30.4), "month")
	case d < 548:
		return "a year"
	default:
		return plural(math.Round(d/365), "year")
	}
}

func plural(n float64, unit string) string {
	return fmt.Sprintf("%d %ss", int64(n), unit)
}

// FormatTimestamp renders t as D/M/YYYY hh:mm:s.
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d %s%d", t.Day(), int(t.Month()), t.Year(), t.Format("03:04:"), t.Second())
}

// FormatUnix renders a unix timestamp in local time.
func FormatUnix(ts int64) string {
	return FormatTimestamp(time.Unix(ts, 0))
}

// FormatCount adds thousands separators.
func FormatCount(n int64) string {
	return gohumanize.Comma(n)
}

// FormatRatio renders a share ratio with two decimals.
func FormatRatio(r float64) string {
	return strconv.FormatFloat(r, 'f', 2, 64)
}

// NormalizeClient strips the trailing version token from a peer client string,
// "Deluge 1.3.6" becomes "Deluge". Single word clients are kept as is.
func NormalizeClient(client string) string {
	fields := strings.Fields(client)
	switch len(fields) {
	case 0:
		return "Unknown"
	case 1:
		return fields[0]
	default:
		return strings.Join(fields[:len(fields)-1], " ")
	}
}

// Progress renders a percentage, truncated like the row table does.
func Progress(pct float64) string {
	return fmt.Sprintf("%d%%", int64(math.Floor(pct)))
}
