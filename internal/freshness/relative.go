// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package freshness

import (
	"fmt"
	"math"
	"time"
)

// FromNow renders a humanized relative time such as "3 minutes ago" or
// "in a few seconds". Every unit is rounded before it is compared, so 44m40s
// is already "an hour". Boundaries: 45 seconds, 45 minutes, 22 hours,
// 26 days and 11 months.
func FromNow(t, now time.Time) string {
	d := now.Sub(t)
	future := d < 0
	if future {
		d = -d
	}

	label := humanize(d)
	if future {
		return "in " + label
	}
	return label + " ago"
}

// FromNowString is FromNow over an RFC 3339 timestamp. Unparseable input
// gives an empty label.
func FromNowString(ts string, now time.Time) string {
	t, err := Parse(ts)
	if err != nil {
		return ""
	}
	return FromNow(t, now)
}

// daysPerMonth is the mean Gregorian month (146097 days per 4800 months).
const daysPerMonth = 146097.0 / 4800.0

func humanize(d time.Duration) string {
	days := d.Hours() / 24
	seconds := math.Round(d.Seconds())
	minutes := math.Round(d.Minutes())
	hours := math.Round(d.Hours())
	months := math.Round(days / daysPerMonth)
	years := math.Round(days / daysPerMonth / 12)
	wholeDays := math.Round(days)

	switch {
	case seconds < 45:
		return "a few seconds"
	case minutes <= 1:
		return "a minute"
	case minutes < 45:
		return plural(minutes, "minute")
	case hours <= 1:
		return "an hour"
	case hours < 22:
		return plural(hours, "hour")
	case wholeDays <= 1:
		return "a day"
	case wholeDays < 26:
		return plural(wholeDays, "day")
	case months <= 1:
		return "a month"
	case months < 11:
		return plural(months, "month")
	case years <= 1:
		return "a year"
	default:
		return plural(years, "year")
	}
}

func plural(n float64, unit string) string {
	return fmt.Sprintf("%d %ss", int(n), unit)
}
