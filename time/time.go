// Package time provides the text forms used for time.Time and time.Duration
// scalars.
package time

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	// dateTimeFormat is a RFC3339 date-time with fractional seconds
	// https://tools.ietf.org/html/rfc3339#section-5.6
	dateTimeFormat = time.RFC3339Nano

	// httpDateFormat is a IMF-fixdate formatted time https://tools.ietf.org/html/rfc7231.html#section-7.1.1.1
	httpDateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

	// dateFormat is a calendar date without a time component.
	dateFormat = "2006-01-02"
)

// parseLayouts are tried in order by ParseDateTime.
var parseLayouts = []string{
	dateTimeFormat,
	"2006-01-02T15:04:05",
	httpDateFormat,
	dateFormat,
}

// FormatDateTime formats value as a date-time in UTC. The zero time formats
// as the empty string.
func FormatDateTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(dateTimeFormat)
}

// ParseDateTime parses a date-time. RFC3339 is preferred, http-dates and
// plain calendar dates are accepted for hand-edited documents. The empty
// string parses to the zero time.
func ParseDateTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Newf("unrecognized date-time %q", value)
}

// FormatHTTPDate format value as a http-date
func FormatHTTPDate(value time.Time) string {
	return value.UTC().Format(httpDateFormat)
}

// ParseHTTPDate parse a string as a http-date
func ParseHTTPDate(value string) (time.Time, error) {
	return time.Parse(httpDateFormat, value)
}

// FormatDuration formats d using Go duration syntax, e.g. "1m30s".
func FormatDuration(d time.Duration) string {
	return d.String()
}

// ParseDuration parses Go duration syntax. A bare integer is read as a
// number of milliseconds, the unit most configuration files use.
func ParseDuration(value string) (time.Duration, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	var ms int64
	if _, err := fmt.Sscanf(value, "%d", &ms); err == nil && fmt.Sprint(ms) == value {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return 0, errors.Newf("invalid duration %q", value)
}
