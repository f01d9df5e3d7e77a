package spreadsheet

import "time"

// Excel's 1900 date system counts days from 1899-12-30 rather than
// 1900-01-01: the format inherited Lotus 1-2-3's phantom 1900-02-29, and
// anchoring the epoch two days early keeps every serial after that date
// aligned with the real calendar. Availability sheets only carry recent
// dates, so the pre-1900-03-01 skew never applies here.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DateFromSerial converts an Excel day serial to a UTC calendar date.
// Fractional parts (times of day) are truncated.
func DateFromSerial(serial float64) time.Time {
	return serialEpoch.AddDate(0, 0, int(serial))
}
