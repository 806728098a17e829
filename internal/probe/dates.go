package probe

import (
	"strings"
	"time"
)

// DerivedDates are the indexed date fields computed once at extraction time
// so date-range queries never parse strings.
type DerivedDates struct {
	TS   int64  // epoch seconds
	Date string // YYYY-MM-DD
	Year int
}

// captureDateLayouts are the raw capture-date forms seen in the wild,
// tried in order. EXIF uses colon-separated dates; some containers emit
// RFC 3339 or bare dates.
var captureDateLayouts = []string{
	"2006:01:02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006:01:02",
	"2006-01-02",
}

// DeriveDates computes the derived date fields from the best available
// source: the raw capture date when present, else the filesystem
// modification time. A capture date that is present but unparseable yields
// nil — the record keeps its raw string and the derived fields stay null.
func DeriveDates(captureDate string, modTime time.Time) *DerivedDates {
	captureDate = strings.TrimSpace(captureDate)
	if captureDate == "" {
		return fromTime(modTime)
	}

	for _, layout := range captureDateLayouts {
		if t, err := time.ParseInLocation(layout, captureDate, time.Local); err == nil {
			return fromTime(t)
		}
	}

	return nil
}

func fromTime(t time.Time) *DerivedDates {
	return &DerivedDates{
		TS:   t.Unix(),
		Date: t.Format("2006-01-02"),
		Year: t.Year(),
	}
}
