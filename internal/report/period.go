package report

import (
	"fmt"
	"regexp"
	"time"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// DateRange is one calendar month expressed as inclusive report
// boundaries.
type DateRange struct {
	StartDate string
	EndDate   string
	Period    string
}

// CalculateDateRange resolves a YYYY-MM period to its first and last
// day. An empty period selects the current month; a malformed one is
// an error.
func CalculateDateRange(period string, now time.Time) (DateRange, error) {
	if period == "" {
		period = now.Format("2006-01")
	} else if !periodPattern.MatchString(period) {
		return DateRange{}, fmt.Errorf("invalid period %q, expected YYYY-MM", period)
	}

	start, err := time.Parse("2006-01", period)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid period %q: %w", period, err)
	}
	end := start.AddDate(0, 1, -1)

	return DateRange{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		Period:    period,
	}, nil
}
