package dca

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"BitcoinAdvisor/internal/apperr"
)

// Kind is the unit of a purchase interval.
type Kind string

const (
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
)

// Schedule is a fixed purchase cadence: every N weeks or every N months.
type Schedule struct {
	Kind  Kind
	Every int
}

func (s Schedule) String() string {
	switch {
	case s.Kind == Weekly && s.Every == 1:
		return "weekly"
	case s.Kind == Monthly && s.Every == 1:
		return "monthly"
	default:
		return fmt.Sprintf("every-%d-%s", s.Every, map[Kind]string{Weekly: "weeks", Monthly: "months"}[s.Kind])
	}
}

func (s Schedule) validate() error {
	if s.Kind != Weekly && s.Kind != Monthly {
		return apperr.InvalidParameter("unknown interval kind %q", s.Kind)
	}
	if s.Every < 1 || s.Every > 24 {
		return apperr.InvalidParameter("interval step must be within 1..24, got %d", s.Every)
	}
	return nil
}

var everyRe = regexp.MustCompile(`^every-(\d+)-(weeks?|months?)$`)

// ParseInterval accepts "weekly", "monthly", "every-N-weeks" and "every-N-months".
func ParseInterval(s string) (Schedule, error) {
	switch s {
	case "weekly":
		return Schedule{Kind: Weekly, Every: 1}, nil
	case "monthly":
		return Schedule{Kind: Monthly, Every: 1}, nil
	}
	m := everyRe.FindStringSubmatch(s)
	if m == nil {
		return Schedule{}, apperr.InvalidParameter("unknown interval %q", s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Schedule{}, apperr.InvalidParameter("unknown interval %q", s)
	}
	sch := Schedule{Kind: Weekly, Every: n}
	if m[2][0] == 'm' {
		sch.Kind = Monthly
	}
	return sch, sch.validate()
}

// Dates returns purchase candidates from first up to and including last.
// Monthly steps keep first's day of month, clamped to the month's length.
func (s Schedule) Dates(first, last time.Time) []time.Time {
	var dates []time.Time
	for i := 0; ; i++ {
		d := s.nth(first, i)
		if d.After(last) {
			return dates
		}
		dates = append(dates, d)
	}
}

func (s Schedule) nth(first time.Time, i int) time.Time {
	if s.Kind == Weekly {
		return first.AddDate(0, 0, 7*s.Every*i)
	}
	months := int(first.Month()) - 1 + s.Every*i
	y := first.Year() + months/12
	m := time.Month(months%12 + 1)
	day := first.Day()
	if dim := daysIn(y, m); day > dim {
		day = dim
	}
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
