package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/papapumpkin/agroplan/internal/planerr"
)

// Week is an absolute week index. Weeks parsed from ISO week strings or
// dates count from the Monday 1970-01-05; bare integers are taken as is.
type Week int

var epoch = time.Date(1970, time.January, 5, 0, 0, 0, 0, time.UTC)

var isoWeekPattern = regexp.MustCompile(`^(\d{4})-?W(\d{1,2})(?:-([1-7]))?$`)

// ParseWeek parses "12", "2024-W12", "2024W12", "2024-W12-3" or a date
// "2024-03-18" (the week containing it).
func ParseWeek(s string) (Week, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty week", planerr.ErrConfiguration)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Week(n), nil
	}
	if m := isoWeekPattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		week, _ := strconv.Atoi(m[2])
		if week < 1 || week > 53 {
			return 0, fmt.Errorf("%w: week number out of range in %q", planerr.ErrConfiguration, s)
		}
		return weekOf(isoWeekMonday(year, week)), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return weekOf(t), nil
	}
	return 0, fmt.Errorf("%w: cannot parse week %q", planerr.ErrConfiguration, s)
}

// MustWeek is ParseWeek for literals known to be valid.
func MustWeek(s string) Week {
	w, err := ParseWeek(s)
	if err != nil {
		panic(err)
	}
	return w
}

// Monday returns the date of the Monday starting the week.
func (w Week) Monday() time.Time {
	return epoch.AddDate(0, 0, 7*int(w))
}

// ISO formats the week as an ISO week string such as "2024-W12".
func (w Week) ISO() string {
	year, week := w.Monday().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// isoWeekMonday returns the Monday of ISO week `week` in `year`. ISO week 1
// is the week containing January 4th.
func isoWeekMonday(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7 // days since Monday
	return jan4.AddDate(0, 0, -offset+7*(week-1))
}

func weekOf(t time.Time) Week {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := int(t.Sub(epoch).Hours() / 24)
	return Week(floorDiv(days, 7))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
