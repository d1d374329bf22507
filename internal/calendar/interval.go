package calendar

import (
	"fmt"

	"github.com/papapumpkin/agroplan/internal/planerr"
)

// Interval is a closed cultivation window [Start, End] in weeks.
type Interval struct {
	Start Week
	End   Week
}

// Validate returns an error wrapping planerr.ErrInterval when the interval
// ends before it starts.
func (iv Interval) Validate() error {
	if iv.Start > iv.End {
		return fmt.Errorf("%w: [%d, %d]", planerr.ErrInterval, iv.Start, iv.End)
	}
	return nil
}

// Overlaps reports whether two closed intervals intersect.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.End >= o.Start && o.End >= iv.Start
}

// Weeks returns the number of weeks covered, bounds included.
func (iv Interval) Weeks() int {
	return int(iv.End-iv.Start) + 1
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d, %d]", iv.Start, iv.End)
}
