package calendar

import (
	"fmt"

	"github.com/papapumpkin/agroplan/internal/garden"
	"github.com/papapumpkin/agroplan/internal/planerr"
)

// CheckBeds verifies that the registry can host the calendar: enough beds for
// the largest set of simultaneous cultivations, and every bed of the past plan
// registered.
func CheckBeds(cal *Calendar, reg *garden.Registry) error {
	if need := cal.MaxOverlap(); need > reg.Len() {
		return fmt.Errorf("%w: %d crops grow at the same time but only %d beds are available",
			planerr.ErrConfiguration, need, reg.Len())
	}
	for _, s := range cal.Past() {
		if !reg.Has(s.FixedBed) {
			return fmt.Errorf("%w: past crop %q %s uses unknown bed %d",
				planerr.ErrConfiguration, s.Crop, s.Interval, s.FixedBed)
		}
	}
	return nil
}
