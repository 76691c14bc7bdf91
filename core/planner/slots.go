package planner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// GenerateSlots lays out a school day: consecutive classes of classMinutes from start until end,
// with an optional break of breakMinutes starting at breakStart. A class that would end after
// end is dropped.
func GenerateSlots(in GenerateTimeSlots) ([]TimeSlot, error) {
	start, err := parseClock(in.Start)
	if err != nil {
		return nil, errors.Wrap(err, "parsing start")
	}
	end, err := parseClock(in.End)
	if err != nil {
		return nil, errors.Wrap(err, "parsing end")
	}
	breakStart := -1
	if in.BreakStart != "" {
		if breakStart, err = parseClock(in.BreakStart); err != nil {
			return nil, errors.Wrap(err, "parsing break start")
		}
	}
	if in.ClassMinutes <= 0 {
		return nil, errors.New("class duration must be positive")
	}

	slots := make([]TimeSlot, 0)
	cursor := start
	for cursor < end {
		if in.BreakMinutes > 0 && breakStart != -1 && cursor >= breakStart && cursor < breakStart+in.BreakMinutes {
			breakEnd := breakStart + in.BreakMinutes
			slots = append(slots, TimeSlot{
				ID:    newID(),
				Label: formatClock(breakStart) + "-" + formatClock(breakEnd),
				Order: len(slots),
			})
			cursor = breakEnd
			continue
		}

		classEnd := cursor + in.ClassMinutes
		if classEnd > end {
			break
		}
		slots = append(slots, TimeSlot{
			ID:    newID(),
			Label: formatClock(cursor) + "-" + formatClock(classEnd),
			Order: len(slots),
		})
		cursor = classEnd
	}
	return slots, nil
}

// parseClock converts "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, errors.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, errors.Errorf("invalid time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, errors.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
