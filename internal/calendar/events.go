package calendar

import (
	"fmt"
	"io"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
)

// Event is a calendar entry. All-day events carry their civil date as
// midnight UTC and belong to that date in every location.
type Event struct {
	Date   time.Time
	Name   string
	AllDay bool
}

const icalDateLayout = "20060102"

// ParseEvents reads the VEVENTs of an iCalendar stream. Events whose start
// cannot be parsed are skipped.
func ParseEvents(r io.Reader) ([]Event, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	var events []Event

	for _, event := range cal.Events() {
		dtstart := event.GetProperty(ics.ComponentPropertyDtStart)
		if dtstart == nil {
			continue
		}

		e := Event{AllDay: isDateValue(dtstart)}

		if e.AllDay {
			e.Date, err = time.ParseInLocation(icalDateLayout, dtstart.Value, time.UTC)
		} else {
			e.Date, err = event.GetStartAt()
		}

		if err != nil {
			continue
		}

		if summary := event.GetProperty(ics.ComponentPropertySummary); summary != nil {
			e.Name = summary.Value
		}

		events = append(events, e)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	return events, nil
}

func isDateValue(prop *ics.IANAProperty) bool {
	for _, value := range prop.ICalParameters[string(ics.ParameterValue)] {
		if value == "DATE" {
			return true
		}
	}

	return len(prop.Value) == len(icalDateLayout)
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func dayKeyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{year: y, month: m, day: d}
}

// EventsPerCell counts the events that fall on each cell's date. Timed events
// are converted to the grid's location first; all-day events keep their date.
func (g *Grid) EventsPerCell(events []Event) [GridSize]int {
	var counts [GridSize]int

	if len(events) == 0 {
		return counts
	}

	perDay := make(map[dayKey]int, len(events))
	for i := range events {
		if events[i].AllDay {
			perDay[dayKeyOf(events[i].Date.UTC())]++
		} else {
			perDay[dayKeyOf(events[i].Date.In(g.Location))]++
		}
	}

	for i := range g.Cells {
		counts[i] = perDay[g.dayKeyAt(i)]
	}

	return counts
}
