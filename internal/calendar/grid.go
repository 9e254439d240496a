// Package calendar builds the fixed six-week day grid shown by the calendar bar
// and maps grid positions back to absolute dates.
//
// The location handed to the Builder decides which month a reference instant
// falls in and anchors the dates handed back; the process-wide local zone is
// never consulted. Day counts and weekdays are computed on civil dates.
package calendar

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DaysPerWeek  = 7
	WeeksPerGrid = 6
	GridSize     = DaysPerWeek * WeeksPerGrid
)

// cellNamespace scopes the name-based cell identities.
var cellNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("useful:calendar-cell"))

type MonthRelation uint8

const (
	PreviousMonth MonthRelation = iota
	CurrentMonth
	NextMonth
)

func (r MonthRelation) String() string {
	switch r {
	case PreviousMonth:
		return "previous"
	case CurrentMonth:
		return "current"
	case NextMonth:
		return "next"
	}

	return fmt.Sprintf("MonthRelation(%d)", uint8(r))
}

func (r MonthRelation) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *MonthRelation) UnmarshalText(text []byte) error {
	switch string(text) {
	case "previous":
		*r = PreviousMonth
	case "current":
		*r = CurrentMonth
	case "next":
		*r = NextMonth
	default:
		return fmt.Errorf("unknown month relation %q", text)
	}

	return nil
}

// monthDelta is the month offset from the grid's month that the relation implies.
func (r MonthRelation) monthDelta() int {
	switch r {
	case PreviousMonth:
		return -1
	case NextMonth:
		return 1
	}

	return 0
}

// DayCell is one slot of the grid. Day is the day of month the slot displays,
// which is why the same number shows up for different months.
type DayCell struct {
	ID       uuid.UUID
	Day      int
	Relation MonthRelation
}

// Grid is an immutable six-week view of one month. Cells in
// [CurrentStart, CurrentEnd) belong to the grid's own month.
type Grid struct {
	Year         int
	Month        time.Month
	FirstWeekday time.Weekday
	Location     *time.Location
	Cells        [GridSize]DayCell
	CurrentStart int
	CurrentEnd   int
}

// WeekOf returns the week row that holds the given flat index.
func WeekOf(index int) int {
	return index / DaysPerWeek
}

// Week returns the seven cells of a row. It panics if week is outside 0-5.
func (g *Grid) Week(week int) [DaysPerWeek]DayCell {
	if week < 0 || week >= WeeksPerGrid {
		panic(fmt.Sprintf("calendar: week %d out of range", week))
	}

	var row [DaysPerWeek]DayCell
	copy(row[:], g.Cells[week*DaysPerWeek:(week+1)*DaysPerWeek])

	return row
}

// Weeks partitions the cells into rows without reordering them.
func (g *Grid) Weeks() [WeeksPerGrid][DaysPerWeek]DayCell {
	var weeks [WeeksPerGrid][DaysPerWeek]DayCell

	for w := range weeks {
		weeks[w] = g.Week(w)
	}

	return weeks
}

// DaysInMonth reports the length of the grid's own month.
func (g *Grid) DaysInMonth() int {
	return g.CurrentEnd - g.CurrentStart
}

type Builder struct {
	firstWeekday time.Weekday
	location     *time.Location
}

// NewBuilder returns a Builder whose rows start on firstWeekday and whose
// arithmetic runs in loc. Both are required; invalid values panic.
func NewBuilder(firstWeekday time.Weekday, loc *time.Location) *Builder {
	if firstWeekday < time.Sunday || firstWeekday > time.Saturday {
		panic(fmt.Sprintf("calendar: invalid first weekday %d", firstWeekday))
	}

	if loc == nil {
		panic("calendar: nil location")
	}

	return &Builder{
		firstWeekday: firstWeekday,
		location:     loc,
	}
}

func (b *Builder) FirstWeekday() time.Weekday {
	return b.firstWeekday
}

func (b *Builder) Location() *time.Location {
	return b.location
}

// Build returns the grid for the month containing reference. Only the year and
// month of reference, as seen from the builder's location, are used.
func (b *Builder) Build(reference time.Time) *Grid {
	year, month, _ := reference.In(b.location).Date()

	// Day counts and weekdays are civil facts, computed in UTC so a DST jump
	// over midnight in the builder's location cannot shift them.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	currentDays := daysInMonth(year, month)
	previousYear, previousMonth := shiftMonth(year, month, -1)
	previousDays := daysInMonth(previousYear, previousMonth)
	offset := weekdayOffset(firstOfMonth.Weekday(), b.firstWeekday)

	grid := &Grid{
		Year:         year,
		Month:        month,
		FirstWeekday: b.firstWeekday,
		Location:     b.location,
		CurrentStart: offset,
		CurrentEnd:   offset + currentDays,
	}

	i := 0
	fill := func(day int, relation MonthRelation) {
		if i >= GridSize {
			return
		}

		grid.Cells[i] = DayCell{
			ID:       cellID(year, month, b.firstWeekday, i),
			Day:      day,
			Relation: relation,
		}
		i++
	}

	for day := previousDays - offset + 1; day <= previousDays; day++ {
		fill(day, PreviousMonth)
	}

	for day := 1; day <= currentDays; day++ {
		fill(day, CurrentMonth)
	}

	for day := 1; i < GridSize; day++ {
		fill(day, NextMonth)
	}

	return grid
}

func weekdayOffset(weekday, firstWeekday time.Weekday) int {
	return (int(weekday) - int(firstWeekday) + DaysPerWeek) % DaysPerWeek
}

func daysInMonth(year int, month time.Month) int {
	days := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	if days < 28 || days > 31 {
		panic(fmt.Sprintf("calendar: cannot compute days in %s %d (got %d)", month, year, days))
	}

	return days
}

// startOfDay returns the first instant of the civil date in loc. Midnight does
// not exist on days where a DST change skips it, so later hours are tried.
func startOfDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	for hour := range 24 {
		t := time.Date(year, month, day, hour, 0, 0, 0, loc)
		if y, m, d := t.Date(); y == year && m == month && d == day {
			return t
		}
	}

	panic(fmt.Sprintf("calendar: %04d-%02d-%02d has no start in %s", year, month, day, loc))
}

func shiftMonth(year int, month time.Month, delta int) (int, time.Month) {
	m := int(month) - 1 + delta
	year += m / 12
	m %= 12

	if m < 0 {
		m += 12
		year--
	}

	return year, time.Month(m + 1)
}

func cellID(year int, month time.Month, firstWeekday time.Weekday, index int) uuid.UUID {
	name := fmt.Sprintf("%04d-%02d/%d/%d", year, month, firstWeekday, index)
	return uuid.NewSHA1(cellNamespace, []byte(name))
}
