package calendar

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCellOutOfRange = errors.New("cell is outside of the grid")
	ErrWeekOutOfRange = errors.New("week is outside of the grid")
)

// WeekContaining returns the row holding day within the grid's own month.
// When the day is not part of the current month the first row is returned.
func (g *Grid) WeekContaining(day int) int {
	if index, ok := g.IndexOfDay(day); ok {
		return WeekOf(index)
	}

	return 0
}

// IndexOfDay finds the flat index of a day of the grid's own month.
func (g *Grid) IndexOfDay(day int) (int, bool) {
	for i := g.CurrentStart; i < g.CurrentEnd; i++ {
		if g.Cells[i].Day == day {
			return i, true
		}
	}

	return 0, false
}

// CurrentWeek locates the row of now, truncated to the day in the grid's location.
func (g *Grid) CurrentWeek(now time.Time) int {
	return g.WeekContaining(now.In(g.Location).Day())
}

type Selection struct {
	Row      int
	Column   int
	Index    int
	Day      int
	Relation MonthRelation
	Date     time.Time
}

// Select resolves a tapped row and column to an absolute date at the start of
// that day in the grid's location.
func (g *Grid) Select(row, column int) (Selection, error) {
	if row < 0 || row >= WeeksPerGrid || column < 0 || column >= DaysPerWeek {
		return Selection{}, fmt.Errorf("%w: row %d, column %d", ErrCellOutOfRange, row, column)
	}

	index := row*DaysPerWeek + column
	cell := g.Cells[index]
	key := g.dayKeyAt(index)

	return Selection{
		Row:      row,
		Column:   column,
		Index:    index,
		Day:      cell.Day,
		Relation: cell.Relation,
		Date:     startOfDay(key.year, key.month, key.day, g.Location),
	}, nil
}

func (g *Grid) dayKeyAt(index int) dayKey {
	cell := g.Cells[index]
	year, month := shiftMonth(g.Year, g.Month, cell.Relation.monthDelta())

	return dayKey{year: year, month: month, day: cell.Day}
}

// WeekSpan returns the dates of the first and last cells of a row.
func (g *Grid) WeekSpan(week int) (time.Time, time.Time, error) {
	if week < 0 || week >= WeeksPerGrid {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %d", ErrWeekOutOfRange, week)
	}

	first, err := g.Select(week, 0)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	last, err := g.Select(week, DaysPerWeek-1)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	return first.Date, last.Date, nil
}

// DateAt resolves a flat index to its absolute date.
func (g *Grid) DateAt(index int) (time.Time, error) {
	if index < 0 || index >= GridSize {
		return time.Time{}, fmt.Errorf("%w: index %d", ErrCellOutOfRange, index)
	}

	s, err := g.Select(index/DaysPerWeek, index%DaysPerWeek)
	if err != nil {
		return time.Time{}, err
	}

	return s.Date, nil
}
