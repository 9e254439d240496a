package calendar

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func seq(from, to int) []int {
	var s []int
	for i := from; i <= to; i++ {
		s = append(s, i)
	}
	return s
}

func concat(parts ...[]int) []int {
	var s []int
	for _, p := range parts {
		s = append(s, p...)
	}
	return s
}

func gridDays(g *Grid) []int {
	days := make([]int, 0, GridSize)
	for _, cell := range g.Cells {
		days = append(days, cell.Day)
	}
	return days
}

func gridRelations(g *Grid) []MonthRelation {
	relations := make([]MonthRelation, 0, GridSize)
	for _, cell := range g.Cells {
		relations = append(relations, cell.Relation)
	}
	return relations
}

func relations(previous, current, next int) []MonthRelation {
	var r []MonthRelation
	for range previous {
		r = append(r, PreviousMonth)
	}
	for range current {
		r = append(r, CurrentMonth)
	}
	for range next {
		r = append(r, NextMonth)
	}
	return r
}

func TestBuildScenarios(t *testing.T) {
	tests := []struct {
		name          string
		reference     time.Time
		firstWeekday  time.Weekday
		wantStart     int
		wantEnd       int
		wantDays      []int
		wantRelations []MonthRelation
	}{
		{
			name:          "March 2024 sunday first",
			reference:     date(2024, time.March, 17),
			firstWeekday:  time.Sunday,
			wantStart:     5,
			wantEnd:       36,
			wantDays:      concat(seq(25, 29), seq(1, 31), seq(1, 6)),
			wantRelations: relations(5, 31, 6),
		},
		{
			name:          "February 2023 sunday first",
			reference:     date(2023, time.February, 1),
			firstWeekday:  time.Sunday,
			wantStart:     3,
			wantEnd:       31,
			wantDays:      concat(seq(29, 31), seq(1, 28), seq(1, 11)),
			wantRelations: relations(3, 28, 11),
		},
		{
			name:          "February 2015 starts on sunday",
			reference:     date(2015, time.February, 28),
			firstWeekday:  time.Sunday,
			wantStart:     0,
			wantEnd:       28,
			wantDays:      concat(seq(1, 28), seq(1, 14)),
			wantRelations: relations(0, 28, 14),
		},
		{
			name:          "September 2024 monday first has maximal offset",
			reference:     date(2024, time.September, 10),
			firstWeekday:  time.Monday,
			wantStart:     6,
			wantEnd:       36,
			wantDays:      concat(seq(26, 31), seq(1, 30), seq(1, 6)),
			wantRelations: relations(6, 30, 6),
		},
		{
			name:          "June 2024 sunday first has maximal offset",
			reference:     date(2024, time.June, 30),
			firstWeekday:  time.Sunday,
			wantStart:     6,
			wantEnd:       36,
			wantDays:      concat(seq(26, 31), seq(1, 30), seq(1, 6)),
			wantRelations: relations(6, 30, 6),
		},
		{
			name:          "January 2024 rolls back into December",
			reference:     date(2024, time.January, 3),
			firstWeekday:  time.Sunday,
			wantStart:     1,
			wantEnd:       32,
			wantDays:      concat(seq(31, 31), seq(1, 31), seq(1, 10)),
			wantRelations: relations(1, 31, 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewBuilder(tt.firstWeekday, time.UTC).Build(tt.reference)

			if g.CurrentStart != tt.wantStart || g.CurrentEnd != tt.wantEnd {
				t.Errorf("current range = [%d, %d), want [%d, %d)", g.CurrentStart, g.CurrentEnd, tt.wantStart, tt.wantEnd)
			}

			if diff := cmp.Diff(tt.wantDays, gridDays(g)); diff != "" {
				t.Errorf("days mismatch (-want +got):\n%s", diff)
			}

			if diff := cmp.Diff(tt.wantRelations, gridRelations(g)); diff != "" {
				t.Errorf("relations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildMonthLengths(t *testing.T) {
	lengths := map[int][12]int{
		2023: {31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31},
		2024: {31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31},
	}

	for year, months := range lengths {
		for m, want := range months {
			month := time.Month(m + 1)

			for weekday := time.Sunday; weekday <= time.Saturday; weekday++ {
				g := NewBuilder(weekday, time.UTC).Build(date(year, month, 15))

				if got := g.CurrentEnd - g.CurrentStart; got != want {
					t.Errorf("%s %d (first %s): days = %d, want %d", month, year, weekday, got, want)
				}

				if got := g.DaysInMonth(); got != want {
					t.Errorf("%s %d: DaysInMonth() = %d, want %d", month, year, got, want)
				}
			}
		}
	}
}

func TestBuildInvariants(t *testing.T) {
	for weekday := time.Sunday; weekday <= time.Saturday; weekday++ {
		builder := NewBuilder(weekday, time.UTC)

		for year := 2023; year <= 2025; year++ {
			for month := time.January; month <= time.December; month++ {
				g := builder.Build(date(year, month, 1))
				name := month.String() + " " + weekday.String()

				if len(g.Cells) != GridSize {
					t.Fatalf("%s: %d cells", name, len(g.Cells))
				}

				if g.CurrentStart < 0 || g.CurrentStart >= DaysPerWeek {
					t.Errorf("%s: start %d outside of the first week", name, g.CurrentStart)
				}

				firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
				if got := g.Cells[g.CurrentStart]; got.Day != 1 || got.Relation != CurrentMonth {
					t.Errorf("%s: cell at start = %+v, want day 1 of current month", name, got)
				}
				if got := (int(weekday) + g.CurrentStart) % DaysPerWeek; got != int(firstOfMonth.Weekday()) {
					t.Errorf("%s: column of day 1 is weekday %d, want %d", name, got, firstOfMonth.Weekday())
				}

				lastOfPrevious := firstOfMonth.AddDate(0, 0, -1).Day()
				for i := 0; i < g.CurrentStart; i++ {
					cell := g.Cells[i]
					if cell.Relation != PreviousMonth {
						t.Errorf("%s: cell %d relation = %s, want previous", name, i, cell.Relation)
					}
					if want := lastOfPrevious - g.CurrentStart + 1 + i; cell.Day != want {
						t.Errorf("%s: cell %d day = %d, want %d", name, i, cell.Day, want)
					}
				}

				for i := g.CurrentEnd; i < GridSize; i++ {
					cell := g.Cells[i]
					if cell.Relation != NextMonth {
						t.Errorf("%s: cell %d relation = %s, want next", name, i, cell.Relation)
					}
					if want := i - g.CurrentEnd + 1; cell.Day != want {
						t.Errorf("%s: cell %d day = %d, want %d", name, i, cell.Day, want)
					}
				}

				for i := range g.Cells {
					var want MonthRelation
					switch {
					case i < g.CurrentStart:
						want = PreviousMonth
					case i >= g.CurrentEnd:
						want = NextMonth
					default:
						want = CurrentMonth
					}

					if g.Cells[i].Relation != want {
						t.Errorf("%s: cell %d relation = %s, range says %s", name, i, g.Cells[i].Relation, want)
					}
				}
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	builder := NewBuilder(time.Sunday, time.UTC)

	a := builder.Build(date(2024, time.March, 2))
	b := builder.Build(date(2024, time.March, 29))

	if diff := cmp.Diff(a.Cells, b.Cells); diff != "" {
		t.Errorf("cells differ for the same month (-a +b):\n%s", diff)
	}
	if a.CurrentStart != b.CurrentStart || a.CurrentEnd != b.CurrentEnd {
		t.Errorf("ranges differ: [%d, %d) and [%d, %d)", a.CurrentStart, a.CurrentEnd, b.CurrentStart, b.CurrentEnd)
	}

	seen := make(map[string]int, GridSize)
	for i, cell := range a.Cells {
		if previous, ok := seen[cell.ID.String()]; ok {
			t.Errorf("cells %d and %d share id %s", previous, i, cell.ID)
		}
		seen[cell.ID.String()] = i
	}

	other := NewBuilder(time.Monday, time.UTC).Build(date(2024, time.March, 2))
	if other.Cells[0].ID == a.Cells[0].ID {
		t.Error("cell ids should depend on the first weekday")
	}
}

func TestBuildUsesBuilderLocation(t *testing.T) {
	kyiv := time.FixedZone("UTC+2", 2*60*60)
	// 23:30 UTC on the last day of February is already March in UTC+2.
	reference := time.Date(2024, time.February, 29, 23, 30, 0, 0, time.UTC)

	if g := NewBuilder(time.Sunday, time.UTC).Build(reference); g.Month != time.February {
		t.Errorf("UTC grid month = %s, want February", g.Month)
	}

	g := NewBuilder(time.Sunday, kyiv).Build(reference)
	if g.Month != time.March || g.Year != 2024 {
		t.Errorf("UTC+2 grid = %s %d, want March 2024", g.Month, g.Year)
	}
	if g.Location != kyiv {
		t.Error("grid should keep the builder location")
	}
}

func TestBuildAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	g := NewBuilder(time.Sunday, loc).Build(time.Date(2024, time.March, 10, 3, 0, 0, 0, loc))
	if g.CurrentStart != 5 || g.CurrentEnd != 36 {
		t.Errorf("current range = [%d, %d), want [5, 36)", g.CurrentStart, g.CurrentEnd)
	}
}

func TestBuildWhenDSTSkipsMidnight(t *testing.T) {
	tests := []struct {
		zone      string
		reference time.Time
		firstDay  time.Weekday
		transit   int // index of the day whose midnight is skipped
		day       int
	}{
		{"America/Asuncion", date(2023, time.October, 15), time.Sunday, 0, 1},
		{"America/Santiago", date(2022, time.September, 20), time.Sunday, 14, 11},
	}

	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			loc, err := time.LoadLocation(tt.zone)
			if err != nil {
				t.Skipf("timezone data unavailable: %v", err)
			}

			reference := time.Date(tt.reference.Year(), tt.reference.Month(), tt.reference.Day(), 12, 0, 0, 0, loc)
			got := NewBuilder(tt.firstDay, loc).Build(reference)
			want := NewBuilder(tt.firstDay, time.UTC).Build(tt.reference)

			if got.CurrentStart != want.CurrentStart || got.CurrentEnd != want.CurrentEnd {
				t.Fatalf("current range = [%d, %d), want [%d, %d)", got.CurrentStart, got.CurrentEnd, want.CurrentStart, want.CurrentEnd)
			}

			if diff := cmp.Diff(want.Cells, got.Cells); diff != "" {
				t.Errorf("cells mismatch (-want +got):\n%s", diff)
			}

			for i := range GridSize {
				gotDate, _ := got.DateAt(i)
				wantDate, _ := want.DateAt(i)

				if gotDate.Format(time.DateOnly) != wantDate.Format(time.DateOnly) {
					t.Errorf("DateAt(%d) = %s, want %s", i, gotDate.Format(time.DateOnly), wantDate.Format(time.DateOnly))
				}
			}

			transit, _ := got.DateAt(tt.transit)
			if transit.Day() != tt.day || transit.Hour() != 1 {
				t.Errorf("DateAt(%d) = %v, want the first instant after the skipped midnight", tt.transit, transit)
			}
		})
	}
}

func TestWeeks(t *testing.T) {
	g := NewBuilder(time.Sunday, time.UTC).Build(date(2024, time.March, 1))
	weeks := g.Weeks()

	for w, row := range weeks {
		for d, cell := range row {
			if cell != g.Cells[w*DaysPerWeek+d] {
				t.Errorf("week %d day %d = %+v, want %+v", w, d, cell, g.Cells[w*DaysPerWeek+d])
			}
		}
	}

	if got := weeks[0][5].Day; got != 1 {
		t.Errorf("first row, sixth column = %d, want 1", got)
	}
	if got := weeks[5][6].Day; got != 6 {
		t.Errorf("last cell = %d, want 6", got)
	}
}

func TestWeekOf(t *testing.T) {
	tests := []struct {
		index int
		want  int
	}{
		{0, 0}, {6, 0}, {7, 1}, {20, 2}, {35, 5}, {41, 5},
	}

	for _, tt := range tests {
		if got := WeekOf(tt.index); got != tt.want {
			t.Errorf("WeekOf(%d) = %d, want %d", tt.index, got, tt.want)
		}
	}
}

func TestNewBuilderPanicsOnInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		weekday time.Weekday
		loc     *time.Location
	}{
		{"nil location", time.Monday, nil},
		{"weekday too large", time.Weekday(7), time.UTC},
		{"negative weekday", time.Weekday(-1), time.UTC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected a panic")
				}
			}()

			NewBuilder(tt.weekday, tt.loc)
		})
	}
}

func TestShiftMonth(t *testing.T) {
	tests := []struct {
		year      int
		month     time.Month
		delta     int
		wantYear  int
		wantMonth time.Month
	}{
		{2024, time.January, -1, 2023, time.December},
		{2024, time.December, 1, 2025, time.January},
		{2024, time.June, 0, 2024, time.June},
		{2024, time.March, -14, 2023, time.January},
		{2024, time.March, 22, 2026, time.January},
	}

	for _, tt := range tests {
		year, month := shiftMonth(tt.year, tt.month, tt.delta)
		if year != tt.wantYear || month != tt.wantMonth {
			t.Errorf("shiftMonth(%d, %s, %d) = %d %s, want %d %s",
				tt.year, tt.month, tt.delta, year, month, tt.wantYear, tt.wantMonth)
		}
	}
}

func TestMonthRelationText(t *testing.T) {
	for relation, want := range map[MonthRelation]string{
		PreviousMonth: "previous",
		CurrentMonth:  "current",
		NextMonth:     "next",
	} {
		text, err := relation.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		if string(text) != want {
			t.Errorf("%d marshals to %q, want %q", relation, text, want)
		}

		var parsed MonthRelation
		if err := parsed.UnmarshalText(text); err != nil || parsed != relation {
			t.Errorf("%q unmarshals to %d (%v), want %d", text, parsed, err, relation)
		}
	}

	var parsed MonthRelation
	if err := parsed.UnmarshalText([]byte("later")); err == nil {
		t.Error("expected an error for an unknown relation")
	}
}
