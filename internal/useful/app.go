package useful

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/usefulapp/useful/internal/calendar"
	"github.com/usefulapp/useful/internal/lifestyle"
)

var errInvalidMonthQuery = errors.New("month must be formatted as YYYY-MM")

type application struct {
	Version      string
	CreatedAt    time.Time
	Config       config
	RequiresAuth bool

	now              func() time.Time
	authFailureDelay time.Duration
	unknownUserHash  []byte
	comparePassword  func(hash, password []byte) error
	builder          *calendar.Builder
	grids            *gridCache
	items            []lifestyle.Item
}

func newApplication(c *config, now func() time.Time) (*application, error) {
	if now == nil {
		now = time.Now
	}

	app := &application{
		Version:          buildVersion,
		CreatedAt:        now(),
		Config:           *c,
		RequiresAuth:     len(c.Auth.Users) > 0,
		now:              now,
		authFailureDelay: authWaitOnFailure,
		comparePassword:  bcrypt.CompareHashAndPassword,
		builder:          calendar.NewBuilder(c.firstWeekday(), c.location()),
	}

	if app.RequiresAuth {
		hash, err := newUnknownUserHash(c.Auth.Users)
		if err != nil {
			return nil, fmt.Errorf("preparing auth: %w", err)
		}

		app.unknownUserHash = hash
	}

	eventPaths := make([]string, len(c.Calendar.Events))
	for i := range c.Calendar.Events {
		eventPaths[i] = c.resolvePath(c.Calendar.Events[i])
	}

	events, err := loadEventFiles(context.Background(), eventPaths)
	if err != nil {
		return nil, fmt.Errorf("loading calendar events: %w", err)
	}

	app.grids = newGridCache(app.builder, events)

	app.items, err = loadItemsFile(c.resolvePath(c.Lifestyle.ItemsFile))
	if err != nil {
		return nil, fmt.Errorf("loading lifestyle items: %w", err)
	}

	app.Config.Server.BaseURL = strings.TrimRight(app.Config.Server.BaseURL, "/")

	slog.Info("Application created",
		"first_weekday", app.builder.FirstWeekday(),
		"timezone", app.builder.Location(),
		"events", len(events),
		"items", len(app.items),
	)

	return app, nil
}

type cellResponse struct {
	ID       string                 `json:"id"`
	Day      int                    `json:"day"`
	Relation calendar.MonthRelation `json:"relation"`
	Date     string                 `json:"date"`
	Events   int                    `json:"events"`
	Today    bool                   `json:"today,omitempty"`
}

type gridResponse struct {
	Year         int              `json:"year"`
	Month        int              `json:"month"`
	MonthName    string           `json:"month-name"`
	FirstWeekday string           `json:"first-weekday"`
	CurrentStart int              `json:"current-start"`
	CurrentEnd   int              `json:"current-end"`
	CurrentWeek  *int             `json:"current-week,omitempty"`
	Weeks        [][]cellResponse `json:"weeks"`
}

type selectionResponse struct {
	Row       int                    `json:"row"`
	Column    int                    `json:"column"`
	Day       int                    `json:"day"`
	Relation  calendar.MonthRelation `json:"relation"`
	Date      string                 `json:"date"`
	Week      int                    `json:"week"`
	WeekStart string                 `json:"week-start"`
	WeekEnd   string                 `json:"week-end"`
}

type currentWeekResponse struct {
	Week      int    `json:"week"`
	Day       int    `json:"day"`
	Date      string `json:"date"`
	WeekStart string `json:"week-start"`
	WeekEnd   string `json:"week-end"`
}

type itemsResponse struct {
	Week     int                 `json:"week"`
	Query    string              `json:"query,omitempty"`
	Sections []lifestyle.Section `json:"sections"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// referenceFromMonthQuery returns the first of the requested month, or now
// when the query is empty.
func (a *application) referenceFromMonthQuery(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}

	parsed, err := time.Parse("2006-01", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errInvalidMonthQuery, value)
	}

	return civilNoon(parsed, a.builder.Location()), nil
}

// civilNoon moves the calendar date of t to noon in loc. Midnight can be
// skipped by DST changes and land on the previous day; noon cannot.
func civilNoon(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 12, 0, 0, 0, loc)
}

func isTodaysGrid(grid *calendar.Grid, now time.Time) bool {
	year, month, _ := now.In(grid.Location).Date()
	return grid.Year == year && grid.Month == month
}

func (a *application) handleCalendarRequest(w http.ResponseWriter, r *http.Request) {
	now := a.now()

	reference, err := a.referenceFromMonthQuery(r.URL.Query().Get("month"), now)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	cached := a.grids.get(reference)
	grid := cached.grid

	response := gridResponse{
		Year:         grid.Year,
		Month:        int(grid.Month),
		MonthName:    grid.Month.String(),
		FirstWeekday: grid.FirstWeekday.String(),
		CurrentStart: grid.CurrentStart,
		CurrentEnd:   grid.CurrentEnd,
		Weeks:        make([][]cellResponse, 0, calendar.WeeksPerGrid),
	}

	todayIndex := -1
	if isTodaysGrid(grid, now) {
		week := grid.CurrentWeek(now)
		response.CurrentWeek = &week

		if index, ok := grid.IndexOfDay(now.In(grid.Location).Day()); ok {
			todayIndex = index
		}
	}

	for week, row := range grid.Weeks() {
		cells := make([]cellResponse, 0, calendar.DaysPerWeek)

		for d, cell := range row {
			index := week*calendar.DaysPerWeek + d
			date, _ := grid.DateAt(index)

			cells = append(cells, cellResponse{
				ID:       cell.ID.String(),
				Day:      cell.Day,
				Relation: cell.Relation,
				Date:     date.Format(time.DateOnly),
				Events:   cached.events[index],
				Today:    index == todayIndex,
			})
		}

		response.Weeks = append(response.Weeks, cells)
	}

	writeJSON(w, http.StatusOK, response)
}

func (a *application) handleCurrentWeekRequest(w http.ResponseWriter, _ *http.Request) {
	now := a.now()
	grid := a.grids.get(now).grid
	week := grid.CurrentWeek(now)

	start, end, err := grid.WeekSpan(week)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, currentWeekResponse{
		Week:      week,
		Day:       now.In(grid.Location).Day(),
		Date:      now.In(grid.Location).Format(time.DateOnly),
		WeekStart: start.Format(time.DateOnly),
		WeekEnd:   end.Format(time.DateOnly),
	})
}

func parseIntQuery(r *http.Request, name string) (int, bool, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0, false, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, true, fmt.Errorf("%s must be an integer", name)
	}

	return parsed, true, nil
}

func (a *application) handleSelectRequest(w http.ResponseWriter, r *http.Request) {
	reference, err := a.referenceFromMonthQuery(r.URL.Query().Get("month"), a.now())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	row, rowSet, err := parseIntQuery(r, "row")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	column, columnSet, err := parseIntQuery(r, "column")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !rowSet || !columnSet {
		writeJSONError(w, http.StatusBadRequest, "row and column are required")
		return
	}

	grid := a.grids.get(reference).grid

	selection, err := grid.Select(row, column)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	start, end, err := grid.WeekSpan(row)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, selectionResponse{
		Row:       selection.Row,
		Column:    selection.Column,
		Day:       selection.Day,
		Relation:  selection.Relation,
		Date:      selection.Date.Format(time.DateOnly),
		Week:      calendar.WeekOf(selection.Index),
		WeekStart: start.Format(time.DateOnly),
		WeekEnd:   end.Format(time.DateOnly),
	})
}

func (a *application) handleItemsRequest(w http.ResponseWriter, r *http.Request) {
	week, weekSet, err := parseIntQuery(r, "week")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !weekSet {
		now := a.now()
		week = a.grids.get(now).grid.CurrentWeek(now)
	} else if week < 0 || week >= calendar.WeeksPerGrid {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("week must be between 0 and %d", calendar.WeeksPerGrid-1))
		return
	}

	query := r.URL.Query().Get("q")

	writeJSON(w, http.StatusOK, itemsResponse{
		Week:     week,
		Query:    query,
		Sections: lifestyle.Sections(lifestyle.ForWeek(a.items, week), query),
	})
}

func (a *application) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSONError(w, http.StatusNotFound, "not found")
}

func (a *application) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /api/calendar", a.withAuth(a.handleCalendarRequest))
	mux.HandleFunc("GET /api/calendar/current-week", a.withAuth(a.handleCurrentWeekRequest))
	mux.HandleFunc("GET /api/calendar/select", a.withAuth(a.handleSelectRequest))
	mux.HandleFunc("GET /api/items", a.withAuth(a.handleItemsRequest))
	mux.HandleFunc("/", a.handleNotFound)

	if a.Config.Server.BaseURL == "" {
		return mux
	}

	return http.StripPrefix(a.Config.Server.BaseURL, mux)
}

func (a *application) server() (func() error, func() error) {
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	start := func() error {
		slog.Info("Starting server",
			"host", a.Config.Server.Host,
			"port", a.Config.Server.Port,
			"base_url", a.Config.Server.BaseURL,
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	}

	stop := func() error {
		return server.Close()
	}

	return start, stop
}
