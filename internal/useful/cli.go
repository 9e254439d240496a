package useful

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/usefulapp/useful/internal/calendar"
)

type cliIntent uint8

const (
	cliIntentServe cliIntent = iota
	cliIntentConfigValidate
	cliIntentGridPrint
	cliIntentVersionPrint
)

const defaultConfigPath = "useful.yml"

type cliOptions struct {
	intent     cliIntent
	configPath string
	date       string
}

func parseCliOptions(args []string) (*cliOptions, error) {
	flags := flag.NewFlagSet("useful", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	checkConfig := flags.Bool("check-config", false, "Check whether the config is valid")
	printGrid := flags.Bool("print", false, "Print the calendar grid and exit")
	printVersion := flags.Bool("version", false, "Print the version and exit")
	configPath := flags.String("config", defaultConfigPath, "Set config path")
	date := flags.String("date", "", "Reference date for -print (YYYY-MM-DD), defaults to today")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}

	options := &cliOptions{
		intent:     cliIntentServe,
		configPath: *configPath,
		date:       *date,
	}

	switch {
	case *printVersion:
		options.intent = cliIntentVersionPrint
	case *checkConfig:
		options.intent = cliIntentConfigValidate
	case *printGrid:
		options.intent = cliIntentGridPrint
	}

	if options.date != "" && options.intent != cliIntentGridPrint {
		return nil, errors.New("-date can only be used together with -print")
	}

	return options, nil
}

// configForPrinting falls back to defaults when the default config file does
// not exist, so the grid can be printed without any setup.
func configForPrinting(options *cliOptions) (*config, error) {
	c, err := parseConfigFile(options.configPath)
	if err == nil {
		return c, nil
	}

	if options.configPath == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		return newConfig(), nil
	}

	return nil, err
}

func cliPrintGrid(w io.Writer, options *cliOptions, now time.Time) error {
	c, err := configForPrinting(options)
	if err != nil {
		return err
	}

	builder := calendar.NewBuilder(c.firstWeekday(), c.location())

	reference := now.In(builder.Location())
	if options.date != "" {
		parsed, err := time.Parse(time.DateOnly, options.date)
		if err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", options.date)
		}

		reference = civilNoon(parsed, builder.Location())
	}

	grid := builder.Build(reference)
	highlight := grid.WeekContaining(reference.Day())

	return printGrid(w, grid, reference.Day(), highlight)
}

// printGrid writes a plain text month view. Days outside the grid's month are
// wrapped in parentheses and the reference day in brackets.
func printGrid(w io.Writer, grid *calendar.Grid, day, highlightWeek int) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %d\n", grid.Month, grid.Year)

	b.WriteString("  ")
	for d := range calendar.DaysPerWeek {
		weekday := time.Weekday((int(grid.FirstWeekday) + d) % calendar.DaysPerWeek)
		fmt.Fprintf(&b, "%5s", weekday.String()[:2])
	}
	b.WriteString("\n")

	for week, row := range grid.Weeks() {
		b.WriteString(ternary(week == highlightWeek, "> ", "  "))

		for _, cell := range row {
			switch {
			case cell.Relation != calendar.CurrentMonth:
				fmt.Fprintf(&b, "%5s", fmt.Sprintf("(%d)", cell.Day))
			case cell.Day == day:
				fmt.Fprintf(&b, "%5s", fmt.Sprintf("[%d]", cell.Day))
			default:
				fmt.Fprintf(&b, "%5d", cell.Day)
			}
		}

		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
