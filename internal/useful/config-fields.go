package useful

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/usefulapp/useful/internal/calendar"
)

type weekdayField time.Weekday

func (w *weekdayField) UnmarshalYAML(node *yaml.Node) error {
	var value string

	if err := node.Decode(&value); err != nil {
		return err
	}

	weekday, err := calendar.ParseWeekday(value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	*w = weekdayField(weekday)

	return nil
}

type timezoneField struct {
	*time.Location
}

func (t *timezoneField) UnmarshalYAML(node *yaml.Node) error {
	var value string

	if err := node.Decode(&value); err != nil {
		return err
	}

	loc, err := time.LoadLocation(value)
	if err != nil {
		return fmt.Errorf("line %d: invalid timezone '%s': %v", node.Line, value, err)
	}

	t.Location = loc

	return nil
}

type localeField struct {
	language.Tag
}

func (l *localeField) UnmarshalYAML(node *yaml.Node) error {
	var value string

	if err := node.Decode(&value); err != nil {
		return err
	}

	tag, err := language.Parse(value)
	if err != nil {
		return fmt.Errorf("line %d: invalid locale '%s': %v", node.Line, value, err)
	}

	l.Tag = tag

	return nil
}
