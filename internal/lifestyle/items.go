// Package lifestyle holds the tracked items the calendar bar scopes by week.
package lifestyle

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

var errInvalidDocument = errors.New("items document is not valid JSON")

type Item struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ImageURL     string `json:"image-url,omitempty"`
	ImageURLDark string `json:"image-url-dark,omitempty"`
	Week         int    `json:"week"`
	Completed    bool   `json:"completed"`
}

// ParseItems reads a JSON object keyed by item id. Entries that are not
// objects are skipped. Items come back ordered by id, newest (largest) first.
func ParseItems(doc []byte) ([]Item, error) {
	if !gjson.ValidBytes(doc) {
		return nil, errInvalidDocument
	}

	root := gjson.ParseBytes(doc)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected an object of items", errInvalidDocument)
	}

	var items []Item

	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}

		items = append(items, Item{
			ID:           key.String(),
			Name:         value.Get("name").String(),
			ImageURL:     value.Get("imageURL").String(),
			ImageURLDark: value.Get("imageURLDark").String(),
			Week:         int(value.Get("week").Int()),
			Completed:    value.Get("isCompleted").Bool(),
		})

		return true
	})

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ID > items[j].ID
	})

	return items, nil
}

func LoadItemsFile(path string) ([]Item, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading items file: %w", err)
	}

	items, err := ParseItems(contents)
	if err != nil {
		return nil, fmt.Errorf("parsing items file %s: %w", path, err)
	}

	return items, nil
}

func ForWeek(items []Item, week int) []Item {
	filtered := make([]Item, 0, len(items))

	for i := range items {
		if items[i].Week == week {
			filtered = append(filtered, items[i])
		}
	}

	return filtered
}

type SectionType string

const (
	SectionOngoing   SectionType = "ongoing"
	SectionCompleted SectionType = "completed"
	SectionSearch    SectionType = "search"
)

type Section struct {
	Type  SectionType `json:"type"`
	Items []Item      `json:"items"`
}

// Sections groups items for display. Without a query items are split into
// ongoing and completed; with one, matching names form a single search section.
// Empty sections are left out.
func Sections(items []Item, query string) []Section {
	query = strings.ToLower(strings.TrimSpace(query))

	if query != "" {
		var matches []Item

		for i := range items {
			if strings.Contains(strings.ToLower(items[i].Name), query) {
				matches = append(matches, items[i])
			}
		}

		if len(matches) == 0 {
			return []Section{}
		}

		return []Section{{Type: SectionSearch, Items: matches}}
	}

	var ongoing, completed []Item

	for i := range items {
		if items[i].Completed {
			completed = append(completed, items[i])
		} else {
			ongoing = append(ongoing, items[i])
		}
	}

	sections := make([]Section, 0, 2)

	if len(ongoing) > 0 {
		sections = append(sections, Section{Type: SectionOngoing, Items: ongoing})
	}

	if len(completed) > 0 {
		sections = append(sections, Section{Type: SectionCompleted, Items: completed})
	}

	return sections
}
