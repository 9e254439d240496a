package calendar

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sun":       time.Sunday,
	"mon":       time.Monday,
	"tue":       time.Tuesday,
	"wed":       time.Wednesday,
	"thu":       time.Thursday,
	"fri":       time.Friday,
	"sat":       time.Saturday,
}

// ParseWeekday accepts full or three-letter English weekday names in any case.
func ParseWeekday(name string) (time.Weekday, error) {
	weekday, ok := weekdaysByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return time.Sunday, fmt.Errorf("invalid weekday %q", name)
	}

	return weekday, nil
}

// Regions whose weeks do not start on Monday.
var (
	sundayFirstRegions = map[string]bool{
		"AG": true, "AS": true, "AU": true, "BD": true, "BR": true, "BS": true,
		"BT": true, "BW": true, "BZ": true, "CA": true, "CN": true, "CO": true,
		"DM": true, "DO": true, "ET": true, "GT": true, "GU": true, "HK": true,
		"HN": true, "ID": true, "IL": true, "IN": true, "JM": true, "JP": true,
		"KE": true, "KH": true, "KR": true, "LA": true, "MH": true, "MM": true,
		"MO": true, "MT": true, "MX": true, "MZ": true, "NI": true, "NP": true,
		"PA": true, "PE": true, "PH": true, "PK": true, "PR": true, "PT": true,
		"PY": true, "SA": true, "SG": true, "SV": true, "TH": true, "TT": true,
		"TW": true, "UM": true, "US": true, "VE": true, "VI": true, "WS": true,
		"YE": true, "ZA": true, "ZW": true,
	}
	saturdayFirstRegions = map[string]bool{
		"AE": true, "AF": true, "BH": true, "DJ": true, "DZ": true, "EG": true,
		"IQ": true, "IR": true, "JO": true, "KW": true, "LY": true, "OM": true,
		"QA": true, "SD": true, "SY": true,
	}
)

// FirstWeekdayForLocale picks the conventional first day of the week for the
// region of tag. Tags without an explicit region use the most likely one.
func FirstWeekdayForLocale(tag language.Tag) time.Weekday {
	region, _ := tag.Region()
	code := region.String()

	switch {
	case saturdayFirstRegions[code]:
		return time.Saturday
	case sundayFirstRegions[code]:
		return time.Sunday
	}

	return time.Monday
}

// ParseLocaleFirstWeekday parses a BCP 47 tag such as "en-US" and returns its
// first weekday.
func ParseLocaleFirstWeekday(locale string) (time.Weekday, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return time.Monday, fmt.Errorf("parsing locale %q: %w", locale, err)
	}

	return FirstWeekdayForLocale(tag), nil
}
