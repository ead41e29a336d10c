package hh

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

// hh.ru publication dates come as "<day> <month name>" in Russian genitive,
// e.g. "12 августа".
var monthsRu = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

// parsePublicationDate resolves a publication date against now. The page
// carries no year, so the current one is assumed; a date that ends up in the
// future belongs to the previous year (a December vacancy seen in January).
func parsePublicationDate(raw string, now time.Time) (time.Time, error) {
	fields := strings.Fields(strings.ReplaceAll(raw, "\u00a0", " "))
	if len(fields) != 2 {
		return time.Time{}, xerrors.Errorf("unexpected publication date %q", raw)
	}

	day, err := strconv.Atoi(fields[0])
	if err != nil {
		return time.Time{}, xerrors.Errorf("unexpected publication day in %q: %w", raw, err)
	}
	month, ok := monthsRu[strings.ToLower(fields[1])]
	if !ok {
		return time.Time{}, xerrors.Errorf("unexpected publication month in %q", raw)
	}

	date := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	if date.After(now) {
		date = date.AddDate(-1, 0, 0)
	}
	return date, nil
}
