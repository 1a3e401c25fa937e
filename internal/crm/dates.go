package crm

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	crmerrors "github.com/maruel/pcrm/internal/errors"
	"github.com/maruel/pcrm/internal/models"
)

// NormalizeDate converts a user supplied date to the YYYY-MM-DD form stored in
// meetings.
//
// "today", "yesterday" and "tomorrow" are relative to now, as is the empty
// string which means today. Anything else is parsed in now's location.
func NormalizeDate(s string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return now.Format(models.DateLayout), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(models.DateLayout), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(models.DateLayout), nil
	}
	t, err := dateparse.ParseIn(strings.TrimSpace(s), now.Location())
	if err != nil {
		return "", crmerrors.BadInput(fmt.Sprintf("cannot understand date %q", s))
	}
	return t.Format(models.DateLayout), nil
}

// parseDate parses a stored meeting date.
func parseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, s)
}

// daysBetween returns the number of calendar days from a to b.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
