package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ltv-dashboard/internal/errors"
	"ltv-dashboard/internal/models"
)

// Query parameters accepted by the JSON API. Each may be repeated; an
// absent parameter places no constraint on that column.
const (
	paramMonth       = "month"
	paramYear        = "year"
	paramPlatform    = "platform"
	paramSalesperson = "salesperson"
)

// filterFromQuery returns an *errors.AppError for rejected parameters: a
// validation error for an unknown month name and a bad request otherwise.
func filterFromQuery(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()

	f := models.Filter{
		Months:      queryValues(q, paramMonth),
		Platforms:   queryValues(q, paramPlatform),
		Salespeople: queryValues(q, paramSalesperson),
	}

	for _, m := range f.Months {
		if _, ok := models.MonthNumber(m); !ok {
			return models.Filter{}, errors.Validation(fmt.Sprintf("unknown month %q", m))
		}
	}

	if years := queryValues(q, paramYear); years != nil {
		f.Years = make([]int, 0, len(years))
		for _, raw := range years {
			y, err := strconv.Atoi(raw)
			if err != nil {
				return models.Filter{}, errors.BadRequest(fmt.Sprintf("invalid year %q", raw))
			}
			f.Years = append(f.Years, y)
		}
	}

	return f, nil
}

// queryValues returns nil when the key is absent so the filter stays open.
// Comma-separated values are accepted alongside repeated keys.
func queryValues(q url.Values, key string) []string {
	raw, ok := q[key]
	if !ok {
		return nil
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}
