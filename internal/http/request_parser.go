// Package http serves the budgeting API.
//
// This file implements utilities for parsing and validating HTTP request
// data shared by every handler.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"anggaran/internal/core"
)

var errMalformedBody = errors.New("malformed request body")

// decodeJSON reads a JSON object into dst. An empty body leaves dst
// untouched when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		if allowEmpty {
			return nil
		}
		return fmt.Errorf("%w: empty body", errMalformedBody)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var validation *core.ValidationError
		if errors.As(err, &validation) {
			return validation
		}
		if errors.Is(err, core.ErrInvalidAmount) {
			return core.ErrInvalidAmount
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

// readBody returns the raw request body.
func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(r.Body)
}

// MonthRange is an inclusive report window.
type MonthRange struct {
	Start core.Month
	End   core.Month
}

// ParseMonthRange reads start and end from the query. A missing end is
// the month of now; a missing start equals end.
func ParseMonthRange(query url.Values, now time.Time) (MonthRange, error) {
	end := core.MonthOf(now)
	if v := strings.TrimSpace(query.Get("end")); v != "" {
		m, err := core.ParseMonth(v)
		if err != nil {
			return MonthRange{}, core.Invalid("end", "must be YYYY-MM")
		}
		end = m
	}
	start := end
	if v := strings.TrimSpace(query.Get("start")); v != "" {
		m, err := core.ParseMonth(v)
		if err != nil {
			return MonthRange{}, core.Invalid("start", "must be YYYY-MM")
		}
		start = m
	}
	return MonthRange{Start: start, End: end}, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
