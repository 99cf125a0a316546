package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"salestree/internal/core"
)

// parseFilter builds a journal filter from query parameters. A "year"
// shortcut expands to a from/to pair; explicit from/to win over it.
func parseFilter(query url.Values) (core.Filter, error) {
	var f core.Filter

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("invalid year %q", v)
		}
		f.From = core.NewDate(year, 1, 1)
		f.To = core.NewDate(year, 12, 31)
	}

	if v := strings.TrimSpace(query.Get("from")); v != "" {
		d, err := parseQueryDate(v)
		if err != nil {
			return f, err
		}
		f.From = d
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		d, err := parseQueryDate(v)
		if err != nil {
			return f, err
		}
		f.To = d
	}

	if v := strings.TrimSpace(query.Get("type")); v != "" {
		docType := core.DocType(v)
		if !docType.Valid() {
			return f, fmt.Errorf("invalid document type %q", v)
		}
		f.DocType = docType
	}
	if v := strings.TrimSpace(query.Get("status")); v != "" {
		status := core.Status(v)
		if !status.Valid() {
			return f, fmt.Errorf("invalid status %q", v)
		}
		f.Status = status
	}

	return f, nil
}

func parseQueryDate(v string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return core.Date{Time: t}, nil
}

// parseAsOf reads the aging reference date, defaulting to today.
func parseAsOf(query url.Values) (core.Date, error) {
	v := strings.TrimSpace(query.Get("as_of"))
	if v == "" {
		return core.Today(), nil
	}
	return parseQueryDate(v)
}

// searchTransactions keeps rows whose counterparty or description
// contains the query, case-insensitively.
func searchTransactions(txs []core.Transaction, q string) []core.Transaction {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return txs
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if strings.Contains(strings.ToLower(t.Counterparty), q) ||
			strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	return out
}
