package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dompet/internal/analytics"
	"dompet/internal/core"
)

// maxBodyBytes bounds request bodies; entry forms are tiny.
const maxBodyBytes = 64 << 10

// RequestBodyParser reads a JSON or form-encoded body once and exposes its
// fields as strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = core.ValidationError("request body too large")
	}
	return p
}

// Parse decodes the body as JSON when it looks like an object, otherwise as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	switch {
	case trimmed == "":
		p.formData = url.Values{}
	case trimmed[0] == '{':
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = core.ValidationError("malformed JSON body")
		}
	default:
		var err error
		if p.formData, err = url.ParseQuery(trimmed); err != nil {
			p.err = core.ValidationError("malformed form body")
		}
	}
	return p.err
}

// Get returns the sanitized value of key, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

// ParseTransaction builds a transaction for userID from the body. The
// amount goes through core.ParseAmount; a missing date means today.
func ParseTransaction(p *RequestBodyParser, userID string, today core.Date) (core.Transaction, error) {
	if err := p.Parse(); err != nil {
		return core.Transaction{}, err
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Transaction{}, err
	}

	date := today
	if v := p.Get("date"); v != "" {
		if date, err = core.ParseDate(v); err != nil {
			return core.Transaction{}, core.ErrInvalidDate
		}
	}

	recurring := false
	if v := p.Get("is_recurring"); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "on", "yes":
			recurring = true
		}
	}

	return core.Transaction{
		UserID:      userID,
		Date:        date,
		Type:        core.TxType(strings.ToLower(p.Get("type"))),
		Category:    p.Get("category"),
		Amount:      amount,
		Description: p.Get("description"),
		Account:     p.Get("account"),
		Necessity:   core.Necessity(p.Get("necessity")),
		IsRecurring: recurring,
	}, nil
}

// ParseGoal builds a goal for userID from the body. saved_amount may be
// omitted or zero.
func ParseGoal(p *RequestBodyParser, userID string) (core.Goal, error) {
	if err := p.Parse(); err != nil {
		return core.Goal{}, err
	}
	target, err := core.ParseAmount(p.Get("target_amount"))
	if err != nil {
		return core.Goal{}, err
	}
	g := core.Goal{UserID: userID, Title: p.Get("title"), TargetAmount: target}
	if v := p.Get("saved_amount"); v != "" && v != "0" {
		if g.SavedAmount, err = core.ParseAmount(v); err != nil {
			return core.Goal{}, core.ErrInvalidSaved
		}
	}
	return g, nil
}

// ParseWindowParams reads view, year and month from the query. Missing
// values default to today's year and month; malformed ones are rejected.
func ParseWindowParams(query url.Values, today core.Date) (analytics.Window, error) {
	view, err := analytics.ParseView(query.Get("view"))
	if err != nil {
		return analytics.Window{}, err
	}
	year, err := intParam(query, "year", today.Year())
	if err != nil {
		return analytics.Window{}, err
	}
	month, err := intParam(query, "month", int(today.Month()))
	if err != nil {
		return analytics.Window{}, err
	}
	return analytics.NewWindow(view, year, month)
}

// ParseType reads an optional transaction type; empty matches both.
func ParseType(query url.Values) (core.TxType, error) {
	typ := core.TxType(strings.ToLower(strings.TrimSpace(query.Get("type"))))
	if typ != "" && !typ.Valid() {
		return "", core.ErrInvalidType
	}
	return typ, nil
}

// ParseLimit reads an optional limit capped at max; 0 means the caller's default.
func ParseLimit(query url.Values, max int) (int, error) {
	n, err := intParam(query, "limit", 0)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, core.ValidationError("limit cannot be negative")
	}
	if n > max {
		n = max
	}
	return n, nil
}

func intParam(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.ValidationError(fmt.Sprintf("invalid %s %q", key, v))
	}
	return n, nil
}
