package shared

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"absensi/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects field problems for both JSON and form submissions.
type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{issues: make([]ValidationIssue, 0, 4)}
}

func (v *Validator) Add(field, reason string) {
	if v == nil {
		return
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{Field: strings.TrimSpace(field), Reason: reason})
}

func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
}

func (v *Validator) Enum(field, value string, allowed []string) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return
	}
	for _, candidate := range allowed {
		if normalized == strings.ToLower(candidate) {
			return
		}
	}
	v.Add(field, "must be one of "+strings.Join(allowed, ", "))
}

func (v *Validator) Date(field, raw string) (time.Time, bool) {
	parsed, err := ParseDate(strings.TrimSpace(raw))
	if err != nil || parsed.IsZero() {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

func (v *Validator) DateOrder(startField string, start time.Time, endField string, end time.Time) {
	if start.IsZero() || end.IsZero() {
		return
	}
	if end.Before(start) {
		v.Add(endField, "must be on or after "+startField)
	}
}

func (v *Validator) Float(field, raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v.Add(field, "is required")
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v.Add(field, "must be a number")
		return 0
	}
	return value
}

func (v *Validator) Int(field, raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		v.Add(field, "must be a whole number")
		return 0
	}
	return value
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	if v == nil || len(v.issues) == 0 {
		return nil
	}
	out := make([]ValidationIssue, len(v.issues))
	copy(out, v.issues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// Summary joins the issues into one line for form banners.
func (v *Validator) Summary() string {
	parts := make([]string, 0, len(v.issues))
	for _, issue := range v.Issues() {
		parts = append(parts, issue.Field+" "+issue.Reason)
	}
	return strings.Join(parts, "; ")
}

func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": v.Issues()}, requestID)
	return true
}
