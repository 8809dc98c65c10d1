// Package validation checks and normalizes inbound prediction requests
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"go-mlwrapper/internal/domain"

	"github.com/go-playground/validator/v10"
)

// ErrEmptyBody is returned when the request carries no usable payload.
// It is reported separately from field violations.
var ErrEmptyBody = errors.New("empty request body")

// ValidationError lists every violated field constraint of a request
type ValidationError struct {
	Violations []domain.Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// Fields returns the names of the offending fields in report order
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

// validator.Validate caches rule parsing and is safe for concurrent use
var validate = validator.New()

type stringField struct {
	name  string
	rules string
	set   func(r *domain.PredictionRequest, v string)
}

var stringFields = []stringField{
	{"flightNumber", "min=2,max=10", func(r *domain.PredictionRequest, v string) { r.FlightNumber = v }},
	{"companyName", "min=2,max=3", func(r *domain.PredictionRequest, v string) { r.CompanyName = v }},
	{"flightOrigin", "len=3", func(r *domain.PredictionRequest, v string) { r.FlightOrigin = v }},
	{"flightDestination", "len=3", func(r *domain.PredictionRequest, v string) { r.FlightDestination = v }},
	{"flightDepartureDate", "required", func(r *domain.PredictionRequest, v string) { r.FlightDepartureDate = v }},
}

const distanceField = "flightDistance"

// Validate parses body, checks every field and returns the normalized
// request. The error is ErrEmptyBody or a *ValidationError.
func Validate(body []byte) (domain.PredictionRequest, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return domain.PredictionRequest{}, err
	}

	var (
		req        domain.PredictionRequest
		violations []domain.Violation
	)

	for _, f := range stringFields {
		value, msg := stringValue(fields, f.name)
		if msg == "" {
			msg = checkRules(value, f.rules)
		}
		if msg != "" {
			violations = append(violations, domain.Violation{Field: f.name, Message: msg})
			continue
		}
		f.set(&req, value)
	}

	distance, msg := intValue(fields, distanceField)
	if msg == "" {
		msg = checkRules(distance, "gt=0")
	}
	if msg != "" {
		violations = append(violations, domain.Violation{Field: distanceField, Message: msg})
	} else {
		req.FlightDistance = distance
	}

	if len(violations) > 0 {
		return domain.PredictionRequest{}, &ValidationError{Violations: violations}
	}
	return Normalize(req), nil
}

// Normalize uppercases the airline and airport codes. Applying it twice
// yields the same request.
func Normalize(req domain.PredictionRequest) domain.PredictionRequest {
	req.CompanyName = strings.ToUpper(req.CompanyName)
	req.FlightOrigin = strings.ToUpper(req.FlightOrigin)
	req.FlightDestination = strings.ToUpper(req.FlightDestination)
	return req
}

func decodeObject(body []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, bodyError("malformed JSON")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, bodyError("malformed JSON")
	}

	if isFalsy(raw) {
		return nil, ErrEmptyBody
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, bodyError("must be a JSON object")
	}
	return obj, nil
}

// isFalsy treats null, {}, [], "", 0 and false as an absent payload
func isFalsy(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case string:
		return val == ""
	case bool:
		return !val
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 0
	}
	return false
}

func bodyError(msg string) error {
	return &ValidationError{Violations: []domain.Violation{{Field: "body", Message: msg}}}
}

func stringValue(fields map[string]any, name string) (string, string) {
	raw, ok := fields[name]
	if !ok || raw == nil {
		return "", "field required"
	}
	s, ok := raw.(string)
	if !ok {
		return "", "must be a string"
	}
	return s, ""
}

// intValue accepts JSON numbers with no fractional part; numeric strings
// such as "3974" are rejected.
func intValue(fields map[string]any, name string) (int64, string) {
	raw, ok := fields[name]
	if !ok || raw == nil {
		return 0, "field required"
	}
	num, ok := raw.(json.Number)
	if !ok {
		return 0, "must be an integer"
	}
	if n, err := num.Int64(); err == nil {
		return n, ""
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return 0, "must be an integer"
	}
	return int64(f), ""
}

func checkRules(value any, rules string) string {
	err := validate.Var(value, rules)
	if err == nil {
		return ""
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	return ruleMessage(fieldErrs[0])
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return "invalid value"
	}
}
