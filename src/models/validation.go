package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValidationDetail describes one rejected input location.
type ValidationDetail struct {
	Type  string        `json:"type"`
	Loc   []interface{} `json:"loc"`
	Msg   string        `json:"msg"`
	Input interface{}   `json:"input"`
}

// ValidationError is the 422 response body.
type ValidationError struct {
	Detail []ValidationDetail `json:"detail"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Detail))
	for _, d := range e.Detail {
		loc := make([]string, 0, len(d.Loc))
		for _, l := range d.Loc {
			loc = append(loc, fmt.Sprint(l))
		}
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(loc, "."), d.Msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(typ, msg string, input interface{}, loc ...interface{}) {
	e.Detail = append(e.Detail, ValidationDetail{Type: typ, Loc: loc, Msg: msg, Input: input})
}

func (e *ValidationError) orNil() *ValidationError {
	if len(e.Detail) == 0 {
		return nil
	}
	return e
}

// JoinValidationErrors concatenates the details of the non-nil errors in
// order, or returns nil when there are none.
func JoinValidationErrors(errs ...*ValidationError) *ValidationError {
	joined := &ValidationError{}
	for _, e := range errs {
		if e != nil {
			joined.Detail = append(joined.Detail, e.Detail...)
		}
	}
	return joined.orNil()
}

// NewParamError reports a path or query parameter that failed to parse.
func NewParamError(source, name, typ, msg, input string) *ValidationError {
	ve := &ValidationError{}
	ve.add(typ, msg, input, source, name)
	return ve
}

// ParseIntParam parses a path or query parameter as an integer.
func ParseIntParam(source, name, raw string) (int, *ValidationError) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, NewParamError(source, name, "int_parsing",
			"Input should be a valid integer, unable to parse string as an integer", raw)
	}
	return v, nil
}

// ParseBoolParam parses a query parameter the way bool body fields are parsed.
func ParseBoolParam(source, name, raw string) (bool, *ValidationError) {
	v, ok := parseBoolString(raw)
	if !ok {
		return false, NewParamError(source, name, "bool_parsing",
			"Input should be a valid boolean, unable to interpret input", raw)
	}
	return v, nil
}

// DecodeItem validates a JSON body as an Item.
func DecodeItem(body []byte) (Item, *ValidationError) {
	var item Item
	fields, ve := decodeObject(body)
	if ve != nil {
		return item, ve
	}

	ve = &ValidationError{}
	item.Name = requiredString(fields, "name", ve)
	item.Price = requiredFloat(fields, "price", ve)
	item.IsOffer = optionalBool(fields, "is_offer", ve)
	return item, ve.orNil()
}

// DecodeAccessoryInput validates a JSON body as an AccessoryInput.
func DecodeAccessoryInput(body []byte) (AccessoryInput, *ValidationError) {
	var in AccessoryInput
	fields, ve := decodeObject(body)
	if ve != nil {
		return in, ve
	}

	ve = &ValidationError{}
	in.Name = requiredString(fields, "name", ve)
	in.Color = requiredString(fields, "color", ve)
	in.InStock = optionalBool(fields, "in_stock", ve)
	return in, ve.orNil()
}

func decodeObject(body []byte) (map[string]json.RawMessage, *ValidationError) {
	ve := &ValidationError{}
	if trimmed := strings.TrimSpace(string(body)); trimmed == "" || trimmed == "null" {
		ve.add("missing", "Field required", nil, "body")
		return nil, ve
	}

	if !json.Valid(body) {
		ve.add("json_invalid", "JSON decode error", string(body), "body")
		return nil, ve
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		var raw interface{}
		_ = json.Unmarshal(body, &raw)
		ve.add("model_attributes_type", "Input should be a valid dictionary or object to extract fields from", raw, "body")
		return nil, ve
	}

	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func rawInput(raw json.RawMessage) interface{} {
	var v interface{}
	_ = json.Unmarshal(raw, &v)
	return v
}

func requiredString(fields map[string]json.RawMessage, name string, ve *ValidationError) string {
	raw, ok := fields[name]
	if !ok {
		ve.add("missing", "Field required", nil, "body", name)
		return ""
	}

	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		ve.add("string_type", "Input should be a valid string", rawInput(raw), "body", name)
		return ""
	}
	return s
}

func requiredFloat(fields map[string]json.RawMessage, name string, ve *ValidationError) float64 {
	raw, ok := fields[name]
	if !ok {
		ve.add("missing", "Field required", nil, "body", name)
		return 0
	}

	if isNull(raw) {
		ve.add("float_type", "Input should be a valid number", nil, "body", name)
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
		ve.add("float_parsing", "Input should be a valid number, unable to parse string as a number", s, "body", name)
		return 0
	}

	ve.add("float_type", "Input should be a valid number", rawInput(raw), "body", name)
	return 0
}

func optionalBool(fields map[string]json.RawMessage, name string, ve *ValidationError) *bool {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return nil
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
			switch f {
			case 0:
				return Bool(false)
			case 1:
				return Bool(true)
			}
		}
		ve.add("bool_parsing", "Input should be a valid boolean, unable to interpret input", rawInput(raw), "body", name)
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, ok := parseBoolString(s); ok {
			return &v
		}
		ve.add("bool_parsing", "Input should be a valid boolean, unable to interpret input", s, "body", name)
		return nil
	}

	ve.add("bool_type", "Input should be a valid boolean", rawInput(raw), "body", name)
	return nil
}

func parseBoolString(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, true
	case "0", "f", "false", "n", "no", "off":
		return false, true
	}
	return false, false
}
