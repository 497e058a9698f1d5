package assistantapi

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

const genericErrorMessage = "the assistant service rejected the request"

// envelope is the {code, data, msg} wrapper of every REST response. A
// non-zero code is an error regardless of the HTTP status.
type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
	Msg  string          `json:"msg"`
}

type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assistant api error %d: %s", e.Code, e.Message)
}

func (e envelope) err(statusCode int) error {
	if e.Code == 0 {
		return nil
	}

	return &APIError{StatusCode: statusCode, Code: e.Code, Message: e.message()}
}

// message picks the user-facing text. Validation failures carry a list in
// data whose first element is either a plain string or a field->errors map.
func (e envelope) message() string {
	if msg := firstFieldError(e.Data); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(e.Msg); msg != "" {
		return msg
	}
	return genericErrorMessage
}

func firstFieldError(data json.RawMessage) string {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || len(items) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(items[0], &text); err == nil {
		return strings.TrimSpace(text)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(items[0], &fields); err != nil || len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	field := keys[0]
	detail := describe(fields[field])
	if detail == "" {
		return field
	}
	return field + ": " + detail
}

func describe(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return describe(list[0])
	}

	return strings.TrimSpace(string(raw))
}
