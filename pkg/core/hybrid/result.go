package hybrid

import (
	"bytes"
	"encoding/json"
)

// NoResponse is shown when a query produced nothing usable.
const NoResponse = "No response returned."

// QueryResult is the opaque body returned by the query service. A failed call
// yields the zero value.
type QueryResult struct {
	Raw json.RawMessage
}

// Empty reports whether the service returned nothing (or the call failed).
func (r QueryResult) Empty() bool {
	return r.Text() == ""
}

// Text is the body as it should be embedded verbatim: a JSON string is unquoted,
// any other JSON value is returned as-is.
func (r QueryResult) Text() string {
	raw := bytes.TrimSpace(r.Raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// Content extracts the "content" field when the body is an object carrying one.
func (r QueryResult) Content() (string, bool) {
	raw := bytes.TrimSpace(r.Raw)
	if len(raw) == 0 || raw[0] != '{' {
		return "", false
	}
	var obj struct {
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Content == nil {
		return "", false
	}
	return *obj.Content, true
}

// Answer is the text shown to users: the object's content, else the body, else NoResponse.
func (r QueryResult) Answer() string {
	raw := bytes.TrimSpace(r.Raw)
	if len(raw) > 0 && raw[0] == '{' {
		if content, ok := r.Content(); ok && content != "" {
			return content
		}
		return NoResponse
	}
	if text := r.Text(); text != "" {
		return text
	}
	return NoResponse
}

func (r QueryResult) String() string { return r.Text() }

// MarshalJSON keeps the service body untouched when results are persisted or served.
func (r QueryResult) MarshalJSON() ([]byte, error) {
	if len(bytes.TrimSpace(r.Raw)) == 0 {
		return []byte(`""`), nil
	}
	return r.Raw, nil
}

func (r *QueryResult) UnmarshalJSON(data []byte) error {
	r.Raw = append(r.Raw[:0], data...)
	return nil
}
