package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ListStatus tags the outcome of decoding a /documents response.
type ListStatus int

const (
	ListOK ListStatus = iota
	ListMalformed
)

func (s ListStatus) String() string {
	if s == ListOK {
		return "ok"
	}
	return "malformed"
}

// DocumentList is the single decoded form of a /documents body.
// Documents is nil unless Status is ListOK. Skipped counts entries that were not document records.
type DocumentList struct {
	Status    ListStatus
	Documents []StoredDocument
	Skipped   int
	Reason    string
}

// DecodeDocumentList accepts a JSON array, a JSON string holding an array, or an
// object carrying the array under "documents". Anything else is ListMalformed.
func DecodeDocumentList(body []byte) DocumentList {
	raw := bytes.TrimSpace(body)

	// the service sometimes double-encodes the list
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return malformed("invalid JSON string: %v", err)
		}
		raw = bytes.TrimSpace([]byte(inner))
	}

	if len(raw) > 0 && raw[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return malformed("invalid JSON object: %v", err)
		}
		docs, ok := wrapper["documents"]
		if !ok {
			return malformed("object without documents key")
		}
		raw = bytes.TrimSpace(docs)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return malformed("expected a list: %v", err)
	}

	list := DocumentList{Status: ListOK, Documents: make([]StoredDocument, 0, len(items))}
	for _, item := range items {
		doc, ok := decodeRecord(item)
		if !ok {
			list.Skipped++
			continue
		}
		list.Documents = append(list.Documents, doc)
	}
	return list
}

func malformed(format string, args ...any) DocumentList {
	return DocumentList{Status: ListMalformed, Reason: fmt.Sprintf(format, args...)}
}

type documentRecord struct {
	DocID    json.RawMessage `json:"doc_id"`
	FileName json.RawMessage `json:"file_name"`
}

// decodeRecord keeps objects only. Missing or non-string fields become empty strings
// so the caller decides whether the record is usable.
func decodeRecord(item json.RawMessage) (StoredDocument, bool) {
	trimmed := bytes.TrimSpace(item)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return StoredDocument{}, false
	}
	var rec documentRecord
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return StoredDocument{}, false
	}
	return StoredDocument{DocID: scalarString(rec.DocID), FileName: scalarString(rec.FileName)}, true
}

// scalarString renders a JSON string or number as text; ids are opaque and may arrive as either.
func scalarString(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}
