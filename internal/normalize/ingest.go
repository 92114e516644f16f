package normalize

import (
	"errors"
	"strings"

	"cot-dashboard/internal/domain"

	"github.com/tidwall/gjson"
)

// ErrUnexpectedFormat is returned when an ingest response carries no counts.
var ErrUnexpectedFormat = errors.New("unexpected response format")

// IngestResult decodes the counters of an ingest response. They may sit at
// the top level or under "data", in camelCase or snake_case.
func IngestResult(payload []byte) (domain.IngestResult, error) {
	if !gjson.ValidBytes(payload) {
		return domain.IngestResult{}, ErrUnexpectedFormat
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return domain.IngestResult{}, ErrUnexpectedFormat
	}

	source := root
	if !hasCounts(root) {
		data := root.Get("data")
		if !data.IsObject() {
			return domain.IngestResult{}, ErrUnexpectedFormat
		}
		source = data
	}

	fields := source.Map()
	result := domain.IngestResult{}
	if v, ok := lookup(fields, "insertedCount", "inserted_count"); ok {
		n, _ := toFloat(v)
		result.InsertedCount = int(n)
	}
	if v, ok := lookup(fields, "duplicateCount", "duplicate_count"); ok {
		n, _ := toFloat(v)
		result.DuplicateCount = int(n)
	}
	if v, ok := lookup(root.Map(), "message"); ok {
		result.Message = v.String()
	} else if v, ok := lookup(fields, "message"); ok {
		result.Message = v.String()
	}
	return result, nil
}

func hasCounts(v gjson.Result) bool {
	for _, k := range []string{"insertedCount", "inserted_count"} {
		if v.Get(k).Exists() {
			return true
		}
	}
	return false
}

// ErrorMessage extracts a human readable message from an error body. It
// understands {"detail": "..."}, {"detail": [{"msg": "..."}]}, "message" and
// "error". An empty string means nothing usable was found.
func ErrorMessage(payload []byte) string {
	if !gjson.ValidBytes(payload) {
		return ""
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return ""
	}
	detail := root.Get("detail")
	switch {
	case detail.IsArray():
		if first := detail.Get("0"); first.Exists() {
			if msg, ok := lookup(first.Map(), "msg", "message"); ok {
				return msg.String()
			}
			if first.Type == gjson.String {
				return first.Str
			}
		}
	case detail.IsObject():
		if msg, ok := lookup(detail.Map(), "msg", "message"); ok {
			return msg.String()
		}
	case detail.Type == gjson.String && strings.TrimSpace(detail.Str) != "":
		return detail.Str
	}
	if msg, ok := lookup(root.Map(), "message", "error"); ok {
		return msg.String()
	}
	return ""
}
