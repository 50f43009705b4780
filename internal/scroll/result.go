package scroll

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// Result is one page of an export: the continuation handle to use for the
// next call, the documents in this batch, and the backend-reported total
// match count for the whole query.
type Result struct {
	ScrollID string
	Hits     []json.RawMessage
	Total    int64
}

// extract parses a raw search or scroll response. It is the single choke
// point both the initial query and every continuation go through, and its
// validation order is authoritative:
//
//  1. a non-empty error field is a backend error, regardless of any other
//     fields being well-formed
//  2. a missing or empty _scroll_id is a protocol violation; every
//     successful response must carry a continuation handle
//  3. a missing hits.hits array is a protocol violation, never silently
//     treated as an empty batch
//  4. hits.total.value defaults to 0 only when absent; present but
//     malformed is a protocol violation
func extract(op string, raw []byte) (*Result, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &Error{Kind: KindTransportFailure, Op: op, Err: errors.New("response body is not valid JSON")}
	}

	if errField := gjson.GetBytes(raw, "error"); errField.Exists() && errField.Type != gjson.Null {
		return nil, &Error{
			Kind:    KindBackendError,
			Op:      op,
			Payload: json.RawMessage(errField.Raw),
			Err:     errors.New("backend reported an error in the response payload"),
		}
	}

	scrollID := gjson.GetBytes(raw, "_scroll_id")
	if scrollID.Type != gjson.String || scrollID.Str == "" {
		return nil, &Error{Kind: KindProtocolViolation, Op: op, Err: errors.New("response is missing the _scroll_id field")}
	}

	hits := gjson.GetBytes(raw, "hits.hits")
	if !hits.IsArray() {
		return nil, &Error{Kind: KindProtocolViolation, Op: op, Err: errors.New("response is missing the hits.hits array")}
	}

	arr := hits.Array()
	docs := make([]json.RawMessage, 0, len(arr))
	for _, hit := range arr {
		docs = append(docs, json.RawMessage(hit.Raw))
	}

	var total int64
	if t := gjson.GetBytes(raw, "hits.total.value"); t.Exists() {
		if t.Type != gjson.Number {
			return nil, &Error{Kind: KindProtocolViolation, Op: op, Err: errors.New("hits.total.value is not a number")}
		}
		total = t.Int()
	}

	return &Result{
		ScrollID: scrollID.Str,
		Hits:     docs,
		Total:    total,
	}, nil
}
