package customfield

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// ErrMalformedSetup is returned when a setup payload has none of the known shapes.
var ErrMalformedSetup = errors.New("custom field setup payload is malformed")

// setupItem is one entry of the field-setup endpoint.
type setupItem struct {
	CustomFieldID json.RawMessage `json:"custom_field_id"`
	ID            json.RawMessage `json:"id"`
	FieldKey      string          `json:"field_key"`
	FieldName     string          `json:"field_name"`
	FieldType     string          `json:"field_type"`
	FormOrder     json.RawMessage `json:"form_order"`
}

// DecodeSetup parses a field-setup payload. The payload may be a bare array,
// {"data": [...]} or {"result": [...]}.
//
// Unusable items are skipped rather than failing the whole payload. On a
// malformed payload DecodeSetup returns the fields it could read (possibly
// none) together with ErrMalformedSetup.
func DecodeSetup(raw []byte) ([]Field, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrMalformedSetup
	}

	var items []json.RawMessage
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, errors.Wrap(ErrMalformedSetup, err.Error())
		}
	case '{':
		var wrapper struct {
			Data   json.RawMessage `json:"data"`
			Result json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, errors.Wrap(ErrMalformedSetup, err.Error())
		}
		inner := wrapper.Data
		if len(bytes.TrimSpace(inner)) == 0 || string(bytes.TrimSpace(inner)) == "null" {
			inner = wrapper.Result
		}
		if len(inner) == 0 {
			return nil, ErrMalformedSetup
		}
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, errors.Wrap(ErrMalformedSetup, err.Error())
		}
	default:
		return nil, ErrMalformedSetup
	}

	fields := make([]Field, 0, len(items))
	var skipped int
	for _, rawItem := range items {
		var it setupItem
		if err := json.Unmarshal(rawItem, &it); err != nil {
			skipped++
			continue
		}
		id := scalarString(it.CustomFieldID)
		if id == "" {
			id = scalarString(it.ID)
		}
		if id == "" {
			skipped++
			continue
		}
		order, _ := strconv.Atoi(scalarString(it.FormOrder))
		fields = append(fields, Field{
			ID:        id,
			FieldKey:  it.FieldKey,
			FieldName: it.FieldName,
			FieldType: it.FieldType,
			FormOrder: order,
		})
	}
	if skipped > 0 {
		return fields, errors.Wrapf(ErrMalformedSetup, "%d items skipped", skipped)
	}
	return fields, nil
}

// scalarString renders a JSON string or number as a plain string.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
