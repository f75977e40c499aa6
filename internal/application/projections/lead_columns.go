package projections

import (
	"fmt"
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/crypto/blake2b"

	"vacademy/internal/domain/campaign"
	"vacademy/internal/domain/customfield"
)

// ColumnKind tags what a lead table column renders.
type ColumnKind string

// Column kinds.
const (
	KindIndex       ColumnKind = "index"
	KindName        ColumnKind = "name"
	KindEmail       ColumnKind = "email"
	KindCustom      ColumnKind = "custom"
	KindSubmittedOn ColumnKind = "submitted_on"
)

// Fixed column ids and fallback headers.
const (
	ColumnIDIndex       = "index"
	ColumnIDName        = "name"
	ColumnIDEmail       = "email"
	ColumnIDSubmittedOn = "submitted_on"

	HeaderIndex       = "#"
	HeaderName        = "Name"
	HeaderEmail       = "Email"
	HeaderSubmittedOn = "Submitted On"
)

// Column is one lead table column definition.
type Column struct {
	ID        string     `json:"id"`
	Header    string     `json:"header"`
	Kind      ColumnKind `json:"kind"`
	Pinned    bool       `json:"pinned,omitempty"`
	FieldID   string     `json:"field_id,omitempty"`
	FieldKey  string     `json:"field_key,omitempty"`
	FieldType string     `json:"field_type,omitempty"`
}

// GenerateLeadColumns projects a campaign's declared fields, the institute
// registry and the field ids observed in lead rows into table columns.
//
// The result always starts with index, name and email (name and email
// pinned) and ends with submitted-on. Custom columns are the union of
// declared and observed ids, minus anything aliasing name or email.
// Missing registry data degrades to the declared name or "Field N".
func GenerateLeadColumns(c campaign.Campaign, reg *customfield.Registry, observed []string) []Column {
	refs := make(map[string]campaign.FieldRef, len(c.CustomFields))
	for _, ref := range c.CustomFields {
		if _, ok := refs[ref.CustomFieldID]; !ok {
			refs[ref.CustomFieldID] = ref
		}
	}

	nameField, hasName := reg.FirstByKeys(customfield.NameKeys)
	emailField, hasEmail := reg.FirstByKeys(customfield.EmailKeys)

	nameCol := Column{ID: ColumnIDName, Header: HeaderName, Kind: KindName, Pinned: true}
	if hasName {
		nameCol.FieldID, nameCol.FieldKey = nameField.ID, nameField.FieldKey
		if nameField.FieldName != "" {
			nameCol.Header = nameField.FieldName
		}
	} else {
		pinDeclared(&nameCol, c, reg, customfield.IsNameKey)
	}
	emailCol := Column{ID: ColumnIDEmail, Header: HeaderEmail, Kind: KindEmail, Pinned: true}
	if hasEmail {
		emailCol.FieldID, emailCol.FieldKey = emailField.ID, emailField.FieldKey
		if emailField.FieldName != "" {
			emailCol.Header = emailField.FieldName
		}
	} else {
		pinDeclared(&emailCol, c, reg, customfield.IsEmailKey)
	}

	cols := []Column{
		{ID: ColumnIDIndex, Header: HeaderIndex, Kind: KindIndex},
		nameCol,
		emailCol,
	}

	excluded := func(id string) bool {
		if hasName && id == nameField.ID || hasEmail && id == emailField.ID {
			return true
		}
		if f, ok := reg.Lookup(id); ok {
			return customfield.IsMandatoryKey(f.FieldKey)
		}
		if ref, ok := refs[id]; ok {
			return customfield.IsMandatoryKey(ref.FieldKey)
		}
		return false
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	var declared, extra []string
	for _, id := range c.DeclaredFieldIDs() {
		if seen.Add(id) && !excluded(id) {
			declared = append(declared, id)
		}
	}
	for _, id := range observed {
		if id != "" && seen.Add(id) && !excluded(id) {
			extra = append(extra, id)
		}
	}

	orderOf := func(id string) int {
		if f, ok := reg.Lookup(id); ok {
			return f.FormOrder
		}
		return refs[id].FormOrder
	}
	sort.SliceStable(declared, func(i, j int) bool { return orderOf(declared[i]) < orderOf(declared[j]) })
	sort.SliceStable(extra, func(i, j int) bool {
		oi, oj := orderOf(extra[i]), orderOf(extra[j])
		if oi != oj {
			return oi < oj
		}
		return extra[i] < extra[j]
	})

	for i, id := range append(declared, extra...) {
		col := Column{ID: id, Kind: KindCustom, FieldID: id}
		if f, ok := reg.Lookup(id); ok {
			col.Header, col.FieldKey, col.FieldType = f.FieldName, f.FieldKey, f.FieldType
		}
		if ref, ok := refs[id]; ok {
			if col.Header == "" {
				col.Header = ref.FieldName
			}
			if col.FieldKey == "" {
				col.FieldKey = ref.FieldKey
			}
		}
		if col.Header == "" {
			col.Header = fmt.Sprintf("Field %d", i+1)
		}
		cols = append(cols, col)
	}

	return append(cols, Column{ID: ColumnIDSubmittedOn, Header: HeaderSubmittedOn, Kind: KindSubmittedOn})
}

// pinDeclared backs a pinned column with the first declared field outside
// the registry whose key matches, so its values still have a column.
func pinDeclared(col *Column, c campaign.Campaign, reg *customfield.Registry, matches func(string) bool) {
	for _, ref := range c.CustomFields {
		if ref.CustomFieldID == "" || !matches(ref.FieldKey) {
			continue
		}
		if _, ok := reg.Lookup(ref.CustomFieldID); ok {
			continue
		}
		col.FieldID, col.FieldKey = ref.CustomFieldID, ref.FieldKey
		if ref.FieldName != "" {
			col.Header = ref.FieldName
		}
		return
	}
}

// ColumnMemo caches the last GenerateLeadColumns result, keyed by a digest
// of the campaign id, declared fields, observed ids and registry contents.
// Safe for concurrent use.
type ColumnMemo struct {
	mu     sync.Mutex
	key    [32]byte
	cols   []Column
	filled bool
	hits   int
}

// Columns returns memoised columns for the inputs, recomputing on any change.
func (m *ColumnMemo) Columns(c campaign.Campaign, reg *customfield.Registry, observed []string) []Column {
	key := columnKey(c, reg, observed)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.filled && m.key == key {
		m.hits++
		return append([]Column(nil), m.cols...)
	}
	m.cols = GenerateLeadColumns(c, reg, observed)
	m.key = key
	m.filled = true
	return append([]Column(nil), m.cols...)
}

// Hits returns how many calls were served from the memo.
func (m *ColumnMemo) Hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}

func columnKey(c campaign.Campaign, reg *customfield.Registry, observed []string) [32]byte {
	var buf []byte
	add := func(parts ...string) {
		for _, p := range parts {
			buf = append(buf, p...)
			buf = append(buf, 0)
		}
		buf = append(buf, 1)
	}
	add(c.ID)
	for _, ref := range c.CustomFields {
		add(ref.CustomFieldID, ref.FieldKey, ref.FieldName, fmt.Sprint(ref.FormOrder))
	}
	add("observed")
	add(observed...)
	add("registry")
	for _, f := range reg.Fields() {
		add(f.ID, f.FieldKey, f.FieldName, f.FieldType, fmt.Sprint(f.FormOrder))
	}
	return blake2b.Sum256(buf)
}
