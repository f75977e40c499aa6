package customfield

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Field type constants as sent by the field-setup registry.
const (
	TypeText     = "text"
	TypeNumber   = "number"
	TypeEmail    = "email"
	TypePhone    = "phone"
	TypeDropdown = "dropdown"
	TypeDate     = "date"
)

// Mandatory field keys. A campaign always shows a name and an email column.
var (
	NameKeys  = []string{"full_name", "name", "fullname"}
	EmailKeys = []string{"email"}
)

// Domain errors
var (
	ErrEmptyID  = errors.New("custom field id cannot be empty")
	ErrEmptyKey = errors.New("custom field key cannot be empty")
)

// Field is an institute-defined attribute attachable to campaign submissions.
type Field struct {
	ID        string `json:"id"`
	FieldKey  string `json:"field_key"`
	FieldName string `json:"field_name"`
	FieldType string `json:"field_type"`
	FormOrder int    `json:"form_order"`
}

// Validate checks that the Field can be stored in a registry.
func (f *Field) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(f.FieldKey) == "" {
		return ErrEmptyKey
	}
	return nil
}

// NormalizeKey lowercases and trims a field key for comparisons.
func NormalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// IsNameKey reports whether k is one of the well-known name keys.
func IsNameKey(k string) bool { return containsKey(NameKeys, k) }

// IsEmailKey reports whether k is one of the well-known email keys.
func IsEmailKey(k string) bool { return containsKey(EmailKeys, k) }

// IsMandatoryKey reports whether k aliases the name or email column.
func IsMandatoryKey(k string) bool { return IsNameKey(k) || IsEmailKey(k) }

func containsKey(keys []string, k string) bool {
	k = NormalizeKey(k)
	for _, v := range keys {
		if v == k {
			return true
		}
	}
	return false
}

// Registry resolves fields by id or key. The zero value is an empty registry.
type Registry struct {
	byID  map[string]Field
	byKey map[string]Field
	order []string
}

// NewRegistry builds a registry from fields. Later duplicates of an id win;
// fields without an id are skipped.
func NewRegistry(fields []Field) *Registry {
	r := &Registry{
		byID:  make(map[string]Field, len(fields)),
		byKey: make(map[string]Field, len(fields)),
	}
	for _, f := range fields {
		if f.ID == "" {
			continue
		}
		if _, seen := r.byID[f.ID]; !seen {
			r.order = append(r.order, f.ID)
		}
		r.byID[f.ID] = f
		if k := NormalizeKey(f.FieldKey); k != "" {
			if _, taken := r.byKey[k]; !taken {
				r.byKey[k] = f
			}
		}
	}
	return r
}

// Lookup returns the field with id. A nil registry finds nothing.
func (r *Registry) Lookup(id string) (Field, bool) {
	if r == nil {
		return Field{}, false
	}
	f, ok := r.byID[id]
	return f, ok
}

// LookupKey returns the first registered field with key k.
func (r *Registry) LookupKey(k string) (Field, bool) {
	if r == nil {
		return Field{}, false
	}
	f, ok := r.byKey[NormalizeKey(k)]
	return f, ok
}

// FirstByKeys returns the first field matching any of keys, in key order.
func (r *Registry) FirstByKeys(keys []string) (Field, bool) {
	for _, k := range keys {
		if f, ok := r.LookupKey(k); ok {
			return f, true
		}
	}
	return Field{}, false
}

// Len returns the number of fields.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byID)
}

// Fields returns all fields sorted by form order, then registration order.
func (r *Registry) Fields() []Field {
	if r == nil {
		return nil
	}
	out := make([]Field, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FormOrder < out[j].FormOrder })
	return out
}
