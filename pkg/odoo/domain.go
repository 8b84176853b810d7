package odoo

// Domain is an Odoo search domain: condition triples built with Cond,
// optionally prefixed with the polish-notation operators "|", "&", "!".
// A nil Domain matches every record.
type Domain []any

// Operators usable as Domain elements ahead of condition triples.
const (
	Or  = "|"
	And = "&"
	Not = "!"
)

// Cond builds a single domain condition triple.
func Cond(field, op string, value any) []any {
	return []any{field, op, value}
}

// args returns the wire representation, never nil so an empty domain
// marshals as [] rather than null.
func (d Domain) args() []any {
	if d == nil {
		return []any{}
	}
	return d
}

// RelID extracts the id from a many2one value, which Odoo serializes as
// a [id, display_name] pair, or false when unset.
func RelID(v any) (int64, bool) {
	pair, ok := v.([]any)
	if !ok || len(pair) == 0 {
		return 0, false
	}
	return asInt64(pair[0])
}

// RelName extracts the display name from a many2one value.
func RelName(v any) (string, bool) {
	pair, ok := v.([]any)
	if !ok || len(pair) < 2 {
		return "", false
	}
	name, ok := pair[1].(string)
	return name, ok
}

// Str returns the record value as a string, treating absent values and
// Odoo's false-for-empty convention as "".
func (r Record) Str(key string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// ID returns the record's id field.
func (r Record) ID() int64 {
	id, _ := asInt64(r["id"])
	return id
}

// Bool returns the record value as a bool; absent values are false.
func (r Record) Bool(key string) bool {
	b, ok := r[key].(bool)
	return ok && b
}
