package odoo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomain_MarshalsConditions(t *testing.T) {
	d := Domain{Or, Cond("user_id", "=", false), Cond("user_id", "=", nil)}

	raw, err := json.Marshal(d.args())
	require.NoError(t, err)
	assert.JSONEq(t, `["|", ["user_id", "=", false], ["user_id", "=", null]]`, string(raw))
}

func TestDomain_NilMarshalsEmptyList(t *testing.T) {
	var d Domain
	raw, err := json.Marshal(d.args())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestRelHelpers(t *testing.T) {
	rec := Record{
		"source_id": []any{float64(3), "Instagram"},
		"user_id":   false,
	}

	id, ok := RelID(rec["source_id"])
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)

	name, ok := RelName(rec["source_id"])
	assert.True(t, ok)
	assert.Equal(t, "Instagram", name)

	_, ok = RelID(rec["user_id"])
	assert.False(t, ok)
	_, ok = RelName(rec["user_id"])
	assert.False(t, ok)
}

func TestRecord_Str(t *testing.T) {
	rec := Record{"name": "Ada", "email_from": false}
	assert.Equal(t, "Ada", rec.Str("name"))
	assert.Equal(t, "", rec.Str("email_from"))
	assert.Equal(t, "", rec.Str("missing"))
}

func TestRecord_Bool(t *testing.T) {
	rec := Record{"x_email_sent": true, "active": false}
	assert.True(t, rec.Bool("x_email_sent"))
	assert.False(t, rec.Bool("active"))
	assert.False(t, rec.Bool("missing"))
}
