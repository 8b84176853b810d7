package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	out := Render("Hi __NAME__, about __PRODUCT__", map[string]string{
		"name":    "Ada",
		"product": "Soap",
	})
	assert.Equal(t, "Hi Ada, about Soap", out)
}

func TestRender_UnknownPlaceholderLeftIntact(t *testing.T) {
	out := Render("Hi __NAME__ __MYSTERY__", map[string]string{"name": "Ada"})
	assert.Equal(t, "Hi Ada __MYSTERY__", out)
}

func TestRenderWelcome(t *testing.T) {
	subject, body := RenderWelcome("Ada", "Soap", "Ankit")

	assert.Equal(t, "Thanks for your interest, Ada!", subject)
	assert.Contains(t, body, "<b>Soap</b>")
	assert.Contains(t, body, "Ankit will contact you shortly")
	assert.NotContains(t, body, "__")
}

func TestRenderApology(t *testing.T) {
	subject, body := RenderApology("Ada", "Xyzzycorp-Widget")

	assert.Contains(t, subject, "Xyzzycorp-Widget")
	assert.Contains(t, body, "we don’t sell “Xyzzycorp-Widget”")
	assert.NotContains(t, body, "__")
}
