package pipeline

import (
	"fmt"
	"strings"
)

// Variant selects which outreach mail a lead receives.
type Variant string

const (
	VariantWelcome Variant = "welcome"
	VariantApology Variant = "apology"
)

// The outreach bodies are literal strings with __PLACEHOLDER__ tokens.
// The stored mail.template bodies are intentionally not used; templates
// are only loaded to verify they exist and to pick up their sender.
const (
	welcomeSubject = "Thanks for your interest, __NAME__!"
	welcomeBody    = "Hello __NAME__,<br><br>" +
		"Thank you for enquiring about <b>__PRODUCT__</b>.<br>" +
		"__SALESPERSON__ will contact you shortly.<br><br>" +
		"Best regards,<br>Sales team"

	apologySubject = "Sorry, we don’t stock “__BAD_PRODUCT__”"
	apologyBody    = "Dear __NAME__,<br><br>" +
		"Unfortunately we don’t sell “__BAD_PRODUCT__”. " +
		"Please check the name or contact us for alternatives.<br><br>" +
		"Kind regards,<br>Sales team"
)

// Render substitutes __KEY__ placeholders in src from ctx. Keys are
// upcased; unknown placeholders are left untouched.
func Render(src string, ctx map[string]string) string {
	for key, value := range ctx {
		src = strings.ReplaceAll(src, fmt.Sprintf("__%s__", strings.ToUpper(key)), value)
	}
	return src
}

// RenderWelcome renders the welcome subject and body for a lead.
func RenderWelcome(name, product, salesperson string) (subject, body string) {
	ctx := map[string]string{
		"name":        name,
		"product":     product,
		"salesperson": salesperson,
	}
	return Render(welcomeSubject, ctx), Render(welcomeBody, ctx)
}

// RenderApology renders the apology subject and body for a lead.
func RenderApology(name, badProduct string) (subject, body string) {
	ctx := map[string]string{
		"name":        name,
		"bad_product": badProduct,
	}
	return Render(apologySubject, ctx), Render(apologyBody, ctx)
}
