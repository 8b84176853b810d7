package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/pkg/odoo"
)

// Delivery states that count as handed off: the flag flips and the lead
// is never re-mailed.
var confirmedStates = map[string]struct{}{
	"sent":     {},
	"outgoing": {},
}

// LoadTemplate fetches a mail template by name. A missing template is a
// fatal condition; the run must not start without both variants.
func LoadTemplate(ctx context.Context, rc odoo.Client, name string) (model.Template, error) {
	recs, err := rc.SearchRead(ctx, "mail.template",
		odoo.Domain{odoo.Cond("name", "=", name)},
		[]string{"id", "name", "email_from"}, 1)
	if err != nil {
		return model.Template{}, eris.Wrapf(err, "notify: load template %q", name)
	}
	if len(recs) == 0 {
		return model.Template{}, eris.Errorf("notify: mail template %q not found", name)
	}
	return model.Template{
		ID:        recs[0].ID(),
		Name:      recs[0].Str("name"),
		EmailFrom: recs[0].Str("email_from"),
	}, nil
}

// CompanyEmail returns the main company's address, used as sender when a
// template carries none.
func CompanyEmail(ctx context.Context, rc odoo.Client) (string, error) {
	recs, err := rc.SearchRead(ctx, "res.company",
		odoo.Domain{odoo.Cond("id", "=", 1)}, []string{"email"}, 1)
	if err != nil {
		return "", eris.Wrap(err, "notify: fetch company email")
	}
	if len(recs) == 0 {
		return "", eris.New("notify: company record not found")
	}
	return recs[0].Str("email"), nil
}

// DispatchOutcome is the explicit per-lead result of one dispatch
// attempt. Failure is a value here, not an error: unsent leads stay
// eligible for the next run.
type DispatchOutcome struct {
	LeadID  int64
	Lead    string
	Variant Variant
	State   string
	Sent    bool
	Reason  string
}

// NotifyResult tallies one notification pass.
type NotifyResult struct {
	Sent    int
	Skipped int
}

// Notify sends the pending outreach mail for every lead that has an
// email address and an unset sent flag. The flag flips only on a
// confirmed delivery state; any per-lead failure is recorded and the
// next lead proceeds.
func Notify(ctx context.Context, rc odoo.Client, welcome, apology model.Template, companyEmail string) (NotifyResult, []DispatchOutcome, error) {
	ready, err := rc.SearchRead(ctx, "crm.lead",
		odoo.Domain{
			odoo.Cond(model.FieldEmailSent, "=", false),
			odoo.Cond(model.FieldEmail, "!=", false),
		},
		[]string{"id", "name", model.FieldEmail, model.FieldProduct, model.FieldBadProduct, model.FieldOwner}, 0)
	if err != nil {
		return NotifyResult{}, nil, eris.Wrap(err, "notify: fetch pending leads")
	}

	zap.L().Info("leads awaiting mail", zap.Int("count", len(ready)))

	var result NotifyResult
	outcomes := make([]DispatchOutcome, 0, len(ready))
	for _, lead := range ready {
		outcome := dispatchOne(ctx, rc, lead, welcome, apology, companyEmail)
		outcomes = append(outcomes, outcome)

		if outcome.Sent {
			result.Sent++
			zap.L().Info("mail sent",
				zap.String("lead", outcome.Lead),
				zap.String("variant", string(outcome.Variant)),
			)
		} else {
			result.Skipped++
			zap.L().Warn("mail not confirmed, flag left unset",
				zap.String("lead", outcome.Lead),
				zap.String("reason", outcome.Reason),
			)
		}
	}

	return result, outcomes, nil
}

// dispatchOne creates, sends and confirms one mail. Every failure path
// returns an outcome with the sent flag untouched so the lead is
// retried on a later run.
func dispatchOne(ctx context.Context, rc odoo.Client, lead odoo.Record, welcome, apology model.Template, companyEmail string) DispatchOutcome {
	outcome := DispatchOutcome{
		LeadID: lead.ID(),
		Lead:   lead.Str("name"),
	}

	bad := lead.Str(model.FieldBadProduct)
	product, _ := odoo.RelName(lead[model.FieldProduct])
	salesperson, ok := odoo.RelName(lead[model.FieldOwner])
	if !ok {
		salesperson = "our team"
	}

	var subject, body, from string
	if bad != "" {
		outcome.Variant = VariantApology
		subject, body = RenderApology(outcome.Lead, bad)
		from = apology.EmailFrom
	} else {
		outcome.Variant = VariantWelcome
		subject, body = RenderWelcome(outcome.Lead, product, salesperson)
		from = welcome.EmailFrom
	}
	if from == "" {
		from = companyEmail
	}

	mailIDs, err := rc.Create(ctx, "mail.mail", []odoo.Record{{
		"subject":     subject,
		"body_html":   body,
		"email_to":    lead.Str(model.FieldEmail),
		"email_from":  from,
		"model":       "crm.lead",
		"res_id":      outcome.LeadID,
		"auto_delete": false, // keep the record so the state stays readable
	}})
	if err != nil || len(mailIDs) == 0 {
		outcome.Reason = fmt.Sprintf("create mail: %v", err)
		return outcome
	}

	if err := rc.Exec(ctx, "mail.mail", "send", mailIDs); err != nil {
		outcome.Reason = fmt.Sprintf("send mail: %v", err)
		return outcome
	}

	states, err := rc.Read(ctx, "mail.mail", mailIDs, []string{"state"})
	if err != nil {
		outcome.Reason = fmt.Sprintf("read mail state: %v", err)
		return outcome
	}
	state := "unknown"
	if len(states) > 0 {
		if s := states[0].Str("state"); s != "" {
			state = s
		}
	}
	outcome.State = state

	if _, confirmed := confirmedStates[state]; !confirmed {
		outcome.Reason = "state=" + state
		return outcome
	}

	if err := rc.Write(ctx, "crm.lead", []int64{outcome.LeadID}, odoo.Record{model.FieldEmailSent: true}); err != nil {
		outcome.Reason = fmt.Sprintf("update sent flag: %v", err)
		return outcome
	}

	outcome.Sent = true
	return outcome
}
