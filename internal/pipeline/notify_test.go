package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/pkg/odoo"
)

var (
	welcomeTpl = model.Template{ID: 1, Name: "Welcome Email", EmailFrom: "sales@example.com"}
	apologyTpl = model.Template{ID: 2, Name: "Apology Email", EmailFrom: "support@example.com"}
)

func pendingDomain() odoo.Domain {
	return odoo.Domain{
		odoo.Cond(model.FieldEmailSent, "=", false),
		odoo.Cond(model.FieldEmail, "!=", false),
	}
}

func goodLead(id float64, name string) odoo.Record {
	return odoo.Record{
		"id":                  id,
		"name":                name,
		model.FieldEmail:      name + "@example.com",
		model.FieldProduct:    []any{float64(31), "Soap"},
		model.FieldBadProduct: false,
		model.FieldOwner:      []any{float64(42), "Ankit"},
	}
}

func TestNotify_WelcomeSentAndFlagged(t *testing.T) {
	ctx := context.Background()
	rc := &mockOdooClient{}
	rc.On("SearchRead", mock.Anything, "crm.lead", pendingDomain(), mock.Anything, 0).
		Return([]odoo.Record{goodLead(1, "ada")}, nil).Once()
	rc.On("Create", mock.Anything, "mail.mail", mock.MatchedBy(func(values []odoo.Record) bool {
		return len(values) == 1 &&
			values[0]["email_to"] == "ada@example.com" &&
			values[0]["email_from"] == "sales@example.com" &&
			values[0]["res_id"] == int64(1)
	})).Return([]int64{900}, nil).Once()
	rc.On("Exec", mock.Anything, "mail.mail", "send", []int64{900}).Return(nil).Once()
	rc.On("Read", mock.Anything, "mail.mail", []int64{900}, []string{"state"}).
		Return([]odoo.Record{{"id": float64(900), "state": "sent"}}, nil).Once()
	rc.On("Write", mock.Anything, "crm.lead", []int64{1},
		odoo.Record{model.FieldEmailSent: true}).Return(nil).Once()

	result, outcomes, err := Notify(ctx, rc, welcomeTpl, apologyTpl, "company@example.com")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Sent)
	assert.Equal(t, VariantWelcome, outcomes[0].Variant)
	rc.AssertExpectations(t)
}

func TestNotify_BadProductGetsApologyVariant(t *testing.T) {
	ctx := context.Background()
	lead := goodLead(1, "ada")
	lead[model.FieldProduct] = false
	lead[model.FieldBadProduct] = "Xyzzycorp-Widget"

	rc := &mockOdooClient{}
	rc.On("SearchRead", mock.Anything, "crm.lead", mock.Anything, mock.Anything, 0).
		Return([]odoo.Record{lead}, nil).Once()
	rc.On("Create", mock.Anything, "mail.mail", mock.MatchedBy(func(values []odoo.Record) bool {
		subject, _ := values[0]["subject"].(string)
		return values[0]["email_from"] == "support@example.com" && len(subject) > 0
	})).Return([]int64{901}, nil).Once()
	rc.On("Exec", mock.Anything, "mail.mail", "send", []int64{901}).Return(nil).Once()
	rc.On("Read", mock.Anything, "mail.mail", []int64{901}, []string{"state"}).
		Return([]odoo.Record{{"state": "outgoing"}}, nil).Once()
	rc.On("Write", mock.Anything, "crm.lead", []int64{1}, mock.Anything).Return(nil).Once()

	_, outcomes, err := Notify(ctx, rc, welcomeTpl, apologyTpl, "company@example.com")

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, VariantApology, outcomes[0].Variant)
	assert.True(t, outcomes[0].Sent)
}

func TestNotify_BouncedLeavesFlagUnsetAndContinues(t *testing.T) {
	ctx := context.Background()
	rc := &mockOdooClient{}
	rc.On("SearchRead", mock.Anything, "crm.lead", mock.Anything, mock.Anything, 0).
		Return([]odoo.Record{goodLead(1, "ada"), goodLead(2, "ben")}, nil).Once()

	rc.On("Create", mock.Anything, "mail.mail", mock.MatchedBy(func(values []odoo.Record) bool {
		return values[0]["res_id"] == int64(1)
	})).Return([]int64{900}, nil).Once()
	rc.On("Exec", mock.Anything, "mail.mail", "send", []int64{900}).Return(nil).Once()
	rc.On("Read", mock.Anything, "mail.mail", []int64{900}, []string{"state"}).
		Return([]odoo.Record{{"state": "bounced"}}, nil).Once()

	rc.On("Create", mock.Anything, "mail.mail", mock.MatchedBy(func(values []odoo.Record) bool {
		return values[0]["res_id"] == int64(2)
	})).Return([]int64{901}, nil).Once()
	rc.On("Exec", mock.Anything, "mail.mail", "send", []int64{901}).Return(nil).Once()
	rc.On("Read", mock.Anything, "mail.mail", []int64{901}, []string{"state"}).
		Return([]odoo.Record{{"state": "sent"}}, nil).Once()
	rc.On("Write", mock.Anything, "crm.lead", []int64{2},
		odoo.Record{model.FieldEmailSent: true}).Return(nil).Once()

	result, outcomes, err := Notify(ctx, rc, welcomeTpl, apologyTpl, "company@example.com")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Sent)
	assert.Equal(t, "state=bounced", outcomes[0].Reason)
	assert.True(t, outcomes[1].Sent)
	// The flag is never written for the bounced lead.
	rc.AssertNotCalled(t, "Write", mock.Anything, "crm.lead", []int64{1}, mock.Anything)
}

func TestNotify_CreateFailureIsolatedPerLead(t *testing.T) {
	ctx := context.Background()
	rc := &mockOdooClient{}
	rc.On("SearchRead", mock.Anything, "crm.lead", mock.Anything, mock.Anything, 0).
		Return([]odoo.Record{goodLead(1, "ada")}, nil).Once()
	rc.On("Create", mock.Anything, "mail.mail", mock.Anything).
		Return(nil, assert.AnError).Once()

	result, outcomes, err := Notify(ctx, rc, welcomeTpl, apologyTpl, "company@example.com")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.False(t, outcomes[0].Sent)
	rc.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotify_CompanyEmailFallbackWhenTemplateHasNoSender(t *testing.T) {
	ctx := context.Background()
	blank := model.Template{ID: 1, Name: "Welcome Email"}

	rc := &mockOdooClient{}
	rc.On("SearchRead", mock.Anything, "crm.lead", mock.Anything, mock.Anything, 0).
		Return([]odoo.Record{goodLead(1, "ada")}, nil).Once()
	rc.On("Create", mock.Anything, "mail.mail", mock.MatchedBy(func(values []odoo.Record) bool {
		return values[0]["email_from"] == "company@example.com"
	})).Return([]int64{900}, nil).Once()
	rc.On("Exec", mock.Anything, "mail.mail", "send", []int64{900}).Return(nil).Once()
	rc.On("Read", mock.Anything, "mail.mail", []int64{900}, []string{"state"}).
		Return([]odoo.Record{{"state": "sent"}}, nil).Once()
	rc.On("Write", mock.Anything, "crm.lead", []int64{1}, mock.Anything).Return(nil).Once()

	_, outcomes, err := Notify(ctx, rc, blank, apologyTpl, "company@example.com")

	require.NoError(t, err)
	assert.True(t, outcomes[0].Sent)
}

func TestLoadTemplate_MissingIsFatal(t *testing.T) {
	ctx := context.Background()
	rc := &mockOdooClient{}
	rc.On("SearchRead", mock.Anything, "mail.template",
		odoo.Domain{odoo.Cond("name", "=", "Welcome Email")},
		[]string{"id", "name", "email_from"}, 1).
		Return([]odoo.Record{}, nil).Once()

	_, err := LoadTemplate(ctx, rc, "Welcome Email")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadTemplate_Found(t *testing.T) {
	ctx := context.Background()
	rc := &mockOdooClient{}
	rc.On("SearchRead", mock.Anything, "mail.template", mock.Anything, mock.Anything, 1).
		Return([]odoo.Record{{"id": float64(8), "name": "Apology Email", "email_from": "support@example.com"}}, nil).Once()

	tpl, err := LoadTemplate(ctx, rc, "Apology Email")

	require.NoError(t, err)
	assert.Equal(t, int64(8), tpl.ID)
	assert.Equal(t, "support@example.com", tpl.EmailFrom)
}

func TestCompanyEmail(t *testing.T) {
	ctx := context.Background()
	rc := &mockOdooClient{}
	rc.On("SearchRead", mock.Anything, "res.company",
		odoo.Domain{odoo.Cond("id", "=", 1)}, []string{"email"}, 1).
		Return([]odoo.Record{{"email": "company@example.com"}}, nil).Once()

	email, err := CompanyEmail(ctx, rc)

	require.NoError(t, err)
	assert.Equal(t, "company@example.com", email)
}
