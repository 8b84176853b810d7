package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/leadflow-cli/pkg/anthropic"
	"github.com/sells-group/leadflow-cli/pkg/odoo"
)

// --- Odoo Mock ---

type mockOdooClient struct {
	mock.Mock
}

func (m *mockOdooClient) Search(ctx context.Context, model string, domain odoo.Domain, limit int) ([]int64, error) {
	args := m.Called(ctx, model, domain, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockOdooClient) SearchRead(ctx context.Context, model string, domain odoo.Domain, fields []string, limit int) ([]odoo.Record, error) {
	args := m.Called(ctx, model, domain, fields, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]odoo.Record), args.Error(1)
}

func (m *mockOdooClient) Read(ctx context.Context, model string, ids []int64, fields []string) ([]odoo.Record, error) {
	args := m.Called(ctx, model, ids, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]odoo.Record), args.Error(1)
}

func (m *mockOdooClient) Create(ctx context.Context, model string, values []odoo.Record) ([]int64, error) {
	args := m.Called(ctx, model, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockOdooClient) Write(ctx context.Context, model string, ids []int64, values odoo.Record) error {
	args := m.Called(ctx, model, ids, values)
	return args.Error(0)
}

func (m *mockOdooClient) FieldsGet(ctx context.Context, model string, attributes []string) (map[string]odoo.FieldMeta, error) {
	args := m.Called(ctx, model, attributes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]odoo.FieldMeta), args.Error(1)
}

func (m *mockOdooClient) Exec(ctx context.Context, model, method string, ids []int64) error {
	args := m.Called(ctx, model, method, ids)
	return args.Error(0)
}

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// textResponse builds a single-block oracle reply.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

// --- Matcher Mock ---

type mockMatcher struct {
	mock.Mock
}

func (m *mockMatcher) Match(ctx context.Context, raw string, catalogue []string) (string, bool) {
	args := m.Called(ctx, raw, catalogue)
	return args.String(0), args.Bool(1)
}
