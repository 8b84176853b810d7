package pipeline

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/pkg/odoo"
)

// DefaultRoutingTable maps lead-source names to salesperson logins.
var DefaultRoutingTable = map[string]string{
	"instagram":  "ankit@example.com",
	"facebook":   "ankit@example.com",
	"linkedin":   "jayesh@example.com",
	"twitter":    "sujal@example.com",
	"website":    "sujal@example.com",
	"conference": "shalini@example.com",
	"event":      "shalini@example.com",
	"cold call":  "jayesh@example.com",
	"webinar":    "shalini@example.com",
	"referral":   "jayesh@example.com",
}

// LoadRoutingTable reads a yaml source→login mapping from path. An empty
// path yields the built-in table. Source names are matched
// case-insensitively.
func LoadRoutingTable(path string) (map[string]string, error) {
	if path == "" {
		return DefaultRoutingTable, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "router: read routing table")
	}
	var parsed map[string]string
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, eris.Wrap(err, "router: parse routing table")
	}

	table := make(map[string]string, len(parsed))
	for source, login := range parsed {
		table[strings.ToLower(strings.TrimSpace(source))] = login
	}
	return table, nil
}

// AssignResult tallies one ownership-routing pass.
type AssignResult struct {
	Assigned int
	Skipped  int
}

// AssignOwners gives every unowned lead a salesperson from the routing
// table. Leads with an unmapped source or a missing owner account are
// skipped with a logged reason. Idempotent: only unowned leads are
// selected, so a second pass assigns nothing new.
func AssignOwners(ctx context.Context, rc odoo.Client, table map[string]string) (AssignResult, error) {
	unowned, err := rc.SearchRead(ctx, "crm.lead",
		odoo.Domain{odoo.Or, odoo.Cond(model.FieldOwner, "=", false), odoo.Cond(model.FieldOwner, "=", nil)},
		[]string{"id", "name", model.FieldSource}, 0)
	if err != nil {
		return AssignResult{}, eris.Wrap(err, "router: fetch unowned leads")
	}

	var result AssignResult
	for _, lead := range unowned {
		source, _ := odoo.RelName(lead[model.FieldSource])
		source = strings.ToLower(strings.TrimSpace(source))

		login, ok := table[source]
		if !ok {
			zap.L().Info("skip lead: no routing for source",
				zap.String("lead", lead.Str("name")),
				zap.String("source", source),
			)
			result.Skipped++
			continue
		}

		userIDs, err := rc.Search(ctx, "res.users", odoo.Domain{odoo.Cond("login", "=", login)}, 1)
		if err != nil {
			zap.L().Warn("skip lead: owner lookup failed",
				zap.String("lead", lead.Str("name")),
				zap.String("login", login),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}
		if len(userIDs) == 0 {
			zap.L().Info("skip lead: owner account missing",
				zap.String("lead", lead.Str("name")),
				zap.String("login", login),
			)
			result.Skipped++
			continue
		}

		if err := rc.Write(ctx, "crm.lead", []int64{lead.ID()}, odoo.Record{model.FieldOwner: userIDs[0]}); err != nil {
			zap.L().Warn("skip lead: owner write failed",
				zap.String("lead", lead.Str("name")),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}

		zap.L().Info("lead assigned",
			zap.String("lead", lead.Str("name")),
			zap.String("login", login),
		)
		result.Assigned++
	}

	return result, nil
}
