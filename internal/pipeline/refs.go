package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/pkg/odoo"
)

// RefResolver resolves auxiliary reference records (campaign, medium,
// source, country, state, product) by display name, caching results for
// the duration of one run.
type RefResolver struct {
	rc     odoo.Client
	ids    map[string]int64
	misses map[string]struct{}
}

// NewRefResolver creates a resolver bound to one repository session.
func NewRefResolver(rc odoo.Client) *RefResolver {
	return &RefResolver{
		rc:     rc,
		ids:    make(map[string]int64),
		misses: make(map[string]struct{}),
	}
}

func refKey(model, name string) string {
	return model + "\x00" + name
}

// EnsureByName returns the id of name within the model, creating the
// record on first use when absent. Used for utm.campaign, utm.medium and
// utm.source.
func (r *RefResolver) EnsureByName(ctx context.Context, model, name string) (int64, error) {
	key := refKey(model, name)
	if id, ok := r.ids[key]; ok {
		return id, nil
	}

	recs, err := r.rc.SearchRead(ctx, model, odoo.Domain{odoo.Cond("name", "=", name)}, []string{"id"}, 1)
	if err != nil {
		return 0, eris.Wrapf(err, "refs: lookup %s %q", model, name)
	}
	if len(recs) > 0 {
		id := recs[0].ID()
		r.ids[key] = id
		return id, nil
	}

	created, err := r.rc.Create(ctx, model, []odoo.Record{{"name": name}})
	if err != nil {
		return 0, eris.Wrapf(err, "refs: create %s %q", model, name)
	}
	if len(created) == 0 {
		return 0, eris.Errorf("refs: create %s %q returned no id", model, name)
	}
	zap.L().Info("created reference record",
		zap.String("model", model),
		zap.String("name", name),
		zap.Int64("id", created[0]),
	)
	r.ids[key] = created[0]
	return created[0], nil
}

// LookupByName returns the id of name within the model, ok=false when no
// such record exists. Never creates; used for res.country and
// res.country.state.
func (r *RefResolver) LookupByName(ctx context.Context, model, name string) (int64, bool, error) {
	key := refKey(model, name)
	if id, ok := r.ids[key]; ok {
		return id, true, nil
	}
	if _, missed := r.misses[key]; missed {
		return 0, false, nil
	}

	recs, err := r.rc.SearchRead(ctx, model, odoo.Domain{odoo.Cond("name", "=", name)}, []string{"id"}, 1)
	if err != nil {
		return 0, false, eris.Wrapf(err, "refs: lookup %s %q", model, name)
	}
	if len(recs) == 0 {
		r.misses[key] = struct{}{}
		return 0, false, nil
	}

	id := recs[0].ID()
	r.ids[key] = id
	return id, true, nil
}

// ProductIDByName resolves a corrected catalogue name to its live
// product id. ok=false when the name no longer resolves (catalogue
// staleness between snapshot and resolution).
func (r *RefResolver) ProductIDByName(ctx context.Context, name string) (int64, bool, error) {
	return r.LookupByName(ctx, "product.product", name)
}

// FetchCatalogue pulls the names of all currently sellable products.
// The snapshot is taken once per run and never re-fetched.
func FetchCatalogue(ctx context.Context, rc odoo.Client) ([]string, error) {
	recs, err := rc.SearchRead(ctx, "product.product",
		odoo.Domain{odoo.Cond("sale_ok", "=", true)}, []string{"name"}, 0)
	if err != nil {
		return nil, eris.Wrap(err, "refs: fetch catalogue")
	}
	names := make([]string, 0, len(recs))
	for _, rec := range recs {
		if name := rec.Str("name"); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// LookupDefaults resolves the pipeline-stamped stage and team ids by
// name. Missing records are tolerated; the matching field is simply
// omitted from the import payload.
func LookupDefaults(ctx context.Context, rc odoo.Client, stageName, teamName string) (stageID, teamID int64, err error) {
	stageIDs, err := rc.Search(ctx, "crm.stage", odoo.Domain{
		odoo.Cond("name", "=", stageName),
		odoo.Cond("team_id.name", "=", teamName),
	}, 1)
	if err != nil {
		return 0, 0, eris.Wrap(err, "refs: lookup stage")
	}
	teamIDs, err := rc.Search(ctx, "crm.team", odoo.Domain{odoo.Cond("name", "=", teamName)}, 1)
	if err != nil {
		return 0, 0, eris.Wrap(err, "refs: lookup team")
	}
	if len(stageIDs) > 0 {
		stageID = stageIDs[0]
	}
	if len(teamIDs) > 0 {
		teamID = teamIDs[0]
	}
	return stageID, teamID, nil
}
