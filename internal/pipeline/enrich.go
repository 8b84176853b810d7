package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/pkg/odoo"
)

// Matcher is the product-correction oracle contract used by enrichment.
type Matcher interface {
	Match(ctx context.Context, raw string, catalogue []string) (string, bool)
}

// Bucket groups complete rows sharing one raw product-name string.
// Bucketing guarantees the matcher runs once per distinct raw name.
type Bucket struct {
	Raw  string
	Rows []model.Row
}

// BucketByProduct groups rows by their trimmed raw product value in
// first-seen order.
func BucketByProduct(rows []model.Row) []Bucket {
	var buckets []Bucket
	index := make(map[string]int)
	for _, row := range rows {
		raw := row.Get(model.FieldProduct)
		i, ok := index[raw]
		if !ok {
			i = len(buckets)
			index[raw] = i
			buckets = append(buckets, Bucket{Raw: raw})
		}
		buckets[i].Rows = append(buckets[i].Rows, row)
	}
	return buckets
}

// referenceModels maps lead fields to the model their value is
// resolved-or-created in.
var referenceModels = []struct {
	field string
	model string
}{
	{model.FieldCampaign, "utm.campaign"},
	{model.FieldMedium, "utm.medium"},
	{model.FieldSource, "utm.source"},
}

// lookupOnlyModels maps lead fields to models that are looked up but
// never created; an unresolved value drops the field from the payload.
var lookupOnlyModels = []struct {
	field string
	model string
}{
	{model.FieldCountry, "res.country"},
	{model.FieldState, "res.country.state"},
}

// Enrich turns bucketed rows into import payloads: product correction
// fanned out per bucket, reference resolution per row, pipeline defaults
// stamped last. Repository failures abort; matcher failures degrade to
// the bad-product marker.
func Enrich(ctx context.Context, buckets []Bucket, catalogue []string, m Matcher, refs *RefResolver, defaults model.Defaults) ([]odoo.Record, error) {
	var payloads []odoo.Record

	for _, bucket := range buckets {
		productID, err := resolveBucketProduct(ctx, bucket.Raw, catalogue, m, refs)
		if err != nil {
			return nil, err
		}

		for _, row := range bucket.Rows {
			rec := make(odoo.Record, len(row)+4)
			for field, value := range row {
				rec[field] = value
			}

			switch {
			case bucket.Raw == "":
				// No product of interest: neither a product nor a bad marker.
				delete(rec, model.FieldProduct)
			case productID != 0:
				rec[model.FieldProduct] = productID
				delete(rec, model.FieldBadProduct)
			default:
				delete(rec, model.FieldProduct)
				rec[model.FieldBadProduct] = bucket.Raw
			}

			if err := resolveRowReferences(ctx, rec, row, refs); err != nil {
				return nil, err
			}

			if defaults.StageID != 0 {
				rec[model.FieldStage] = defaults.StageID
			}
			if defaults.TeamID != 0 {
				rec[model.FieldTeam] = defaults.TeamID
			}
			rec[model.FieldType] = "opportunity"
			rec[model.FieldOwner] = false // deferred to ownership routing

			payloads = append(payloads, rec)
		}
	}

	return payloads, nil
}

// resolveBucketProduct runs the matcher once for the bucket and resolves
// the corrected name to a live product id. Returns 0 for the bad-product
// case.
func resolveBucketProduct(ctx context.Context, raw string, catalogue []string, m Matcher, refs *RefResolver) (int64, error) {
	if raw == "" {
		return 0, nil
	}

	fixed, ok := m.Match(ctx, raw, catalogue)
	if !ok {
		zap.L().Info("no close product match", zap.String("raw", raw))
		return 0, nil
	}

	id, found, err := refs.ProductIDByName(ctx, fixed)
	if err != nil {
		return 0, err
	}
	if !found {
		// Matched name vanished between snapshot and resolution.
		zap.L().Warn("matched product has no live id",
			zap.String("raw", raw),
			zap.String("matched", fixed),
		)
		return 0, nil
	}

	zap.L().Info("product corrected",
		zap.String("raw", raw),
		zap.String("matched", fixed),
		zap.Int64("product_id", id),
	)
	return id, nil
}

func resolveRowReferences(ctx context.Context, rec odoo.Record, row model.Row, refs *RefResolver) error {
	for _, ref := range referenceModels {
		name := row.Get(ref.field)
		if name == "" {
			continue
		}
		id, err := refs.EnsureByName(ctx, ref.model, name)
		if err != nil {
			return err
		}
		rec[ref.field] = id
	}

	for _, ref := range lookupOnlyModels {
		name := row.Get(ref.field)
		if name == "" {
			continue
		}
		id, found, err := refs.LookupByName(ctx, ref.model, name)
		if err != nil {
			return err
		}
		if !found {
			// Lookup-only references fail soft: drop the field, keep the row.
			delete(rec, ref.field)
			continue
		}
		rec[ref.field] = id
	}

	return nil
}
