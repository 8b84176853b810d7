// Package pipeline implements the lead import, ownership routing, and
// notification stages against an Odoo CRM.
package pipeline

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/pkg/odoo"
)

// nameSynonyms are headers that can feed the mandatory name field.
var nameSynonyms = map[string]struct{}{
	"name":          {},
	"full name":     {},
	"customer name": {},
	"client name":   {},
	"opportunity":   {},
}

// labelOverrides supplement the live field labels with spellings that
// fields_get does not expose.
var labelOverrides = map[string]string{
	"email":       model.FieldEmail,
	"e-mail":      model.FieldEmail,
	"phone":       "phone",
	"mobile":      "mobile",
	"campaign":    model.FieldCampaign,
	"medium":      model.FieldMedium,
	"source":      model.FieldSource,
	"lead source": model.FieldSource,
	"referred by": "referred",
	"country":     model.FieldCountry,
	"state":       model.FieldState,
}

// fieldSynonyms maps canonical fields to free-form header spellings,
// matched after alphanumeric-only normalization.
var fieldSynonyms = map[string][]string{
	model.FieldEmail:    {"email", "e-mail", "mail", "email address", "email id"},
	"phone":             {"phone", "telephone", "tel", "contact number"},
	"mobile":            {"mobile", "mobile number", "cell", "cellphone"},
	"street":            {"address", "street", "addr"},
	"city":              {"city", "town"},
	"zip":               {"zip", "zipcode", "postal code"},
	model.FieldCountry:  {"country", "nation"},
	model.FieldState:    {"state", "province", "region"},
	model.FieldCampaign: {"campaign"},
	model.FieldMedium:   {"medium"},
	model.FieldSource:   {"source", "lead source", "traffic source", "leadsource"},
	"referred":          {"referred", "referrer", "referral"},
	model.FieldProduct:  {"product", "product name", "sku"},
}

var synonymLookup = buildSynonymLookup()

func buildSynonymLookup() map[string]string {
	lookup := make(map[string]string)
	for field, words := range fieldSynonyms {
		for _, w := range words {
			lookup[normalizeKey(w)] = field
		}
	}
	for w := range nameSynonyms {
		lookup[normalizeKey(w)] = model.FieldName
	}
	return lookup
}

var nonAlnum = regexp.MustCompile(`[^0-9A-Za-z]+`)

// normalizeKey lowercases and strips everything but ascii letters and digits.
func normalizeKey(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "")
}

var diacriticFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// slugify derives a schema-safe identifier from a free-form header:
// diacritics folded away, non-alphanumeric runs collapsed to underscores.
func slugify(s string) string {
	folded, _, err := transform.String(diacriticFold, s)
	if err != nil {
		folded = s
	}
	ascii := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, folded)
	return strings.ToLower(strings.Trim(nonAlnum.ReplaceAllString(ascii, "_"), "_"))
}

// FieldCache is run-local header-resolution state: the lazily resolved
// crm.lead model id and the set of fields already verified to exist.
type FieldCache struct {
	rc          odoo.Client
	leadModelID int64
	seen        map[string]struct{}
}

// NewFieldCache creates an empty cache bound to one repository session.
func NewFieldCache(rc odoo.Client) *FieldCache {
	return &FieldCache{rc: rc, seen: make(map[string]struct{})}
}

// EnsureField guarantees a custom char field exists on crm.lead,
// creating it when absent. Check-before-create; each name is verified at
// most once per run.
func (c *FieldCache) EnsureField(ctx context.Context, name, label string) error {
	if _, ok := c.seen[name]; ok {
		return nil
	}

	if c.leadModelID == 0 {
		ids, err := c.rc.Search(ctx, "ir.model", odoo.Domain{odoo.Cond("model", "=", "crm.lead")}, 1)
		if err != nil {
			return eris.Wrap(err, "header: resolve crm.lead model id")
		}
		if len(ids) == 0 {
			return eris.New("header: crm.lead model not found")
		}
		c.leadModelID = ids[0]
	}

	existing, err := c.rc.Search(ctx, "ir.model.fields", odoo.Domain{
		odoo.Cond("model", "=", "crm.lead"),
		odoo.Cond("name", "=", name),
	}, 0)
	if err != nil {
		return eris.Wrapf(err, "header: check field %s", name)
	}
	if len(existing) == 0 {
		zap.L().Info("creating custom field", zap.String("field", name), zap.String("label", label))
		if _, err := c.rc.Create(ctx, "ir.model.fields", []odoo.Record{{
			"name":              name,
			"field_description": label,
			"ttype":             "char",
			"state":             "manual",
			"model_id":          c.leadModelID,
		}}); err != nil {
			return eris.Wrapf(err, "header: create field %s", name)
		}
	}

	c.seen[name] = struct{}{}
	return nil
}

// importFields are custom fields the enrichment stage writes without a
// matching CSV column. They must exist before the bulk create or the
// whole batch fails on the first row that carries one.
var importFields = []struct{ name, label string }{
	{model.FieldProduct, "Matched product"},
	{model.FieldBadProduct, "Original bad product"},
}

// EnsureImportFields registers the enrichment-owned custom fields on
// crm.lead. Called once at the start of an import run.
func EnsureImportFields(ctx context.Context, cache *FieldCache) error {
	for _, f := range importFields {
		if err := cache.EnsureField(ctx, f.name, f.label); err != nil {
			return err
		}
	}
	return nil
}

// ResolveHeaders maps raw CSV headers onto canonical crm.lead field names.
// Per header, first match wins: the designated name column, a live field
// name, a live field label, a synonym, and finally a derived custom field
// that is registered in the schema before use. Columns whose header
// yields no usable field name are dropped. Fails when no header can feed
// the mandatory name field.
func ResolveHeaders(ctx context.Context, headers []string, meta map[string]odoo.FieldMeta, cache *FieldCache) (model.ColumnMapping, error) {
	tech := make(map[string]struct{}, len(meta))
	labels := make(map[string]string, len(meta))
	for name, fm := range meta {
		tech[name] = struct{}{}
		if l := strings.ToLower(strings.TrimSpace(fm.Label)); l != "" {
			labels[l] = name
		}
	}
	for l, f := range labelOverrides {
		labels[l] = f
	}

	nameHeader := ""
	for _, h := range headers {
		if _, ok := nameSynonyms[strings.ToLower(strings.TrimSpace(h))]; ok {
			nameHeader = h
			break
		}
	}
	if nameHeader == "" {
		return model.ColumnMapping{}, eris.New(`header: no column can feed mandatory field "name"`)
	}

	var mapping model.ColumnMapping
	for _, hdr := range headers {
		rawKey := strings.ToLower(strings.TrimSpace(hdr))

		var canonical string
		switch {
		case hdr == nameHeader:
			canonical = model.FieldName
		case contains(tech, rawKey):
			canonical = rawKey
		case labels[rawKey] != "":
			canonical = labels[rawKey]
		case synonymLookup[normalizeKey(rawKey)] != "":
			canonical = synonymLookup[normalizeKey(rawKey)]
		default:
			slug := slugify(hdr)
			if slug == "" {
				// Nothing to derive a field name from. Registering the
				// bare x_ prefix would collide across such columns.
				zap.L().Warn("dropping column, header has no usable characters", zap.String("header", hdr))
				break
			}
			key := slug
			if !contains(tech, slug) {
				key = "x_" + slug
			}
			if !contains(tech, key) {
				if err := cache.EnsureField(ctx, key, hdr); err != nil {
					return model.ColumnMapping{}, err
				}
				tech[key] = struct{}{}
			}
			canonical = key
		}

		mapping.Headers = append(mapping.Headers, model.MappedHeader{Raw: hdr, Canonical: canonical})
	}

	zap.L().Debug("column map resolved", zap.Int("columns", len(mapping.Headers)))
	return mapping, nil
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
