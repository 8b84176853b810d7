package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/internal/model"
	"github.com/sells-group/leadflow-cli/internal/pipeline"
	"github.com/sells-group/leadflow-cli/internal/store"
	anthropicpkg "github.com/sells-group/leadflow-cli/pkg/anthropic"
	"github.com/sells-group/leadflow-cli/pkg/odoo"
)

func initOdoo() (odoo.Client, error) {
	if cfg.Odoo.Database == "" || cfg.Odoo.Username == "" {
		return nil, eris.New("odoo credentials are required (LEADFLOW_ODOO_DATABASE, LEADFLOW_ODOO_USERNAME, LEADFLOW_ODOO_PASSWORD)")
	}

	var opts []odoo.ClientOption
	if cfg.Odoo.RateLimit > 0 {
		opts = append(opts, odoo.WithRateLimit(cfg.Odoo.RateLimit))
	}
	return odoo.NewClient(odoo.Config{
		URL:      cfg.Odoo.URL,
		Database: cfg.Odoo.Database,
		Username: cfg.Odoo.Username,
		Password: cfg.Odoo.Password,
		Timeout:  time.Duration(cfg.Odoo.TimeoutSecs) * time.Second,
	}, opts...), nil
}

func initMatcher() *pipeline.ProductMatcher {
	return pipeline.NewProductMatcher(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
}

// initLedger opens and migrates the run-ledger store. The ledger is an
// audit aid: failures are logged and the run proceeds without one.
func initLedger(ctx context.Context) store.Store {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leadflow.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		err = eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		zap.L().Warn("run ledger unavailable", zap.Error(err))
		return nil
	}
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("run ledger migration failed", zap.Error(err))
		st.Close()
		return nil
	}
	return st
}

func saveRun(ctx context.Context, st store.Store, run model.Run) {
	if st == nil {
		return
	}
	if err := st.SaveRun(ctx, run); err != nil {
		zap.L().Warn("run ledger write failed", zap.Error(err))
	}
}

func closeLedger(st store.Store) {
	if st != nil {
		st.Close()
	}
}
