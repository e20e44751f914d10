package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docgate/docgate/internals/conf"
	"github.com/docgate/docgate/internals/docstore"
	"github.com/docgate/docgate/internals/docstore/filestore"
	"github.com/docgate/docgate/internals/docstore/sqlstore"
)

func OpenStore(ctx context.Context, config *conf.Config, logger *slog.Logger) (docstore.Store, error) {
	switch config.Documents.Backend {
	case conf.BackendFile:
		return filestore.New(config.Documents.Dir, logger)
	case conf.BackendSQLite:
		return sqlstore.Open(ctx, sqlstore.Config{Dialect: sqlstore.DialectSQLite, DSN: config.Documents.DSN, Logger: logger})
	case conf.BackendPostgres:
		if config.Documents.DSN == "" {
			return nil, fmt.Errorf("documents.dsn is required for the postgres backend")
		}
		return sqlstore.Open(ctx, sqlstore.Config{Dialect: sqlstore.DialectPostgres, DSN: config.Documents.DSN, Logger: logger})
	}
	return nil, fmt.Errorf("unknown documents backend %q", config.Documents.Backend)
}
