package core

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/docgate/docgate/internals/assert"
	"github.com/docgate/docgate/internals/conf"
	"github.com/docgate/docgate/internals/dispatch"
	"github.com/docgate/docgate/internals/docstore"
	"github.com/docgate/docgate/internals/env"
	"github.com/docgate/docgate/internals/rbac"
	"github.com/docgate/docgate/internals/tools"
)

type BaseServer struct {
	Config     *conf.Config
	Env        *env.EnvStruct
	Logger     *slog.Logger
	Audit      *zap.Logger
	Gate       *rbac.Gate
	Store      docstore.Store
	Registry   *tools.Registry
	Dispatcher *dispatch.Dispatcher
	Streamer   *dispatch.Streamer

	logFile *os.File
}

func New() *BaseServer {
	env := env.Get()
	config := conf.GetConfig()
	logger, logFile := InitLogger(config)

	audit, err := NewAuditLogger(filepath.Join(config.Server.DataDir, "audit.log"))
	assert.AssertNil(err, "[CORE] Failed to open audit log")

	base, err := Assemble(context.Background(), config, env, logger, audit)
	assert.AssertNil(err, "[CORE] Failed to initialize server")
	base.logFile = logFile
	return base
}

// Assemble wires the policy gate, document store, tool registry and
// dispatcher for config.
func Assemble(ctx context.Context, config *conf.Config, env *env.EnvStruct, logger *slog.Logger, audit *zap.Logger) (*BaseServer, error) {
	if err := rbac.EnsureDefaults(config.RBAC.ModelPath, config.RBAC.PolicyPath); err != nil {
		return nil, err
	}
	gate, err := rbac.New(rbac.Config{ModelPath: config.RBAC.ModelPath, PolicyPath: config.RBAC.PolicyPath, Logger: logger})
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	registry, err := tools.NewDocumentRegistry(store, gate)
	if err != nil {
		store.Close()
		return nil, err
	}

	dispatcher := dispatch.New(dispatch.Config{
		Registry: registry,
		Gate:     gate,
		Logger:   logger,
		Audit:    AuditSink(audit),
	})

	return &BaseServer{
		Config:     config,
		Env:        env,
		Logger:     logger,
		Audit:      audit,
		Gate:       gate,
		Store:      store,
		Registry:   registry,
		Dispatcher: dispatcher,
		Streamer:   dispatch.NewStreamer(dispatcher, config.PollInterval()),
	}, nil
}

// Close waits for running tasks and releases the store and log files.
func (b *BaseServer) Close() error {
	b.Dispatcher.Wait()
	errs := []error{b.Store.Close()}
	_ = b.Audit.Sync()
	if b.logFile != nil {
		errs = append(errs, b.logFile.Close())
	}
	return errors.Join(errs...)
}
