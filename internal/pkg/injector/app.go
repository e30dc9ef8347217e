package injector

import (
	"context"

	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/conf"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/workerpool"
	"github.com/Tanvin-Ahmed/file-management-server/internal/server"
)

// App holds the long-running parts of the process
type App struct {
	Config     *conf.Config
	Logger     *logger.Logger
	HTTPServer *server.HTTPServer
	GRPCServer *server.GRPCServer
	Reconciler *biz.Reconciler
	Pool       *workerpool.Pool
}

func newApp(
	config *conf.Config,
	log *logger.Logger,
	httpServer *server.HTTPServer,
	grpcServer *server.GRPCServer,
	reconciler *biz.Reconciler,
	pool *workerpool.Pool,
) *App {
	return &App{
		Config:     config,
		Logger:     log,
		HTTPServer: httpServer,
		GRPCServer: grpcServer,
		Reconciler: reconciler,
		Pool:       pool,
	}
}

// Shutdown stops servers first, then the sweep and its pool. Stores are
// closed by the cleanup func returned from InitializeApp.
func (a *App) Shutdown(ctx context.Context) {
	a.GRPCServer.Stop()

	if err := a.HTTPServer.Stop(ctx); err != nil {
		a.Logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	if err := a.Reconciler.Stop(ctx); err != nil {
		a.Logger.Warn("reconciliation sweep did not stop in time", zap.Error(err))
	}
	a.Pool.Shutdown()
}
