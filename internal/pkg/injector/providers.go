package injector

import (
	"github.com/google/wire"

	"github.com/Tanvin-Ahmed/file-management-server/internal/auth"
	"github.com/Tanvin-Ahmed/file-management-server/internal/auth/middleware"
	"github.com/Tanvin-Ahmed/file-management-server/internal/conf"
	"github.com/Tanvin-Ahmed/file-management-server/internal/data"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	drivedata "github.com/Tanvin-Ahmed/file-management-server/internal/drive/data"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/service"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/redis"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/workerpool"
	"github.com/Tanvin-Ahmed/file-management-server/internal/server"
	userbiz "github.com/Tanvin-Ahmed/file-management-server/internal/user/biz"
	userdata "github.com/Tanvin-Ahmed/file-management-server/internal/user/data"
)

// ProviderSet is the Wire provider set for the whole process
var ProviderSet = wire.NewSet(
	dataProviderSet,
	repositoryProviderSet,
	useCaseProviderSet,
	serverProviderSet,
	newApp,
)

var dataProviderSet = wire.NewSet(
	data.NewData,
	data.GormDB,
	data.BlobStore,
	data.RedisClient,
	wire.Bind(new(server.HealthChecker), new(*data.Data)),
	wire.Bind(new(biz.Locker), new(*redis.Client)),
	wire.Bind(new(middleware.Evaler), new(*redis.Client)),
	provideWorkerPool,
)

var repositoryProviderSet = wire.NewSet(
	userdata.NewUserRepo,
	drivedata.NewFolderRepo,
	drivedata.NewFileRepo,
)

var useCaseProviderSet = wire.NewSet(
	provideOptions,
	provideUserUseCase,
	provideQuotaLedger,
	provideReconciler,
	biz.NewNameResolver,
	biz.NewTreeOperations,
	biz.NewFolderUseCase,
	biz.NewFileUseCase,
	biz.NewListingUseCase,
)

var serverProviderSet = wire.NewSet(
	provideJWTManager,
	service.NewDriveService,
	server.NewHTTPServer,
	server.NewGRPCServer,
)

func provideOptions(config *conf.Config) biz.Options {
	return config.Storage.Options()
}

func provideUserUseCase(repo userbiz.UserRepo, config *conf.Config) *userbiz.UserUseCase {
	return userbiz.NewUserUseCase(repo, config.Storage.MaxStoragePerUser)
}

func provideQuotaLedger(users userbiz.UserRepo, folders biz.FolderRepo, config *conf.Config, log *logger.Logger) *biz.QuotaLedger {
	return biz.NewQuotaLedger(users, folders, config.Storage.MaxStoragePerUser, log)
}

func provideWorkerPool(config *conf.Config, log *logger.Logger) (*workerpool.Pool, func(), error) {
	pool, err := workerpool.New(&config.Workers, log.Logger)
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Shutdown, nil
}

func provideReconciler(files biz.FileRepo, blobs biz.BlobStore, locker biz.Locker, pool *workerpool.Pool, config *conf.Config, log *logger.Logger) *biz.Reconciler {
	return biz.NewReconciler(files, blobs, locker, pool, config.Reconcile, log)
}

func provideJWTManager(config *conf.Config) *auth.JWTManager {
	return auth.NewJWTManager(config.Auth.JWTSecret, config.Auth.JWTIssuer)
}
