//go:build wireinject
// +build wireinject

package injector

import (
	"github.com/google/wire"

	"github.com/Tanvin-Ahmed/file-management-server/internal/conf"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
)

// InitializeApp builds the application graph
func InitializeApp(config *conf.Config, log *logger.Logger) (*App, func(), error) {
	panic(wire.Build(ProviderSet))
}
