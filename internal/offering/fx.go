package offering

import (
	"github.com/merchflow/merchflow/internal/offering/repository"
	"github.com/merchflow/merchflow/internal/offering/service"
	"go.uber.org/fx"
)

var Module = fx.Module("offering.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
