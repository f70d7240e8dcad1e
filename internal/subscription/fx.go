package subscription

import (
	"github.com/merchflow/merchflow/internal/subscription/repository"
	"github.com/merchflow/merchflow/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
