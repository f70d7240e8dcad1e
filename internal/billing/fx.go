package billing

import (
	"github.com/merchflow/merchflow/internal/billing/repository"
	"github.com/merchflow/merchflow/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
