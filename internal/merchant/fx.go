package merchant

import (
	"github.com/merchflow/merchflow/internal/merchant/repository"
	"github.com/merchflow/merchflow/internal/merchant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("merchant.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
