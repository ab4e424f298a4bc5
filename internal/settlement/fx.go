package settlement

import (
	"github.com/megasio/payadmin/internal/gateway"
	settlementdomain "github.com/megasio/payadmin/internal/settlement/domain"
	"github.com/megasio/payadmin/internal/settlement/repository"
	"github.com/megasio/payadmin/internal/settlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settlement.service",
	fx.Provide(func(client *gateway.Client) settlementdomain.Gateway { return client }),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
