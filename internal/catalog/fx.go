package catalog

import (
	catalogdomain "github.com/megasio/payadmin/internal/catalog/domain"
	"github.com/megasio/payadmin/internal/catalog/service"
	"github.com/megasio/payadmin/internal/gateway"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(func(client *gateway.Client) catalogdomain.Gateway { return client }),
	fx.Provide(service.New),
)
