package paymentmethod

import (
	"github.com/megasio/payadmin/internal/paymentmethod/repository"
	"github.com/megasio/payadmin/internal/paymentmethod/service"
	"go.uber.org/fx"
)

var Module = fx.Module("paymentmethod.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
