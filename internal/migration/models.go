package migration

import (
	methoddomain "github.com/megasio/payadmin/internal/paymentmethod/domain"
	settlementdomain "github.com/megasio/payadmin/internal/settlement/domain"
)

func allModels() []any {
	return []any{
		&methoddomain.PaymentMethod{},
		&settlementdomain.User{},
		&settlementdomain.SettlementRequest{},
	}
}
