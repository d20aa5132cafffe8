package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"pos-terminal/internal/core"
)

// PostgresServices builds every core service over one connection pool.
func PostgresServices(pool *pgxpool.Pool) Services {
	return Services{
		Catalog:        core.NewCatalogService(pool),
		Customers:      core.NewCustomerService(pool),
		PaymentMethods: core.NewPaymentMethodService(pool),
		Settings:       core.NewSettingsService(pool),
		Drafts:         core.NewDraftService(pool),
		Sales:          core.NewSaleService(pool),
		Reports:        core.NewReportingService(pool),
		Operators:      core.NewOperatorService(pool),
	}
}
