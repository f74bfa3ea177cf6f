package repository

import (
	"github.com/invora/invora/internal/domain/contact"
	"github.com/invora/invora/internal/domain/customer"
	"github.com/invora/invora/internal/domain/invoice"
	"github.com/invora/invora/internal/domain/payment"
	"github.com/invora/invora/internal/domain/plan"
	"github.com/invora/invora/internal/domain/preferences"
	"github.com/invora/invora/internal/domain/store"
	"github.com/invora/invora/internal/domain/subscription"
	syncdomain "github.com/invora/invora/internal/domain/sync"
	"github.com/invora/invora/internal/logger"
	"github.com/invora/invora/internal/postgres"
	postgresRepo "github.com/invora/invora/internal/repository/postgres"
)

func NewStoreRepository(db *postgres.DB, logger *logger.Logger) store.Repository {
	return postgresRepo.NewStoreRepository(db, logger)
}

func NewContactRepository(db *postgres.DB, logger *logger.Logger) contact.Repository {
	return postgresRepo.NewContactRepository(db, logger)
}

func NewCustomerRepository(db *postgres.DB, logger *logger.Logger) customer.Repository {
	return postgresRepo.NewCustomerRepository(db, logger)
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewPlanRepository(db *postgres.DB, logger *logger.Logger) plan.Repository {
	return postgresRepo.NewPlanRepository(db, logger)
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewPreferencesRepository(db *postgres.DB, logger *logger.Logger) preferences.Repository {
	return postgresRepo.NewPreferencesRepository(db, logger)
}

func NewSyncRepository(db *postgres.DB, logger *logger.Logger) syncdomain.Repository {
	return postgresRepo.NewSyncRepository(db, logger)
}

func NewPaymentEventRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentEventRepository(db, logger)
}
