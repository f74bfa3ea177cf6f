package payload

import "github.com/invora/invora/internal/service"

// Services container for all services needed by payload builders
type Services struct {
	CustomerService     service.CustomerService
	InvoiceService      service.InvoiceService
	SubscriptionService service.SubscriptionService
}

// NewServices creates a new Services container
func NewServices(
	customerService service.CustomerService,
	invoiceService service.InvoiceService,
	subscriptionService service.SubscriptionService,
) *Services {
	return &Services{
		CustomerService:     customerService,
		InvoiceService:      invoiceService,
		SubscriptionService: subscriptionService,
	}
}
