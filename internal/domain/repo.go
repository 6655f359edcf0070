package domain

import (
	"context"

	"field_visits/internal/model"
)

type VisitRepo interface {
	// Вставка визита RealFincorp
	InsertCustomer(ctx context.Context, customer *model.Customer) error

	// Все визиты RealFincorp по фильтру в порядке вставки
	FindCustomers(ctx context.Context, filter model.VisitFilter) ([]model.Customer, error)

	// Визиты, которые еще не выгружены в Google Sheet
	GetUnsyncedCustomers(ctx context.Context) ([]model.Customer, error)

	// Отметка о выгрузке в Google Sheet
	MarkCustomerSynced(ctx context.Context, customer model.Customer) error

	// Вставка визита Partner
	InsertPartnerVisit(ctx context.Context, visit *model.PartnerVisit) error

	// Все визиты Partner по фильтру (имя сотрудника)
	FindPartnerVisits(ctx context.Context, filter model.VisitFilter) ([]model.PartnerVisit, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
