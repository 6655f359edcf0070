package domain

import (
	"context"

	"field_visits/internal/model"
)

type SheetService interface {
	AppendCustomer(ctx context.Context, customer model.Customer) error
}
