package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"field_visits/internal/model"
)

// VisitRepository хранит визиты в памяти процесса. Используется для локального запуска (memory://) и в тестах.
type VisitRepository struct {
	mu        sync.RWMutex
	customers []model.Customer
	partners  []model.PartnerVisit
	nextID    uint
}

func NewVisitRepository() *VisitRepository {
	return &VisitRepository{}
}

func (r *VisitRepository) InsertCustomer(_ context.Context, customer *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	customer.ID = r.nextID
	customer.CreatedAt = time.Now().UTC()
	customer.DocumentID = fmt.Sprint(customer.ID)
	r.customers = append(r.customers, *customer)
	return nil
}

func (r *VisitRepository) FindCustomers(_ context.Context, filter model.VisitFilter) ([]model.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Customer
	for _, c := range r.customers {
		if matches(filter, c.VisitingDateTime, c.Name) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *VisitRepository) GetUnsyncedCustomers(context.Context) ([]model.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Customer
	for _, c := range r.customers {
		if !c.SheetIsSynced {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *VisitRepository) MarkCustomerSynced(_ context.Context, customer model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.customers {
		if r.customers[i].ID == customer.ID {
			r.customers[i].SheetIsSynced = true
			return nil
		}
	}
	return fmt.Errorf("customer %d not found", customer.ID)
}

func (r *VisitRepository) InsertPartnerVisit(_ context.Context, visit *model.PartnerVisit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	visit.ID = r.nextID
	visit.CreatedAt = time.Now().UTC()
	r.partners = append(r.partners, *visit)
	return nil
}

func (r *VisitRepository) FindPartnerVisits(_ context.Context, filter model.VisitFilter) ([]model.PartnerVisit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.PartnerVisit
	for _, v := range r.partners {
		if matches(filter, v.VisitingDateTime, v.EmployeeName) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *VisitRepository) Ping(context.Context) error  { return nil }
func (r *VisitRepository) Close(context.Context) error { return nil }

func matches(filter model.VisitFilter, at *time.Time, name string) bool {
	if filter.From != nil || filter.To != nil {
		if at == nil {
			return false
		}
		if filter.From != nil && at.Before(*filter.From) {
			return false
		}
		if filter.To != nil && at.After(*filter.To) {
			return false
		}
	}
	if filter.Name != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(filter.Name)) {
		return false
	}
	return true
}
