package visits

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"field_visits/internal/domain"
	"field_visits/internal/model"
	"field_visits/internal/service/export"

	"go.uber.org/zap"
)

var (
	ErrNoData      = errors.New("no data found for given filters")
	ErrInvalidDate = errors.New("invalid date")
)

// Форматы даты, которые присылают формы: RFC3339 из JSON и значение datetime-local.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

type Service struct {
	repo   domain.VisitRepo
	loc    *time.Location
	logger *zap.Logger
	onSave func()
}

// NewService создает сервис. loc используется для значений без зоны и для выгрузки.
func NewService(repo domain.VisitRepo, loc *time.Location, logger *zap.Logger) *Service {
	return &Service{repo: repo, loc: loc, logger: logger, onSave: func() {}}
}

// OnCustomerSaved вызывается после каждой успешной вставки Customer.
func (s *Service) OnCustomerSaved(fn func()) {
	s.onSave = fn
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// ParseVisitTime разбирает время визита. Пустая строка дает nil.
// Результат приводится к UTC.
func (s *Service) ParseVisitTime(raw string) (*time.Time, error) {
	t, _, err := s.parse(raw)
	return t, err
}

// ParseFilter разбирает параметры выгрузки. Если endDate задан без времени,
// граница включает весь этот день.
func (s *Service) ParseFilter(startDate, endDate, name string) (model.VisitFilter, error) {
	var (
		filter = model.VisitFilter{Name: strings.TrimSpace(name)}
		err    error
	)

	if filter.From, _, err = s.parse(startDate); err != nil {
		return filter, fmt.Errorf("startDate: %w", err)
	}

	to, dateOnly, err := s.parse(endDate)
	if err != nil {
		return filter, fmt.Errorf("endDate: %w", err)
	}
	if to != nil && dateOnly {
		end := to.AddDate(0, 0, 1).Add(-time.Millisecond)
		to = &end
	}
	filter.To = to

	return filter, nil
}

func (s *Service) parse(raw string) (*time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, s.loc); err == nil {
			t = t.UTC()
			return &t, false, nil
		}
	}
	if t, err := time.ParseInLocation(dateLayout, raw, s.loc); err == nil {
		t = t.UTC()
		return &t, true, nil
	}
	return nil, false, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

func (s *Service) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	if err := s.repo.InsertCustomer(ctx, customer); err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	s.logger.Info("customer saved", zap.String("name", customer.Name))
	s.onSave()
	return nil
}

func (s *Service) CreatePartnerVisit(ctx context.Context, visit *model.PartnerVisit) error {
	if err := s.repo.InsertPartnerVisit(ctx, visit); err != nil {
		return fmt.Errorf("insert partner visit: %w", err)
	}
	s.logger.Info("partner visit saved", zap.String("employee", visit.EmployeeName))
	return nil
}

// CustomerSheet лист выгрузки RealFincorp в зоне сервиса.
func (s *Service) CustomerSheet() export.Sheet[model.Customer] {
	return export.CustomerSheet(s.loc)
}

func (s *Service) PartnerVisitSheet() export.Sheet[model.PartnerVisit] {
	return export.PartnerVisitSheet(s.loc)
}

// FindCustomers возвращает ErrNoData, если по фильтру ничего нет.
func (s *Service) FindCustomers(ctx context.Context, filter model.VisitFilter) ([]model.Customer, error) {
	customers, err := s.repo.FindCustomers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find customers: %w", err)
	}
	if len(customers) == 0 {
		return nil, ErrNoData
	}
	return customers, nil
}

func (s *Service) FindPartnerVisits(ctx context.Context, filter model.VisitFilter) ([]model.PartnerVisit, error) {
	visits, err := s.repo.FindPartnerVisits(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find partner visits: %w", err)
	}
	if len(visits) == 0 {
		return nil, ErrNoData
	}
	return visits, nil
}

// ExportCustomers пишет книгу с визитами RealFincorp в w.
func (s *Service) ExportCustomers(ctx context.Context, filter model.VisitFilter, w io.Writer) error {
	customers, err := s.FindCustomers(ctx, filter)
	if err != nil {
		return err
	}
	return s.CustomerSheet().Write(w, customers)
}

func (s *Service) ExportPartnerVisits(ctx context.Context, filter model.VisitFilter, w io.Writer) error {
	visits, err := s.FindPartnerVisits(ctx, filter)
	if err != nil {
		return err
	}
	return s.PartnerVisitSheet().Write(w, visits)
}
