package postgres

import (
	"context"
	"strings"

	"field_visits/internal/model"

	"gorm.io/gorm"
)

type VisitRepository struct {
	DB *gorm.DB
}

func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{DB: db}
}

// Migrate создает таблицы обеих форм.
func (r *VisitRepository) Migrate() error {
	return r.DB.AutoMigrate(&model.Customer{}, &model.PartnerVisit{})
}

func (r *VisitRepository) InsertCustomer(ctx context.Context, customer *model.Customer) error {
	return r.DB.WithContext(ctx).Create(customer).Error
}

func (r *VisitRepository) FindCustomers(ctx context.Context, filter model.VisitFilter) ([]model.Customer, error) {
	var customers []model.Customer
	err := applyFilter(r.DB.WithContext(ctx), filter, "name").
		Order("id").
		Find(&customers).Error
	return customers, err
}

// Получение всех визитов с SheetIsSynced=false
func (r *VisitRepository) GetUnsyncedCustomers(ctx context.Context) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.DB.WithContext(ctx).Where("sheet_is_synced = ?", false).Order("id").Find(&customers).Error
	return customers, err
}

func (r *VisitRepository) MarkCustomerSynced(ctx context.Context, customer model.Customer) error {
	return r.DB.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ?", customer.ID).
		Update("sheet_is_synced", true).Error
}

func (r *VisitRepository) InsertPartnerVisit(ctx context.Context, visit *model.PartnerVisit) error {
	return r.DB.WithContext(ctx).Create(visit).Error
}

func (r *VisitRepository) FindPartnerVisits(ctx context.Context, filter model.VisitFilter) ([]model.PartnerVisit, error) {
	var visits []model.PartnerVisit
	err := applyFilter(r.DB.WithContext(ctx), filter, "employee_name").
		Order("id").
		Find(&visits).Error
	return visits, err
}

func (r *VisitRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *VisitRepository) Close(context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// applyFilter ограничивает время визита и ищет подстроку в nameColumn без учета регистра.
// LOWER + LIKE работает одинаково в postgres и sqlite.
func applyFilter(db *gorm.DB, filter model.VisitFilter, nameColumn string) *gorm.DB {
	if filter.From != nil {
		db = db.Where("visiting_date_time >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		db = db.Where("visiting_date_time <= ?", filter.To.UTC())
	}
	if filter.Name != "" {
		db = db.Where("LOWER("+nameColumn+") LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(filter.Name))+"%")
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
