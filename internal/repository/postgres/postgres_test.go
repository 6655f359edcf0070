package postgres

import (
	"context"
	"testing"
	"time"

	"field_visits/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *VisitRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// одна in-memory база на все соединения пула
	sqlDB.SetMaxOpenConns(1)

	repo := NewVisitRepository(db)
	require.NoError(t, repo.Migrate())
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	return repo
}

func at(day, hour int) *time.Time {
	t := time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func seedCustomers(t *testing.T, repo *VisitRepository) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []model.Customer{
		{Name: "Ravi Kumar", VisitingDateTime: at(1, 9)},
		{Name: "ABCD Traders", VisitingDateTime: at(15, 12)},
		{Name: "xyzabc", VisitingDateTime: at(31, 18)},
		{Name: "Priya", VisitingDateTime: at(31, 23)},
		{Name: "100%_agent"},
	} {
		c := c
		require.NoError(t, repo.InsertCustomer(ctx, &c))
	}
}

func names(customers []model.Customer) []string {
	out := make([]string, 0, len(customers))
	for _, c := range customers {
		out = append(out, c.Name)
	}
	return out
}

func TestFindCustomers_NoFilter(t *testing.T) {
	repo := newTestRepo(t)
	seedCustomers(t, repo)

	got, err := repo.FindCustomers(context.Background(), model.VisitFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ravi Kumar", "ABCD Traders", "xyzabc", "Priya", "100%_agent"}, names(got))
}

func TestFindCustomers_NameCaseInsensitiveSubstring(t *testing.T) {
	repo := newTestRepo(t)
	seedCustomers(t, repo)

	got, err := repo.FindCustomers(context.Background(), model.VisitFilter{Name: "abc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ABCD Traders", "xyzabc"}, names(got))
}

func TestFindCustomers_NameWildcardsAreLiteral(t *testing.T) {
	repo := newTestRepo(t)
	seedCustomers(t, repo)

	got, err := repo.FindCustomers(context.Background(), model.VisitFilter{Name: "%_"})
	require.NoError(t, err)
	assert.Equal(t, []string{"100%_agent"}, names(got))
}

func TestFindCustomers_DateRangeInclusive(t *testing.T) {
	repo := newTestRepo(t)
	seedCustomers(t, repo)

	got, err := repo.FindCustomers(context.Background(), model.VisitFilter{From: at(1, 9), To: at(31, 18)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ravi Kumar", "ABCD Traders", "xyzabc"}, names(got))

	got, err = repo.FindCustomers(context.Background(), model.VisitFilter{From: at(15, 0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"ABCD Traders", "xyzabc", "Priya"}, names(got))
}

func TestSheetSyncFlags(t *testing.T) {
	repo := newTestRepo(t)
	seedCustomers(t, repo)
	ctx := context.Background()

	unsynced, err := repo.GetUnsyncedCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 5)

	require.NoError(t, repo.MarkCustomerSynced(ctx, unsynced[0]))

	unsynced, err = repo.GetUnsyncedCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, unsynced, 4)
	assert.Equal(t, "ABCD Traders", unsynced[0].Name)
}

func TestPartnerVisits_FilterByEmployeeName(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.InsertPartnerVisit(ctx, &model.PartnerVisit{EmployeeName: "Sunil", CustomerName: "abc"}))
	require.NoError(t, repo.InsertPartnerVisit(ctx, &model.PartnerVisit{EmployeeName: "Anil", CustomerName: "x"}))

	got, err := repo.FindPartnerVisits(ctx, model.VisitFilter{Name: "NIL"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.FindPartnerVisits(ctx, model.VisitFilter{Name: "sun"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "abc", got[0].CustomerName)
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
