package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
	"hostel-backend/internal/period"
)

func TestTargetMonth(t *testing.T) {
	tests := []struct {
		name      string
		today     time.Time
		month     int
		year      int
		wantMonth time.Month
		wantYear  int
	}{
		{"defaults to next month", day(2024, time.March, 10), 0, 0, time.April, 2024},
		{"rolls over the year", day(2024, time.December, 5), 0, 0, time.January, 2025},
		{"explicit month this year", day(2024, time.March, 10), 7, 0, time.July, 2024},
		{"explicit month and year", day(2024, time.March, 10), 2, 2026, time.February, 2026},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, y := TargetMonth(tt.today, tt.month, tt.year)
			assert.Equal(t, tt.wantMonth, m)
			assert.Equal(t, tt.wantYear, y)
		})
	}
}

func TestCreateRentDefaultsToNextPeriod(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 1))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)

	rec, err := f.rentService().Create(context.Background(), f.adminID, &models.CreateRentRequest{TenantID: tenant.ID, Notes: "first"})
	require.NoError(t, err)
	assert.True(t, rec.DueDate.Equal(day(2024, time.February, 15)))
	assert.True(t, rec.Amount.Equal(money(5000)))
	assert.Equal(t, models.RentStatusPending, rec.Status)
	assert.Equal(t, "first", rec.Notes)

	next, err := f.rentService().Create(context.Background(), f.adminID, &models.CreateRentRequest{TenantID: tenant.ID})
	require.NoError(t, err)
	assert.True(t, next.DueDate.Equal(day(2024, time.March, 15)))
}

func TestCreateRentRejectsDuplicatePeriod(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 1))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	svc := f.rentService()

	_, err := svc.Create(context.Background(), f.adminID, &models.CreateRentRequest{TenantID: tenant.ID, DueDate: "2024-02-15"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), f.adminID, &models.CreateRentRequest{TenantID: tenant.ID, DueDate: "2024-02-20"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrDuplicatePeriod))
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Len(t, f.rents.forTenant(tenant.ID), 1)
}

func TestStoreRejectsDuplicatePeriod(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 1))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	f.record(tenant, day(2024, time.February, 15), 5000, 0)

	key, err := period.Identify(period.Monthly, day(2024, time.February, 28))
	require.NoError(t, err)
	dup := newRentRecord(tenant, key, day(2024, time.February, 28), money(5000), models.RentStatusPending, f.clock.Now())
	err = f.rents.Create(context.Background(), dup)
	assert.ErrorIs(t, err, apperr.ErrDuplicatePeriod)
}

func TestCreateRentValidation(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 1))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	roomless := f.tenant("Roomless", nil, day(2024, time.January, 15), period.Monthly)
	svc := f.rentService()

	tests := []struct {
		name string
		req  *models.CreateRentRequest
		want error
	}{
		{"missing tenant", &models.CreateRentRequest{}, apperr.ErrValidation},
		{"unknown tenant", &models.CreateRentRequest{TenantID: uuid.New()}, apperr.ErrNotFound},
		{"bad date", &models.CreateRentRequest{TenantID: tenant.ID, DueDate: "15/02/2024"}, apperr.ErrValidation},
		{"negative amount", &models.CreateRentRequest{TenantID: tenant.ID, Amount: moneyPtr(-5)}, apperr.ErrValidation},
		{"no room no amount", &models.CreateRentRequest{TenantID: roomless.ID}, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), f.adminID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateRentForRoomlessTenantWithAmount(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 1))
	tenant := f.tenant("Roomless", nil, day(2024, time.January, 15), period.Monthly)

	rec, err := f.rentService().Create(context.Background(), f.adminID, &models.CreateRentRequest{TenantID: tenant.ID, Amount: moneyPtr(4200)})
	require.NoError(t, err)
	assert.True(t, rec.Amount.Equal(money(4200)))
	assert.Nil(t, rec.RoomID)
}

func TestUpdateRentAmountCannotDropBelowPaid(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 20))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	rec := f.record(tenant, day(2024, time.February, 15), 5000, 3000)
	svc := f.rentService()

	_, err := svc.Update(context.Background(), f.adminID, rec.ID, &models.UpdateRentRequest{Amount: moneyPtr(2500)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := svc.Update(context.Background(), f.adminID, rec.ID, &models.UpdateRentRequest{Amount: moneyPtr(3000)})
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	assert.Equal(t, models.RentStatusPaid, got.Status)
	assert.NotNil(t, got.PaymentDate)
}

func TestUpdateRentDueDateMovesPeriod(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 20))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	rec := f.record(tenant, day(2024, time.March, 15), 5000, 0)
	notes := "moved"

	got, err := f.rentService().Update(context.Background(), f.adminID, rec.ID, &models.UpdateRentRequest{DueDate: "2024-02-10", Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Month)
	assert.Equal(t, models.RentStatusOverdue, got.Status)
	assert.Equal(t, "moved", got.Notes)
}

func TestListRentsPaginates(t *testing.T) {
	f := newFixture(clockAt(2024, time.June, 1))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	for m := time.February; m <= time.May; m++ {
		f.record(tenant, day(2024, m, 15), 5000, 5000)
	}
	svc := f.rentService()

	page, err := svc.List(context.Background(), f.adminID, models.RentFilter{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	require.Len(t, page.Records, 1)
	assert.Equal(t, 2, page.Records[0].Month)

	page, err = svc.List(context.Background(), f.adminID, models.RentFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, maxPageSize, page.Limit)
	assert.Len(t, page.Records, 4)
}

func TestDeleteRent(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 20))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	rec := f.record(tenant, day(2024, time.February, 15), 5000, 0)
	svc := f.rentService()

	require.NoError(t, svc.Delete(context.Background(), f.adminID, rec.ID))
	_, err := svc.Get(context.Background(), f.adminID, rec.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateAutoReportsPerItem(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 1))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)

	res := f.rentService().CreateAuto(context.Background(), f.adminID, &models.AutoCreateRequest{Records: []models.CreateRentRequest{
		{TenantID: tenant.ID, DueDate: "2024-02-15"},
		{TenantID: tenant.ID, DueDate: "2024-02-16"},
		{TenantID: uuid.New()},
		{TenantID: tenant.ID, DueDate: "2024-03-15"},
	}})
	assert.Len(t, res.Created, 2)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.Equal(t, 2, res.Errors[1].Index)
}

func TestUpcomingRents(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 10))
	room := f.room("101", 3, 5000)
	soon := f.tenant("Soon", room, day(2024, time.January, 15), period.Monthly)
	later := f.tenant("Later", room, day(2024, time.January, 25), period.Monthly)
	paid := f.tenant("Paid", room, day(2024, time.January, 12), period.Monthly)
	f.record(soon, day(2024, time.February, 15), 5000, 0)
	f.record(later, day(2024, time.February, 25), 5000, 0)
	f.record(paid, day(2024, time.February, 12), 5000, 5000)

	entries, err := f.rentService().Upcoming(context.Background(), f.adminID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, soon.ID, entries[0].TenantID)
	assert.Equal(t, 5, entries[0].DaysUntilDue)
}

func TestOverdueIsCached(t *testing.T) {
	f := newFixture(clockAt(2024, time.March, 1))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	f.record(tenant, day(2024, time.February, 15), 5000, 0)
	svc := f.rentService()

	report, err := svc.Overdue(context.Background(), f.adminID)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)

	cached, ok := f.cache.GetOverdue(context.Background(), f.adminID)
	require.True(t, ok)
	assert.Len(t, cached, 1)

	// a payment invalidates the cached report
	_, err = svc.Pay(context.Background(), f.adminID, *report.Entries[0].RentID, &models.PayRentRequest{})
	require.NoError(t, err)
	_, ok = f.cache.GetOverdue(context.Background(), f.adminID)
	assert.False(t, ok)
}

func TestGenerateMonthly(t *testing.T) {
	f := newFixture(clockAt(2024, time.March, 10))
	room := f.room("101", 4, 5000)
	asha := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	late := f.tenant("Late", room, day(2024, time.April, 20), period.Monthly)
	f.tenant("Weekly", room, day(2024, time.January, 15), period.Weekly)
	svc := f.rentService()

	res, err := svc.GenerateMonthly(context.Background(), f.adminID, &models.GenerateMonthlyRequest{})
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.Equal(t, asha.ID, res.Created[0].TenantID)
	assert.True(t, res.Created[0].DueDate.Equal(day(2024, time.April, 15)))
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, f.rents.forTenant(late.ID))

	again, err := svc.GenerateMonthly(context.Background(), f.adminID, &models.GenerateMonthlyRequest{Month: 4, Year: 2024})
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Equal(t, 2, again.Skipped)
}
