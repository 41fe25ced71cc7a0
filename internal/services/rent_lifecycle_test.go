package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel-backend/internal/models"
	"hostel-backend/internal/period"
)

func TestGenerateDueRecordsOpensFirstPeriod(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 15))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)

	res, err := f.lifecycle().GenerateDueRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, JobGenerateDue, res.Job)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Created)
	assert.Empty(t, res.Errors)

	recs := f.rents.forTenant(tenant.ID)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.True(t, rec.DueDate.Equal(day(2024, time.February, 15)))
	assert.Equal(t, models.RentStatusPending, rec.Status)
	assert.True(t, rec.Amount.Equal(money(5000)))
	assert.Equal(t, 2, rec.Month)
	assert.Equal(t, 2024, rec.Year)
	assert.Equal(t, "Asha", rec.TenantName)
	assert.Equal(t, "101", rec.RoomNumber)
}

func TestGenerateDueRecordsWaitsForDueDate(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 14))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)

	res, err := f.lifecycle().GenerateDueRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Empty(t, f.rents.forTenant(tenant.ID))
}

func TestGenerateDueRecordsBlockedByUnpaidPeriod(t *testing.T) {
	f := newFixture(clockAt(2024, time.April, 20))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	f.record(tenant, day(2024, time.February, 15), 5000, 2000)

	res, err := f.lifecycle().GenerateDueRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Len(t, f.rents.forTenant(tenant.ID), 1)
}

func TestGenerateDueRecordsIsIdempotent(t *testing.T) {
	f := newFixture(clockAt(2024, time.March, 16))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	f.record(tenant, day(2024, time.February, 15), 5000, 5000)

	svc := f.lifecycle()
	first, err := svc.GenerateDueRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := svc.GenerateDueRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)

	recs := f.rents.forTenant(tenant.ID)
	require.Len(t, recs, 2)
	assert.True(t, recs[1].DueDate.Equal(day(2024, time.March, 15)))
}

func TestGenerateDueRecordsIsolatesTenantFailures(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 15))
	room := f.room("101", 3, 5000)
	broken := f.tenant("Broken", room, day(2024, time.January, 15), period.Monthly)
	healthy := f.tenant("Healthy", room, day(2024, time.January, 15), period.Monthly)
	f.rents.latestErr[broken.ID] = errStoreDown

	res, err := f.lifecycle().GenerateDueRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, broken.ID, *res.Errors[0].TenantID)
	assert.Len(t, f.rents.forTenant(healthy.ID), 1)
}

func TestGenerateDueRecordsSkipsTenantsWithoutRoom(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 15))
	f.tenant("Roomless", nil, day(2024, time.January, 15), period.Monthly)

	res, err := f.lifecycle().GenerateDueRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
}

func TestGenerateDueRecordsFailsWhenTenantListFails(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 15))
	f.tenants.listErr = errStoreDown

	_, err := f.lifecycle().GenerateDueRecords(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}

func TestRefreshOverdueStatuses(t *testing.T) {
	f := newFixture(clockAt(2024, time.January, 20))
	room := f.room("101", 2, 1000)
	tenant := f.tenant("Ravi", room, day(2023, time.December, 28), period.Weekly)
	late := f.record(tenant, day(2024, time.January, 4), 1000, 0)
	current := f.record(tenant, day(2024, time.January, 20), 1000, 0)
	f.cache.SetOverdue(context.Background(), f.adminID, []models.OverdueEntry{{}})

	res, err := f.lifecycle().RefreshOverdueStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Updated)

	got, err := f.rents.Get(context.Background(), f.adminID, late.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentStatusOverdue, got.Status)

	got, err = f.rents.Get(context.Background(), f.adminID, current.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentStatusPending, got.Status)

	_, cached := f.cache.GetOverdue(context.Background(), f.adminID)
	assert.False(t, cached)
}

func TestBackfillCreatesMissedPeriods(t *testing.T) {
	f := newFixture(clockAt(2024, time.May, 20))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	f.record(tenant, day(2024, time.February, 15), 5000, 5000)

	svc := f.lifecycle()
	res, err := svc.BackfillMissingRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)

	recs := f.rents.forTenant(tenant.ID)
	require.Len(t, recs, 4)
	for i, want := range []time.Time{day(2024, time.March, 15), day(2024, time.April, 15), day(2024, time.May, 15)} {
		assert.True(t, recs[i+1].DueDate.Equal(want), "record %d due %s", i+1, recs[i+1].DueDate)
		assert.Equal(t, models.RentStatusOverdue, recs[i+1].Status)
	}

	again, err := svc.BackfillMissingRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
}

func TestBackfillCatchesUpOverSeveralRuns(t *testing.T) {
	f := newFixture(clockAt(2025, time.June, 30))
	room := f.room("D1", 4, 300)
	tenant := f.tenant("Daily", room, day(2023, time.December, 31), period.Daily)
	f.record(tenant, day(2024, time.January, 1), 300, 300)

	svc := f.lifecycle()
	var created []int
	for i := 0; i < 3; i++ {
		res, err := svc.BackfillMissingRecords(context.Background())
		require.NoError(t, err)
		created = append(created, res.Created)
	}
	// 2024-01-02 through 2025-06-30 is 546 days
	assert.Equal(t, []int{maxBackfillPeriods, 146, 0}, created)

	recs := f.rents.forTenant(tenant.ID)
	require.Len(t, recs, 547)
	last := recs[len(recs)-1]
	assert.True(t, last.DueDate.Equal(day(2025, time.June, 30)), "latest due %s", last.DueDate)
	assert.Equal(t, models.RentStatusPending, last.Status)
	assert.Equal(t, models.RentStatusOverdue, recs[len(recs)-2].Status)
}

func TestBackfillCreatesTodaysPeriodAsPending(t *testing.T) {
	f := newFixture(clockAt(2024, time.January, 3))
	room := f.room("D1", 4, 300)
	tenant := f.tenant("Daily", room, day(2023, time.December, 31), period.Daily)
	f.record(tenant, day(2024, time.January, 1), 300, 300)

	res, err := f.lifecycle().BackfillMissingRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	recs := f.rents.forTenant(tenant.ID)
	require.Len(t, recs, 3)
	assert.Equal(t, models.RentStatusOverdue, recs[1].Status)
	assert.Equal(t, "2024-01-02", recs[1].PeriodDate)
	assert.Equal(t, models.RentStatusPending, recs[2].Status)
	assert.Equal(t, "2024-01-03", recs[2].PeriodDate)
}

func TestBackfillNeedsAPaidRecord(t *testing.T) {
	f := newFixture(clockAt(2024, time.May, 20))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)

	res, err := f.lifecycle().BackfillMissingRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Empty(t, f.rents.forTenant(tenant.ID))
}

func TestRunAllRunsEveryJob(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 15))
	room := f.room("101", 2, 5000)
	f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)

	results := f.lifecycle().RunAll(context.Background())
	require.Len(t, results, 3)
	assert.Equal(t, JobRefreshOverdue, results[0].Job)
	assert.Equal(t, JobGenerateDue, results[1].Job)
	assert.Equal(t, JobBackfill, results[2].Job)
	assert.Equal(t, 1, results[1].Created)
}

func TestEnsureReusesRecordFromConcurrentWriter(t *testing.T) {
	f := newFixture(clockAt(2024, time.February, 15))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	due := day(2024, time.February, 15)

	var winner *models.RentRecord
	f.rents.beforeCreate = func(*models.RentRecord) {
		winner = f.record(tenant, due, 5000, 0)
	}

	gen := &rentGenerator{rents: f.rents}
	rec, created, err := gen.ensure(context.Background(), tenant, period.Monthly, due, models.RentStatusPending, "test", f.clock.Now())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner.ID, rec.ID)
	assert.Len(t, f.rents.forTenant(tenant.ID), 1)
}
