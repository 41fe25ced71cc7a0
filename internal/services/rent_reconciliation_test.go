package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel-backend/internal/models"
	"hostel-backend/internal/period"
	"hostel-backend/internal/timeutil"
)

func TestReconcileTenantWithoutRecords(t *testing.T) {
	f := newFixture(clockAt(2024, time.April, 20))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)

	state, err := f.engine().ReconcileTenant(context.Background(), tenant, timeutil.Today(f.clock))
	require.NoError(t, err)
	assert.Nil(t, state.Latest)
	assert.True(t, state.CalculationStart.Equal(day(2024, time.February, 15)))
	assert.True(t, state.MostRecentDue.Equal(day(2024, time.April, 15)))
	require.NotNil(t, state.Missing)
	assert.Equal(t, 5, state.Missing.DaysOverdue)
	assert.Equal(t, 4, state.Missing.Period.Month)
	assert.True(t, state.Missing.Amount.Equal(money(5000)))
}

func TestReconcileTenantDoesNotAdvancePastUnpaid(t *testing.T) {
	f := newFixture(clockAt(2024, time.January, 20))
	room := f.room("W1", 2, 1000)
	tenant := f.tenant("Ravi", room, day(2023, time.December, 28), period.Weekly)
	unpaid := f.record(tenant, day(2024, time.January, 4), 1000, 0)

	state, err := f.engine().ReconcileTenant(context.Background(), tenant, timeutil.Today(f.clock))
	require.NoError(t, err)
	require.NotNil(t, state.Latest)
	assert.Equal(t, unpaid.ID, state.Latest.ID)
	assert.True(t, state.CalculationStart.Equal(unpaid.DueDate))
}

func TestReconcileTenantAfterPaidRecord(t *testing.T) {
	f := newFixture(clockAt(2024, time.March, 15))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	f.record(tenant, day(2024, time.February, 15), 5000, 5000)

	state, err := f.engine().ReconcileTenant(context.Background(), tenant, timeutil.Today(f.clock))
	require.NoError(t, err)
	assert.True(t, state.CalculationStart.Equal(day(2024, time.March, 15)))
	assert.True(t, state.MostRecentDue.Equal(day(2024, time.March, 15)))
	// due today is not yet missing
	assert.Nil(t, state.Missing)
}

func TestReconcileTenantNothingDueYet(t *testing.T) {
	f := newFixture(clockAt(2024, time.January, 20))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)

	state, err := f.engine().ReconcileTenant(context.Background(), tenant, timeutil.Today(f.clock))
	require.NoError(t, err)
	assert.True(t, state.MostRecentDue.IsZero())
	assert.Nil(t, state.Missing)
}

func TestOverdueReportsRecordsAndMissingPeriods(t *testing.T) {
	f := newFixture(clockAt(2024, time.January, 20))
	room := f.room("W1", 3, 1000)
	weekly := f.tenant("Ravi", room, day(2023, time.December, 28), period.Weekly)
	late := f.record(weekly, day(2024, time.January, 4), 1000, 0)
	monthly := f.tenant("Asha", room, day(2023, time.December, 10), period.Monthly)

	report, err := f.engine().Overdue(context.Background(), f.adminID)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	require.Len(t, report.Entries, 3)

	first := report.Entries[0]
	require.NotNil(t, first.RentID)
	assert.Equal(t, late.ID, *first.RentID)
	assert.Equal(t, 16, first.DaysOverdue)
	assert.Equal(t, models.RentStatusOverdue, first.Status)
	assert.False(t, first.Missing)

	second := report.Entries[1]
	assert.True(t, second.Missing)
	assert.Equal(t, monthly.ID, second.TenantID)
	assert.Equal(t, 10, second.DaysOverdue)

	third := report.Entries[2]
	assert.True(t, third.Missing)
	assert.Equal(t, weekly.ID, third.TenantID)
	assert.True(t, third.DueDate.Equal(day(2024, time.January, 18)))
	assert.Equal(t, 2, third.DaysOverdue)
}

func TestOverdueKeepsPartiallyPaidStatus(t *testing.T) {
	f := newFixture(clockAt(2024, time.March, 1))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	f.record(tenant, day(2024, time.February, 15), 5000, 1000)

	report, err := f.engine().Overdue(context.Background(), f.adminID)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, models.RentStatusPartiallyPaid, report.Entries[0].Status)
	assert.Equal(t, 15, report.Entries[0].DaysOverdue)
}

func TestOverdueIsolatesTenantFailures(t *testing.T) {
	f := newFixture(clockAt(2024, time.March, 1))
	room := f.room("101", 3, 5000)
	broken := f.tenant("Broken", room, day(2024, time.January, 15), period.Monthly)
	f.tenant("Fine", room, day(2024, time.January, 15), period.Monthly)
	f.rents.latestErr[broken.ID] = errStoreDown

	report, err := f.engine().Overdue(context.Background(), f.adminID)
	require.NoError(t, err)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, broken.ID, *report.Errors[0].TenantID)
	require.Len(t, report.Entries, 1)
	assert.True(t, report.Entries[0].Missing)
}

func TestOverdueIgnoresOtherAdmins(t *testing.T) {
	f := newFixture(clockAt(2024, time.March, 1))
	room := f.room("101", 2, 5000)
	tenant := f.tenant("Asha", room, day(2024, time.January, 15), period.Monthly)
	f.record(tenant, day(2024, time.February, 15), 5000, 0)

	report, err := f.engine().Overdue(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, report.Entries)
}
