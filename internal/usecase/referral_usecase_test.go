package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"dental-referral-tracker/internal/delivery/dto"
	"dental-referral-tracker/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var brt = time.FixedZone("BRT", -3*60*60)

// Wednesday 2025-03-12 15:00 local
var testNow = time.Date(2025, 3, 12, 15, 0, 0, 0, brt)

type referralFixture struct {
	gateway *fakeGateway
	audit   *fakeAudit
	clock   *testClock
	uc      ReferralUsecase
}

func newReferralFixture(t *testing.T) *referralFixture {
	t.Helper()
	gw := newFakeGateway()
	audit := &fakeAudit{}
	clock := &testClock{now: testNow}
	return &referralFixture{
		gateway: gw,
		audit:   audit,
		clock:   clock,
		uc:      NewReferralUsecase(discardLogger(), gw, audit, brt, clock.Now),
	}
}

func findReferral(snap entity.Snapshot, id int64) (entity.Referral, bool) {
	for _, r := range snap.Referrals {
		if r.ID == id {
			return r, true
		}
	}
	return entity.Referral{}, false
}

func idsOf(rows []dto.ReferralResponse) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestReferralEndToEnd(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	created, err := f.uc.Create(ctx, 1, &dto.CreateReferralRequest{PatientCode: "P1", PatientName: "Ana", DentistID: 7})
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReferralStatusUnscheduled), created.Status)
	assert.False(t, created.Paid)
	assert.Equal(t, "Dra. Beatriz", created.DentistName)
	assert.True(t, testNow.Equal(created.RegisteredAt))

	unscheduled := f.uc.ListUnscheduled(ctx, dto.UnscheduledFilter{})
	assert.Equal(t, []int64{created.ID}, idsOf(unscheduled.Referrals))
	require.NotNil(t, unscheduled.Referrals[0].PendingDays)
	assert.Equal(t, 0, *unscheduled.Referrals[0].PendingDays)
	assert.Empty(t, f.uc.ListScheduled(ctx, dto.ScheduledFilter{}).Referrals)
	payments := f.uc.ListPayments(ctx)
	assert.Empty(t, payments.Paid)
	assert.Empty(t, payments.Unpaid)

	scheduled, err := f.uc.Schedule(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReferralStatusScheduled), scheduled.Status)
	assert.Equal(t, entity.PaymentStateUnpaid, scheduled.PaymentLabel)

	assert.Empty(t, f.uc.ListUnscheduled(ctx, dto.UnscheduledFilter{}).Referrals)
	assert.Equal(t, []int64{created.ID}, idsOf(f.uc.ListScheduled(ctx, dto.ScheduledFilter{}).Referrals))
	assert.Equal(t, []int64{created.ID}, idsOf(f.uc.ListPayments(ctx).Unpaid))

	f.clock.Advance(time.Hour)
	paid, err := f.uc.RecordPayment(ctx, 1, created.ID, "2025-03")
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	assert.Equal(t, entity.PaymentStatePaid, paid.PaymentLabel)
	require.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.PaymentMonth)
	assert.Equal(t, "2025-03", *paid.PaymentMonth)
	assert.Equal(t, string(entity.ReferralStatusScheduled), paid.Status)

	payments = f.uc.ListPayments(ctx)
	assert.Equal(t, []int64{created.ID}, idsOf(payments.Paid))
	assert.Empty(t, payments.Unpaid)

	assert.Equal(t, []string{
		entity.AuditActionReferralCreate,
		entity.AuditActionReferralSchedule,
		entity.AuditActionReferralPayment,
	}, f.audit.actions())
}

func TestCreateValidation(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor int64
		req   dto.CreateReferralRequest
		field string
	}{
		{"blank code", 1, dto.CreateReferralRequest{PatientCode: "  ", PatientName: "Ana", DentistID: 7}, "patient_code"},
		{"missing name", 1, dto.CreateReferralRequest{PatientCode: "P1", DentistID: 7}, "patient_name"},
		{"missing dentist", 1, dto.CreateReferralRequest{PatientCode: "P1", PatientName: "Ana"}, "dentist_id"},
		{"unknown dentist", 1, dto.CreateReferralRequest{PatientCode: "P1", PatientName: "Ana", DentistID: 99}, "dentist_id"},
		{"unknown staff", 42, dto.CreateReferralRequest{PatientCode: "P1", PatientName: "Ana", DentistID: 7}, "registered_by_id"},
		{"immediate payment unscheduled", 1, dto.CreateReferralRequest{PatientCode: "P1", PatientName: "Ana", DentistID: 7, PaidImmediately: true}, "paid_immediately"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.uc.Create(ctx, tt.actor, &req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
	assert.Zero(t, f.gateway.creates)
}

func TestCreateWithImmediatePayment(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	created, err := f.uc.Create(ctx, 1, &dto.CreateReferralRequest{
		PatientCode:     "P2",
		PatientName:     "Bia",
		DentistID:       8,
		Status:          "scheduled",
		PaidImmediately: true,
	})
	require.NoError(t, err)

	assert.True(t, created.Paid)
	assert.True(t, created.PaidImmediately)
	assert.Equal(t, entity.PaymentStatePaidOnTheSpot, created.PaymentLabel)
	require.NotNil(t, created.PaidAt)
	assert.True(t, created.PaidAt.Equal(created.RegisteredAt))
	require.NotNil(t, created.PaymentMonth)
	assert.Equal(t, "2025-03", *created.PaymentMonth)
}

func TestCreateInsertsAtFront(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()
	f.gateway.seed(entity.Referral{ID: 1, PatientCode: "OLD", PatientName: "Old", DentistID: 7, RegisteredByID: 1, Status: entity.ReferralStatusUnscheduled, RegisteredAt: testNow.AddDate(0, 0, -3)})
	_, err := f.uc.Refresh(ctx)
	require.NoError(t, err)

	created, err := f.uc.Create(ctx, 1, &dto.CreateReferralRequest{PatientCode: "NEW", PatientName: "New", DentistID: 7})
	require.NoError(t, err)

	snap := f.uc.Snapshot()
	require.Len(t, snap.Referrals, 2)
	assert.Equal(t, created.ID, snap.Referrals[0].ID)
}

func TestCreateRacingReloadKeepsOneCopy(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()
	_, err := f.uc.Refresh(ctx)
	require.NoError(t, err)

	f.gateway.afterCreateReferral = func() {
		_, err := f.uc.Refresh(ctx)
		require.NoError(t, err)
	}
	created, err := f.uc.Create(ctx, 1, &dto.CreateReferralRequest{PatientCode: "P9", PatientName: "Davi", DentistID: 7})
	require.NoError(t, err)

	copies := 0
	for _, r := range f.uc.Snapshot().Referrals {
		if r.ID == created.ID {
			copies++
		}
	}
	assert.Equal(t, 1, copies)
	assert.Len(t, f.uc.ListUnscheduled(ctx, dto.UnscheduledFilter{}).Referrals, 1)
}

func TestViewReloadIgnoresCallerCancellation(t *testing.T) {
	f := newReferralFixture(t)
	f.gateway.seed(entity.Referral{ID: 1, PatientCode: "P1", PatientName: "Ana", DentistID: 7, RegisteredByID: 1, Status: entity.ReferralStatusUnscheduled, RegisteredAt: testNow.Add(-time.Hour)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	list := f.uc.ListUnscheduled(ctx, dto.UnscheduledFilter{})
	assert.False(t, list.Stale)
	assert.Len(t, list.Referrals, 1)
}

func TestScheduleIsIdempotent(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	created, err := f.uc.Create(ctx, 1, &dto.CreateReferralRequest{PatientCode: "P3", PatientName: "Caio", DentistID: 7, Status: "scheduled", PaidImmediately: true})
	require.NoError(t, err)

	again, err := f.uc.Schedule(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReferralStatusScheduled), again.Status)
	assert.True(t, again.PaidImmediately)
	assert.True(t, again.PaidAt.Equal(*created.PaidAt))
	assert.Zero(t, f.gateway.updates)
}

func TestScheduleMissingReferral(t *testing.T) {
	f := newReferralFixture(t)
	_, err := f.uc.Schedule(context.Background(), 1, 404)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, int64(404), nf.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordPaymentRules(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	pending, err := f.uc.Create(ctx, 1, &dto.CreateReferralRequest{PatientCode: "P4", PatientName: "Duda", DentistID: 7})
	require.NoError(t, err)

	_, err = f.uc.RecordPayment(ctx, 1, 999, "2025-03")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.uc.RecordPayment(ctx, 1, pending.ID, "  ")
	assert.ErrorIs(t, err, ErrPaymentMonthRequired)

	_, err = f.uc.RecordPayment(ctx, 1, pending.ID, "03/2025")
	assert.ErrorIs(t, err, ErrPaymentMonthInvalid)

	_, err = f.uc.RecordPayment(ctx, 1, pending.ID, "2025-03")
	assert.ErrorIs(t, err, ErrReferralNotScheduled)

	_, err = f.uc.Schedule(ctx, 1, pending.ID)
	require.NoError(t, err)

	// attributed to a different month than the payment instant
	paid, err := f.uc.RecordPayment(ctx, 1, pending.ID, "2025-02")
	require.NoError(t, err)
	assert.Equal(t, "2025-02", *paid.PaymentMonth)
	assert.True(t, testNow.Equal(*paid.PaidAt))
	assert.False(t, paid.PaidImmediately)

	_, err = f.uc.RecordPayment(ctx, 1, pending.ID, "2025-03")
	assert.ErrorIs(t, err, ErrReferralAlreadyPaid)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStoreFailureLeavesSnapshotUntouched(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	created, err := f.uc.Create(ctx, 1, &dto.CreateReferralRequest{PatientCode: "P5", PatientName: "Eva", DentistID: 7})
	require.NoError(t, err)

	boom := errors.New("connection reset")
	f.gateway.setWriteErr(boom)

	_, err = f.uc.Schedule(ctx, 1, created.ID)
	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, boom)

	err = f.uc.Delete(ctx, 1, created.ID)
	assert.ErrorIs(t, err, ErrStore)

	_, err = f.uc.Create(ctx, 1, &dto.CreateReferralRequest{PatientCode: "P6", PatientName: "Fábio", DentistID: 7})
	assert.ErrorIs(t, err, ErrStore)

	snap := f.uc.Snapshot()
	require.Len(t, snap.Referrals, 1)
	assert.Equal(t, entity.ReferralStatusUnscheduled, snap.Referrals[0].Status)
}

func TestStoreMissingRowMapsToNotFound(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	created, err := f.uc.Create(ctx, 1, &dto.CreateReferralRequest{PatientCode: "P7", PatientName: "Gil", DentistID: 7})
	require.NoError(t, err)

	// removed behind the snapshot's back
	f.gateway.mu.Lock()
	f.gateway.referrals = nil
	f.gateway.mu.Unlock()

	_, err = f.uc.Schedule(ctx, 1, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesFromEveryView(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	created, err := f.uc.Create(ctx, 1, &dto.CreateReferralRequest{PatientCode: "P8", PatientName: "Hugo", DentistID: 7, Status: "scheduled"})
	require.NoError(t, err)
	require.NoError(t, f.uc.Delete(ctx, 1, created.ID))

	_, found := findReferral(f.uc.Snapshot(), created.ID)
	assert.False(t, found)
	assert.Empty(t, f.uc.ListScheduled(ctx, dto.ScheduledFilter{}).Referrals)
	assert.Empty(t, f.uc.ListUnscheduled(ctx, dto.UnscheduledFilter{}).Referrals)
	assert.Empty(t, f.uc.ListPayments(ctx).Unpaid)

	assert.ErrorIs(t, f.uc.Delete(ctx, 1, created.ID), ErrNotFound)
}

func TestUpdateDetails(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	created, err := f.uc.Create(ctx, 1, &dto.CreateReferralRequest{PatientCode: "P9", PatientName: "Iris", DentistID: 7})
	require.NoError(t, err)

	_, err = f.uc.UpdateDetails(ctx, 1, created.ID, &dto.UpdateReferralRequest{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	unknown := int64(55)
	_, err = f.uc.UpdateDetails(ctx, 1, created.ID, &dto.UpdateReferralRequest{DentistID: &unknown})
	assert.ErrorIs(t, err, ErrValidation)

	name := "  Íris Souza "
	dentist := int64(8)
	updated, err := f.uc.UpdateDetails(ctx, 1, created.ID, &dto.UpdateReferralRequest{PatientName: &name, DentistID: &dentist})
	require.NoError(t, err)
	assert.Equal(t, "Íris Souza", updated.PatientName)
	assert.Equal(t, "Dr. Carlos", updated.DentistName)
	assert.Equal(t, "P9", updated.PatientCode)

	local, ok := findReferral(f.uc.Snapshot(), created.ID)
	require.True(t, ok)
	assert.Equal(t, int64(8), local.DentistID)
}

func TestRefreshBackfillsLegacyPayment(t *testing.T) {
	f := newReferralFixture(t)
	registered := time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC)
	f.gateway.seed(entity.Referral{ID: 5, PatientCode: "P5", PatientName: "Eva", DentistID: 7, RegisteredByID: 1, Status: entity.ReferralStatusScheduled, Paid: true, RegisteredAt: registered})

	snap, err := f.uc.Refresh(context.Background())
	require.NoError(t, err)

	r, ok := findReferral(snap, 5)
	require.True(t, ok)
	require.NotNil(t, r.PaidAt)
	assert.True(t, r.PaidAt.Equal(registered))
	require.NotNil(t, r.PaymentMonth)
	assert.Equal(t, "2025-02", *r.PaymentMonth)
}

func TestRefreshFailureRetainsSnapshot(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	f.gateway.seed(entity.Referral{ID: 1, PatientCode: "A", PatientName: "A", DentistID: 7, Status: entity.ReferralStatusUnscheduled, RegisteredAt: testNow.Add(-30 * time.Hour)})
	before, err := f.uc.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, before.Referrals, 1)

	f.gateway.setListErr(errors.New("timeout"))
	after, err := f.uc.Refresh(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSync)
	assert.Equal(t, before.Referrals, after.Referrals)

	list := f.uc.ListUnscheduled(ctx, dto.UnscheduledFilter{})
	assert.True(t, list.Stale)
	require.Len(t, list.Referrals, 1)
	assert.Equal(t, 1, *list.Referrals[0].PendingDays)
}

func TestMutationLoadsSnapshotOnFirstUse(t *testing.T) {
	f := newReferralFixture(t)
	f.gateway.setListErr(errors.New("offline"))

	_, err := f.uc.Create(context.Background(), 1, &dto.CreateReferralRequest{PatientCode: "P", PatientName: "N", DentistID: 7})
	assert.ErrorIs(t, err, ErrSync)
	assert.Zero(t, f.gateway.creates)
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	first := true
	f.gateway.afterListReferrals = func() {
		if first {
			first = false
			close(entered)
			<-release
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.uc.Refresh(ctx)
		done <- err
	}()
	<-entered

	f.gateway.seed(entity.Referral{ID: 9, PatientCode: "LATE", PatientName: "Late", DentistID: 7, Status: entity.ReferralStatusScheduled, RegisteredAt: testNow})
	f.gateway.mu.Lock()
	f.gateway.afterListReferrals = nil
	f.gateway.mu.Unlock()

	newer, err := f.uc.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, newer.Referrals, 1)

	close(release)
	require.NoError(t, <-done)

	_, found := findReferral(f.uc.Snapshot(), 9)
	assert.True(t, found, "older reload must not overwrite newer state")
}

func TestScheduledViewFilters(t *testing.T) {
	f := newReferralFixture(t)
	ctx := context.Background()

	paidAt := testNow.Add(-time.Hour)
	month := "2025-03"
	f.gateway.seed(
		entity.Referral{ID: 1, PatientCode: "AB-1", PatientName: "Ana Lima", DentistID: 7, Status: entity.ReferralStatusScheduled, RegisteredAt: testNow.Add(-2 * time.Hour)},
		entity.Referral{ID: 2, PatientCode: "CD-2", PatientName: "Bruno", DentistID: 8, Status: entity.ReferralStatusScheduled, Paid: true, PaidAt: &paidAt, PaymentMonth: &month, RegisteredAt: testNow.Add(-3 * time.Hour)},
		entity.Referral{ID: 3, PatientCode: "EF-3", PatientName: "Carla", DentistID: 8, Status: entity.ReferralStatusScheduled, Paid: true, PaidImmediately: true, PaidAt: &paidAt, PaymentMonth: &month, RegisteredAt: paidAt},
		entity.Referral{ID: 4, PatientCode: "GH-4", PatientName: "Davi", DentistID: 7, Status: entity.ReferralStatusScheduled, RegisteredAt: time.Date(2025, 1, 20, 10, 0, 0, 0, brt)},
		entity.Referral{ID: 5, PatientCode: "ana-5", PatientName: "Edu", DentistID: 7, Status: entity.ReferralStatusUnscheduled, RegisteredAt: testNow},
	)

	all := f.uc.ListScheduled(ctx, dto.ScheduledFilter{})
	assert.Equal(t, []int64{3, 1, 2, 4}, idsOf(all.Referrals))

	assert.Equal(t, []int64{1}, idsOf(f.uc.ListScheduled(ctx, dto.ScheduledFilter{Search: "ANA"}).Referrals))
	assert.Equal(t, []int64{2}, idsOf(f.uc.ListScheduled(ctx, dto.ScheduledFilter{Search: "cd-"}).Referrals))
	assert.Equal(t, []int64{3, 2}, idsOf(f.uc.ListScheduled(ctx, dto.ScheduledFilter{DentistID: 8}).Referrals))
	assert.Equal(t, []int64{1, 4}, idsOf(f.uc.ListScheduled(ctx, dto.ScheduledFilter{Payment: entity.PaymentStateUnpaid}).Referrals))
	assert.Equal(t, []int64{3}, idsOf(f.uc.ListScheduled(ctx, dto.ScheduledFilter{Payment: entity.PaymentStatePaidOnTheSpot}).Referrals))
	assert.Equal(t, []int64{3, 2}, idsOf(f.uc.ListScheduled(ctx, dto.ScheduledFilter{Payment: entity.PaymentStatePaid}).Referrals))
	assert.Equal(t, []int64{4}, idsOf(f.uc.ListScheduled(ctx, dto.ScheduledFilter{Month: 1, Year: 2025}).Referrals))
	assert.Equal(t, []int64{3, 1, 2}, idsOf(f.uc.ListScheduled(ctx, dto.ScheduledFilter{Month: 3}).Referrals))
	assert.Empty(t, f.uc.ListScheduled(ctx, dto.ScheduledFilter{Year: 2024}).Referrals)
}

func TestPendingDays(t *testing.T) {
	assert.Equal(t, 0, PendingDays(testNow.Add(-23*time.Hour), testNow))
	assert.Equal(t, 1, PendingDays(testNow.Add(-25*time.Hour), testNow))
	assert.Equal(t, 3, PendingDays(testNow.AddDate(0, 0, -3), testNow))
	assert.Equal(t, -1, PendingDays(testNow.Add(2*time.Hour), testNow))
}
