package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"dental-referral-tracker/internal/converter"
	"dental-referral-tracker/internal/delivery/dto"
	"dental-referral-tracker/internal/domain/entity"
	"dental-referral-tracker/internal/domain/repository"
	"dental-referral-tracker/internal/infrastructure/telemetry"
	"dental-referral-tracker/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"
)

// Clock returns the current instant
type Clock func() time.Time

// ReferralUsecase manages the referral lifecycle and owns the snapshot
// every view and metric is computed from.
//
// Mutations write to the store first and only touch the snapshot after the
// store acknowledged the write. They are serialized with one another.
type ReferralUsecase interface {
	Create(ctx context.Context, actorID int64, req *dto.CreateReferralRequest) (*dto.ReferralResponse, error)
	UpdateDetails(ctx context.Context, actorID, id int64, req *dto.UpdateReferralRequest) (*dto.ReferralResponse, error)
	Schedule(ctx context.Context, actorID, id int64) (*dto.ReferralResponse, error)
	RecordPayment(ctx context.Context, actorID, id int64, paymentMonth string) (*dto.ReferralResponse, error)
	Delete(ctx context.Context, actorID, id int64) error

	Refresh(ctx context.Context) (entity.Snapshot, error)
	Snapshot() entity.Snapshot

	ListUnscheduled(ctx context.Context, filter dto.UnscheduledFilter) *dto.ReferralListResponse
	ListScheduled(ctx context.Context, filter dto.ScheduledFilter) *dto.ReferralListResponse
	ListPayments(ctx context.Context) *dto.PaymentsResponse
	ListDentists(ctx context.Context) *dto.DentistListResponse
}

type referralUsecase struct {
	log     *logrus.Logger
	gateway repository.Gateway
	audit   service.AuditService
	loc     *time.Location
	clock   Clock

	opMu    sync.Mutex
	store   snapshotStore
	reloads singleflight.Group
}

func NewReferralUsecase(
	log *logrus.Logger,
	gateway repository.Gateway,
	audit service.AuditService,
	loc *time.Location,
	clock Clock,
) ReferralUsecase {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return &referralUsecase{
		log:     log,
		gateway: gateway,
		audit:   audit,
		loc:     loc,
		clock:   clock,
	}
}

func (u *referralUsecase) now() time.Time {
	return u.clock().In(u.loc)
}

// Refresh reloads dentists, staff and referrals concurrently and replaces
// the snapshot only if all three loads succeed.
func (u *referralUsecase) Refresh(ctx context.Context) (entity.Snapshot, error) {
	ticket := u.store.nextTicket()
	start := time.Now()

	var (
		dentists  []entity.Dentist
		staff     []entity.StaffMember
		referrals []entity.Referral
	)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		var err error
		if dentists, err = u.gateway.ListDentists(ctx); err != nil {
			return fmt.Errorf("list dentists: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		if staff, err = u.gateway.ListStaff(ctx); err != nil {
			return fmt.Errorf("list staff: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		if referrals, err = u.gateway.ListReferrals(ctx); err != nil {
			return fmt.Errorf("list referrals: %w", err)
		}
		return nil
	})

	if err := p.Wait(); err != nil {
		telemetry.ObserveRefresh(time.Since(start), telemetry.OutcomeError)
		u.log.Warnf("Failed to refresh snapshot: %+v", err)
		return u.store.current(), &SyncError{Err: err}
	}

	now := u.now()
	for i := range referrals {
		referrals[i].BackfillPayment(u.loc, now)
	}
	sortReferrals(referrals)
	snap := entity.Snapshot{
		Dentists:  dentists,
		Staff:     staff,
		Referrals: referrals,
		LoadedAt:  now,
	}

	if !u.store.apply(ticket, snap) {
		telemetry.ObserveRefresh(time.Since(start), telemetry.OutcomeStale)
		u.log.Debugf("Discarded stale refresh %d", ticket)
		return u.store.current(), nil
	}

	telemetry.ObserveRefresh(time.Since(start), telemetry.OutcomeOK)
	u.publishCounts()
	return u.store.current(), nil
}

func (u *referralUsecase) Snapshot() entity.Snapshot {
	return u.store.current()
}

func (u *referralUsecase) ensureLoaded(ctx context.Context) error {
	if u.store.isLoaded() {
		return nil
	}
	_, err := u.Refresh(ctx)
	return err
}

func (u *referralUsecase) Create(ctx context.Context, actorID int64, req *dto.CreateReferralRequest) (resp *dto.ReferralResponse, err error) {
	u.opMu.Lock()
	defer u.opMu.Unlock()
	defer func() { telemetry.RecordMutation("create", err) }()

	if err := u.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(req.PatientCode)
	name := strings.TrimSpace(req.PatientName)
	if code == "" {
		return nil, &ValidationError{Field: "patient_code", Reason: "patient code is required"}
	}
	if name == "" {
		return nil, &ValidationError{Field: "patient_name", Reason: "patient name is required"}
	}
	if req.DentistID <= 0 {
		return nil, &ValidationError{Field: "dentist_id", Reason: "dentist is required"}
	}

	var dentistKnown, staffKnown bool
	u.store.view(func(snap *entity.Snapshot) {
		_, dentistKnown = snap.DentistByID(req.DentistID)
		for _, s := range snap.Staff {
			if s.ID == actorID {
				staffKnown = true
				break
			}
		}
	})
	if !dentistKnown {
		return nil, &ValidationError{Field: "dentist_id", Reason: "unknown dentist"}
	}
	if !staffKnown {
		return nil, &ValidationError{Field: "registered_by_id", Reason: "unknown staff member"}
	}

	status := entity.ReferralStatusUnscheduled
	if req.Status != "" {
		status = entity.ParseReferralStatus(req.Status)
	}
	if req.PaidImmediately && status != entity.ReferralStatusScheduled {
		return nil, ErrImmediatePayment
	}

	now := u.now()
	referral := entity.Referral{
		PatientCode:    code,
		PatientName:    name,
		DentistID:      req.DentistID,
		RegisteredByID: actorID,
		Status:         status,
		Notes:          strings.TrimSpace(req.Notes),
		RegisteredAt:   now,
	}
	if req.PaidImmediately {
		referral.MarkPaid(now, now.Format(entity.PaymentMonthLayout))
		referral.PaidImmediately = true
	}

	created, err := u.gateway.CreateReferral(ctx, referral)
	if err != nil {
		u.log.Warnf("Failed to create referral: %+v", err)
		return nil, &StoreError{Op: "create referral", Err: err}
	}

	u.store.mutate(func(snap *entity.Snapshot) {
		// a reload that read the store after the insert may already hold the row
		if i := indexOfReferral(snap.Referrals, created.ID); i >= 0 {
			snap.Referrals[i] = *created
			return
		}
		snap.Referrals = append([]entity.Referral{*created}, snap.Referrals...)
	})
	u.publishCounts()

	u.audit.LogCreate(ctx, &actorID, entity.AuditActionReferralCreate, "referral", created.ID, created)
	u.log.Infof("Referral %d created by staff %d", created.ID, actorID)

	return u.toResponse(created), nil
}

func (u *referralUsecase) UpdateDetails(ctx context.Context, actorID, id int64, req *dto.UpdateReferralRequest) (resp *dto.ReferralResponse, err error) {
	u.opMu.Lock()
	defer u.opMu.Unlock()
	defer func() { telemetry.RecordMutation("update", err) }()

	if err := u.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	current, ok := u.store.referral(id)
	if !ok {
		return nil, &NotFoundError{Entity: "referral", ID: id}
	}

	var patch entity.ReferralPatch
	if req.PatientCode != nil {
		code := strings.TrimSpace(*req.PatientCode)
		if code == "" {
			return nil, &ValidationError{Field: "patient_code", Reason: "patient code is required"}
		}
		patch.PatientCode = &code
	}
	if req.PatientName != nil {
		name := strings.TrimSpace(*req.PatientName)
		if name == "" {
			return nil, &ValidationError{Field: "patient_name", Reason: "patient name is required"}
		}
		patch.PatientName = &name
	}
	if req.DentistID != nil {
		var known bool
		u.store.view(func(snap *entity.Snapshot) {
			_, known = snap.DentistByID(*req.DentistID)
		})
		if !known {
			return nil, &ValidationError{Field: "dentist_id", Reason: "unknown dentist"}
		}
		dentistID := *req.DentistID
		patch.DentistID = &dentistID
	}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		patch.Notes = &notes
	}
	if patch.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	if _, err := u.gateway.UpdateReferral(ctx, id, patch); err != nil {
		return nil, u.writeError("update referral", id, err)
	}

	updated := u.applyPatch(id, patch, current)
	u.audit.LogUpdate(ctx, &actorID, entity.AuditActionReferralUpdate, "referral", id, current, updated)
	u.log.Infof("Referral %d updated by staff %d", id, actorID)

	return u.toResponse(&updated), nil
}

// Schedule moves an unscheduled referral to scheduled. Scheduling an
// already scheduled referral succeeds without writing to the store.
func (u *referralUsecase) Schedule(ctx context.Context, actorID, id int64) (resp *dto.ReferralResponse, err error) {
	u.opMu.Lock()
	defer u.opMu.Unlock()
	defer func() { telemetry.RecordMutation("schedule", err) }()

	if err := u.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	current, ok := u.store.referral(id)
	if !ok {
		return nil, &NotFoundError{Entity: "referral", ID: id}
	}
	if current.IsScheduled() {
		return u.toResponse(&current), nil
	}

	status := entity.ReferralStatusScheduled
	patch := entity.ReferralPatch{Status: &status}
	if _, err := u.gateway.UpdateReferral(ctx, id, patch); err != nil {
		return nil, u.writeError("schedule referral", id, err)
	}

	updated := u.applyPatch(id, patch, current)
	u.publishCounts()
	u.audit.LogUpdate(ctx, &actorID, entity.AuditActionReferralSchedule, "referral", id, current.Status, updated.Status)
	u.log.Infof("Referral %d scheduled by staff %d", id, actorID)

	return u.toResponse(&updated), nil
}

// RecordPayment marks a scheduled, unpaid referral as paid now, attributed
// to paymentMonth (YYYY-MM). Status is left unchanged.
func (u *referralUsecase) RecordPayment(ctx context.Context, actorID, id int64, paymentMonth string) (resp *dto.ReferralResponse, err error) {
	u.opMu.Lock()
	defer u.opMu.Unlock()
	defer func() { telemetry.RecordMutation("payment", err) }()

	if err := u.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	current, ok := u.store.referral(id)
	if !ok {
		return nil, &NotFoundError{Entity: "referral", ID: id}
	}

	month := strings.TrimSpace(paymentMonth)
	if month == "" {
		return nil, ErrPaymentMonthRequired
	}
	if _, err := time.Parse(entity.PaymentMonthLayout, month); err != nil {
		return nil, ErrPaymentMonthInvalid
	}
	if !current.IsScheduled() {
		return nil, ErrReferralNotScheduled
	}
	if current.Paid {
		return nil, ErrReferralAlreadyPaid
	}

	now := u.now()
	paid := true
	patch := entity.ReferralPatch{Paid: &paid, PaidAt: &now, PaymentMonth: &month}
	if _, err := u.gateway.UpdateReferral(ctx, id, patch); err != nil {
		return nil, u.writeError("record payment", id, err)
	}

	updated := u.applyPatch(id, patch, current)
	u.publishCounts()
	u.audit.LogUpdate(ctx, &actorID, entity.AuditActionReferralPayment, "referral", id, nil, map[string]interface{}{
		"paid_at":       now,
		"payment_month": month,
	})
	u.log.Infof("Payment recorded for referral %d (%s) by staff %d", id, month, actorID)

	return u.toResponse(&updated), nil
}

func (u *referralUsecase) Delete(ctx context.Context, actorID, id int64) (err error) {
	u.opMu.Lock()
	defer u.opMu.Unlock()
	defer func() { telemetry.RecordMutation("delete", err) }()

	if err := u.ensureLoaded(ctx); err != nil {
		return err
	}

	current, ok := u.store.referral(id)
	if !ok {
		return &NotFoundError{Entity: "referral", ID: id}
	}

	if err := u.gateway.DeleteReferral(ctx, id); err != nil {
		return u.writeError("delete referral", id, err)
	}

	u.store.mutate(func(snap *entity.Snapshot) {
		if i := indexOfReferral(snap.Referrals, id); i >= 0 {
			snap.Referrals = append(snap.Referrals[:i], snap.Referrals[i+1:]...)
		}
	})
	u.publishCounts()
	u.audit.LogDelete(ctx, &actorID, entity.AuditActionReferralDelete, "referral", id, current)
	u.log.Infof("Referral %d deleted by staff %d", id, actorID)

	return nil
}

func (u *referralUsecase) ListUnscheduled(ctx context.Context, filter dto.UnscheduledFilter) *dto.ReferralListResponse {
	snap, stale := u.reload(ctx)
	return &dto.ReferralListResponse{
		Referrals: UnscheduledView(&snap, filter, u.now(), u.loc),
		Stale:     stale,
	}
}

func (u *referralUsecase) ListScheduled(ctx context.Context, filter dto.ScheduledFilter) *dto.ReferralListResponse {
	snap, stale := u.reload(ctx)
	return &dto.ReferralListResponse{
		Referrals: ScheduledView(&snap, filter, u.now(), u.loc),
		Stale:     stale,
	}
}

func (u *referralUsecase) ListPayments(ctx context.Context) *dto.PaymentsResponse {
	snap, stale := u.reload(ctx)
	resp := PaymentsView(&snap)
	resp.Stale = stale
	return resp
}

func (u *referralUsecase) ListDentists(ctx context.Context) *dto.DentistListResponse {
	snap, stale := u.reload(ctx)
	return &dto.DentistListResponse{
		Dentists: converter.DentistsToResponses(snap.Dentists),
		Stale:    stale,
	}
}

// reload refreshes the snapshot, falling back to the retained one on failure.
// Concurrent view requests share one in-flight reload and must treat the
// returned snapshot as read-only. The shared reload ignores the cancellation
// of whichever caller started it.
func (u *referralUsecase) reload(ctx context.Context) (entity.Snapshot, bool) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := u.reloads.Do("snapshot", func() (interface{}, error) {
		return u.Refresh(shared)
	})
	snap, _ := v.(entity.Snapshot)
	return snap, err != nil
}

// applyPatch applies an acknowledged patch to the snapshot copy of id and
// returns the result. fallback is used when the referral left the snapshot.
func (u *referralUsecase) applyPatch(id int64, patch entity.ReferralPatch, fallback entity.Referral) entity.Referral {
	updated := fallback
	found := false
	u.store.mutate(func(snap *entity.Snapshot) {
		if i := indexOfReferral(snap.Referrals, id); i >= 0 {
			patch.ApplyTo(&snap.Referrals[i])
			updated = snap.Referrals[i]
			found = true
		}
	})
	if !found {
		patch.ApplyTo(&updated)
	}
	return updated
}

func (u *referralUsecase) writeError(op string, id int64, err error) error {
	if errors.Is(err, repository.ErrRecordNotFound) {
		return &NotFoundError{Entity: "referral", ID: id}
	}
	u.log.Warnf("Failed to %s %d: %+v", op, id, err)
	return &StoreError{Op: op, Err: err}
}

func (u *referralUsecase) toResponse(referral *entity.Referral) *dto.ReferralResponse {
	var names map[int64]string
	u.store.view(func(snap *entity.Snapshot) {
		names = snap.DentistNames()
	})
	return converter.ReferralToResponse(referral, names)
}

func (u *referralUsecase) publishCounts() {
	var unscheduled, scheduled, paid int
	u.store.view(func(snap *entity.Snapshot) {
		for i := range snap.Referrals {
			if snap.Referrals[i].IsScheduled() {
				scheduled++
			} else {
				unscheduled++
			}
			if snap.Referrals[i].Paid {
				paid++
			}
		}
	})
	telemetry.SetSnapshotCounts(unscheduled, scheduled, paid)
}

// sortReferrals orders by registration time, most recent first.
func sortReferrals(referrals []entity.Referral) {
	sort.SliceStable(referrals, func(i, j int) bool {
		a, b := referrals[i].RegisteredAt, referrals[j].RegisteredAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return referrals[i].ID > referrals[j].ID
	})
}
