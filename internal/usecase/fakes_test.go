package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"dental-referral-tracker/internal/domain/entity"
	"dental-referral-tracker/internal/domain/repository"
	"dental-referral-tracker/pkg/jwt"

	"github.com/sirupsen/logrus"
)

type fakeGateway struct {
	mu        sync.Mutex
	dentists  []entity.Dentist
	staff     []entity.StaffMember
	referrals []entity.Referral
	secrets   map[string]string
	nextID    int64

	listErr  error
	writeErr error
	authErr  error

	creates int
	updates int
	deletes int

	// afterListReferrals runs once the referral rows were read
	afterListReferrals func()
	// afterCreateReferral runs once a new row was persisted
	afterCreateReferral func()
}

var _ repository.Gateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		dentists: []entity.Dentist{
			{ID: 7, Name: "Dra. Beatriz", Type: entity.DefaultDentistType},
			{ID: 8, Name: "Dr. Carlos", Type: entity.DefaultDentistType},
		},
		staff: []entity.StaffMember{
			{ID: 1, Name: "Recepção", Username: "recepcao", Role: entity.StaffRoleStaff},
			{ID: 2, Name: "Gestora", Username: "gestora", Role: entity.StaffRoleManager},
		},
		secrets: map[string]string{"recepcao": "s3cret", "gestora": "admin123"},
		nextID:  100,
	}
}

func (g *fakeGateway) ListDentists(ctx context.Context) ([]entity.Dentist, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]entity.Dentist(nil), g.dentists...), nil
}

func (g *fakeGateway) ListStaff(ctx context.Context) ([]entity.StaffMember, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]entity.StaffMember(nil), g.staff...), nil
}

func (g *fakeGateway) ListReferrals(ctx context.Context) ([]entity.Referral, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	if g.listErr != nil {
		g.mu.Unlock()
		return nil, g.listErr
	}
	rows := append([]entity.Referral(nil), g.referrals...)
	hook := g.afterListReferrals
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	return rows, nil
}

func (g *fakeGateway) CreateReferral(ctx context.Context, referral entity.Referral) (*entity.Referral, error) {
	g.mu.Lock()
	if g.writeErr != nil {
		g.mu.Unlock()
		return nil, g.writeErr
	}
	g.nextID++
	g.creates++
	referral.ID = g.nextID
	referral.CreatedAt = referral.RegisteredAt
	g.referrals = append(g.referrals, referral)
	hook := g.afterCreateReferral
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	return &referral, nil
}

func (g *fakeGateway) UpdateReferral(ctx context.Context, id int64, patch entity.ReferralPatch) (*entity.Referral, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writeErr != nil {
		return nil, g.writeErr
	}
	for i := range g.referrals {
		if g.referrals[i].ID == id {
			g.updates++
			patch.ApplyTo(&g.referrals[i])
			updated := g.referrals[i]
			return &updated, nil
		}
	}
	return nil, repository.ErrRecordNotFound
}

func (g *fakeGateway) DeleteReferral(ctx context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writeErr != nil {
		return g.writeErr
	}
	for i := range g.referrals {
		if g.referrals[i].ID == id {
			g.deletes++
			g.referrals = append(g.referrals[:i], g.referrals[i+1:]...)
			return nil
		}
	}
	return repository.ErrRecordNotFound
}

func (g *fakeGateway) CreateDentist(ctx context.Context, dentist entity.Dentist) (*entity.Dentist, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writeErr != nil {
		return nil, g.writeErr
	}
	g.nextID++
	dentist.ID = g.nextID
	g.dentists = append(g.dentists, dentist)
	return &dentist, nil
}

func (g *fakeGateway) UpdateDentist(ctx context.Context, dentist entity.Dentist) (*entity.Dentist, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writeErr != nil {
		return nil, g.writeErr
	}
	for i := range g.dentists {
		if g.dentists[i].ID == dentist.ID {
			g.dentists[i].Name = dentist.Name
			g.dentists[i].Type = dentist.Type
			updated := g.dentists[i]
			return &updated, nil
		}
	}
	return nil, repository.ErrRecordNotFound
}

func (g *fakeGateway) DeleteDentist(ctx context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writeErr != nil {
		return g.writeErr
	}
	for i := range g.dentists {
		if g.dentists[i].ID == id {
			g.dentists = append(g.dentists[:i], g.dentists[i+1:]...)
			return nil
		}
	}
	return repository.ErrRecordNotFound
}

func (g *fakeGateway) CreateStaff(ctx context.Context, staff entity.StaffMember) (*entity.StaffMember, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writeErr != nil {
		return nil, g.writeErr
	}
	for _, s := range g.staff {
		if s.Username == staff.Username {
			return nil, repository.ErrDuplicateUsername
		}
	}
	g.nextID++
	staff.ID = g.nextID
	g.staff = append(g.staff, staff)
	return &staff, nil
}

func (g *fakeGateway) DeleteStaff(ctx context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writeErr != nil {
		return g.writeErr
	}
	for i := range g.staff {
		if g.staff[i].ID == id {
			g.staff = append(g.staff[:i], g.staff[i+1:]...)
			return nil
		}
	}
	return repository.ErrRecordNotFound
}

func (g *fakeGateway) Authenticate(ctx context.Context, username, secret string) (*entity.StaffMember, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.authErr != nil {
		return nil, g.authErr
	}
	if want, ok := g.secrets[username]; !ok || want != secret {
		return nil, nil
	}
	for _, s := range g.staff {
		if s.Username == username {
			found := s
			return &found, nil
		}
	}
	return nil, nil
}

func (g *fakeGateway) seed(referrals ...entity.Referral) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.referrals = append(g.referrals, referrals...)
}

func (g *fakeGateway) setListErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listErr = err
}

func (g *fakeGateway) setWriteErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writeErr = err
}

type auditEntry struct {
	action   string
	entityID int64
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *fakeAudit) add(action string, id int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{action: action, entityID: id})
}

func (a *fakeAudit) LogCreate(ctx context.Context, actorID *int64, action string, entityName string, entityID int64, newValue interface{}) {
	a.add(action, entityID)
}

func (a *fakeAudit) LogUpdate(ctx context.Context, actorID *int64, action string, entityName string, entityID int64, oldValue, newValue interface{}) {
	a.add(action, entityID)
}

func (a *fakeAudit) LogDelete(ctx context.Context, actorID *int64, action string, entityName string, entityID int64, oldValue interface{}) {
	a.add(action, entityID)
}

func (a *fakeAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.action
	}
	return out
}

type fakeSessions struct {
	mu   sync.Mutex
	keys map[string]time.Duration
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{keys: make(map[string]time.Duration)}
}

func sessionKey(tokenType jwt.TokenType, staffID int64, tokenID string) string {
	return fmt.Sprintf("%s:%d:%s", tokenType, staffID, tokenID)
}

func (s *fakeSessions) Save(ctx context.Context, tokenType jwt.TokenType, staffID int64, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[sessionKey(tokenType, staffID, tokenID)] = ttl
	return nil
}

func (s *fakeSessions) Exists(ctx context.Context, tokenType jwt.TokenType, staffID int64, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[sessionKey(tokenType, staffID, tokenID)]
	return ok, nil
}

func (s *fakeSessions) Revoke(ctx context.Context, tokenType jwt.TokenType, staffID int64, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, sessionKey(tokenType, staffID, tokenID))
	return nil
}

func (s *fakeSessions) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
