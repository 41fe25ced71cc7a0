package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
	"hostel-backend/internal/period"
	"hostel-backend/internal/timeutil"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, timeutil.IST)
}

func clockAt(y int, m time.Month, d int) timeutil.FixedClock {
	return timeutil.FixedClock{T: day(y, m, d).Add(10 * time.Hour)}
}

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func moneyPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

var testLogger = zap.NewNop()

// memRentStore is an in-memory RentStore enforcing one record per tenant
// and period.
type memRentStore struct {
	mu   sync.Mutex
	recs map[uuid.UUID]*models.RentRecord

	// latestErr fails FindLatestForTenant for the given tenant.
	latestErr map[uuid.UUID]error
	// beforeCreate runs before the uniqueness check of every Create.
	beforeCreate func(rec *models.RentRecord)
	updateErr    error
}

func newMemRentStore() *memRentStore {
	return &memRentStore{recs: map[uuid.UUID]*models.RentRecord{}, latestErr: map[uuid.UUID]error{}}
}

func cloneRent(r *models.RentRecord) *models.RentRecord {
	c := *r
	c.PaymentHistory = append([]models.PaymentEntry{}, r.PaymentHistory...)
	return &c
}

func (s *memRentStore) Create(_ context.Context, rec *models.RentRecord) error {
	if s.beforeCreate != nil {
		hook := s.beforeCreate
		s.beforeCreate = nil
		hook(rec)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if r.TenantID == rec.TenantID && r.PeriodKey() == rec.PeriodKey() {
			return fmt.Errorf("tenant %s period %s: %w", rec.TenantID, rec.PeriodKey(), apperr.ErrDuplicatePeriod)
		}
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	s.recs[rec.ID] = cloneRent(rec)
	return nil
}

// insert stores rec directly, bypassing the hooks.
func (s *memRentStore) insert(rec *models.RentRecord) *models.RentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	s.recs[rec.ID] = cloneRent(rec)
	return rec
}

func (s *memRentStore) Get(_ context.Context, adminID int, id uuid.UUID) (*models.RentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[id]
	if !ok {
		return nil, apperr.NotFound("rent record %s not found", id)
	}
	if r.AdminID != adminID {
		return nil, apperr.Unauthorized("rent record %s belongs to another admin", id)
	}
	return cloneRent(r), nil
}

func (s *memRentStore) Update(_ context.Context, adminID int, rec *models.RentRecord) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[rec.ID]
	if !ok || r.AdminID != adminID {
		return apperr.NotFound("rent record %s not found", rec.ID)
	}
	s.recs[rec.ID] = cloneRent(rec)
	return nil
}

func (s *memRentStore) Delete(_ context.Context, adminID int, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[id]
	if !ok || r.AdminID != adminID {
		return apperr.NotFound("rent record %s not found", id)
	}
	delete(s.recs, id)
	return nil
}

func (s *memRentStore) DeleteByTenant(_ context.Context, adminID int, tenantID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.recs {
		if r.AdminID == adminID && r.TenantID == tenantID {
			delete(s.recs, id)
			n++
		}
	}
	return n, nil
}

func (s *memRentStore) List(_ context.Context, adminID int, f models.RentFilter) ([]*models.RentRecord, int, error) {
	all := s.filter(func(r *models.RentRecord) bool {
		return r.AdminID == adminID &&
			(f.Status == "" || r.Status == f.Status) &&
			(f.TenantID == nil || r.TenantID == *f.TenantID)
	})
	sort.SliceStable(all, func(i, j int) bool { return all[i].DueDate.After(all[j].DueDate) })
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (s *memRentStore) FindLatestForTenant(_ context.Context, tenantID uuid.UUID) (*models.RentRecord, error) {
	if err := s.latestErr[tenantID]; err != nil {
		return nil, err
	}
	return s.latest(func(r *models.RentRecord) bool { return r.TenantID == tenantID }), nil
}

func (s *memRentStore) FindLatestPaidForTenant(_ context.Context, tenantID uuid.UUID) (*models.RentRecord, error) {
	return s.latest(func(r *models.RentRecord) bool { return r.TenantID == tenantID && r.IsPaid }), nil
}

func (s *memRentStore) FindByPeriod(_ context.Context, tenantID uuid.UUID, key period.Key) (*models.RentRecord, error) {
	if !key.Kind.Valid() {
		return nil, apperr.ErrInvalidPeriodKind
	}
	found := s.filter(func(r *models.RentRecord) bool { return r.TenantID == tenantID && r.PeriodKey() == key })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (s *memRentStore) ListUnpaidDueBefore(_ context.Context, adminID int, before time.Time) ([]*models.RentRecord, error) {
	out := s.filter(func(r *models.RentRecord) bool {
		return r.AdminID == adminID && !r.IsPaid && r.DueDate.Before(before)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *memRentStore) ListUnpaidDueBetween(_ context.Context, adminID int, from, to time.Time) ([]*models.RentRecord, error) {
	out := s.filter(func(r *models.RentRecord) bool {
		return r.AdminID == adminID && !r.IsPaid && !r.DueDate.Before(from) && !r.DueDate.After(to)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *memRentStore) MarkOverdue(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.recs {
		if !r.IsPaid && r.DueDate.Before(before) && r.Status != models.RentStatusOverdue {
			r.Status = models.RentStatusOverdue
			n++
		}
	}
	return n, nil
}

func (s *memRentStore) filter(keep func(*models.RentRecord) bool) []*models.RentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.RentRecord
	for _, r := range s.recs {
		if keep(r) {
			out = append(out, cloneRent(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *memRentStore) latest(keep func(*models.RentRecord) bool) *models.RentRecord {
	var best *models.RentRecord
	for _, r := range s.filter(keep) {
		if best == nil || r.DueDate.After(best.DueDate) {
			best = r
		}
	}
	return best
}

func (s *memRentStore) forTenant(tenantID uuid.UUID) []*models.RentRecord {
	out := s.filter(func(r *models.RentRecord) bool { return r.TenantID == tenantID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

// memRoomStore is an in-memory RoomStore.
type memRoomStore struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*models.Room
	// adjustErr fails AdjustOccupiedBeds for the given room.
	adjustErr map[uuid.UUID]error
}

func newMemRoomStore() *memRoomStore {
	return &memRoomStore{rooms: map[uuid.UUID]*models.Room{}, adjustErr: map[uuid.UUID]error{}}
}

func (s *memRoomStore) Create(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.AdminID == room.AdminID && r.RoomNumber == room.RoomNumber {
			return apperr.Validation("room %s already exists", room.RoomNumber)
		}
	}
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	c := *room
	s.rooms[room.ID] = &c
	return nil
}

func (s *memRoomStore) Get(_ context.Context, adminID int, id uuid.UUID) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, apperr.NotFound("room %s not found", id)
	}
	if r.AdminID != adminID {
		return nil, apperr.Unauthorized("room %s belongs to another admin", id)
	}
	c := *r
	return &c, nil
}

func (s *memRoomStore) List(_ context.Context, adminID int) ([]*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Room{}
	for _, r := range s.rooms {
		if r.AdminID == adminID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memRoomStore) Update(_ context.Context, adminID int, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[room.ID]
	if !ok || r.AdminID != adminID {
		return apperr.NotFound("room %s not found", room.ID)
	}
	c := *room
	s.rooms[room.ID] = &c
	return nil
}

func (s *memRoomStore) Delete(_ context.Context, adminID int, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok || r.AdminID != adminID || r.OccupiedBeds > 0 {
		return apperr.Validation("room %s not found or still occupied", id)
	}
	delete(s.rooms, id)
	return nil
}

func (s *memRoomStore) AdjustOccupiedBeds(_ context.Context, adminID int, roomID uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.adjustErr[roomID]; err != nil {
		return err
	}
	r, ok := s.rooms[roomID]
	if !ok || r.AdminID != adminID || (delta > 0 && r.OccupiedBeds+delta > r.Capacity) {
		return apperr.Validation("room %s is full", roomID)
	}
	r.OccupiedBeds += delta
	if r.OccupiedBeds < 0 {
		r.OccupiedBeds = 0
	}
	return nil
}

func (s *memRoomStore) occupied(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id].OccupiedBeds
}

// memTenantStore is an in-memory TenantStore that joins rooms from a
// memRoomStore on read.
type memTenantStore struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]*models.Tenant
	order   []uuid.UUID
	rooms   *memRoomStore
	listErr error
	// writeErr fails Create and Update.
	writeErr error
}

func newMemTenantStore(rooms *memRoomStore) *memTenantStore {
	return &memTenantStore{tenants: map[uuid.UUID]*models.Tenant{}, rooms: rooms}
}

func (s *memTenantStore) Create(_ context.Context, t *models.Tenant) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	c := *t
	c.Room = nil
	s.tenants[t.ID] = &c
	s.order = append(s.order, t.ID)
	return nil
}

func (s *memTenantStore) joined(t *models.Tenant) *models.Tenant {
	c := *t
	c.Room = nil
	if c.RoomID != nil && s.rooms != nil {
		if r, ok := s.rooms.rooms[*c.RoomID]; ok {
			rc := *r
			c.Room = &rc
		}
	}
	return &c
}

func (s *memTenantStore) Get(_ context.Context, adminID int, id uuid.UUID) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, apperr.NotFound("tenant %s not found", id)
	}
	if t.AdminID != adminID {
		return nil, apperr.Unauthorized("tenant %s belongs to another admin", id)
	}
	return s.joined(t), nil
}

func (s *memTenantStore) list(keep func(*models.Tenant) bool) ([]*models.Tenant, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Tenant{}
	for _, id := range s.order {
		t, ok := s.tenants[id]
		if ok && keep(t) {
			out = append(out, s.joined(t))
		}
	}
	return out, nil
}

func (s *memTenantStore) List(_ context.Context, adminID int) ([]*models.Tenant, error) {
	return s.list(func(t *models.Tenant) bool { return t.AdminID == adminID })
}

func (s *memTenantStore) ListBillable(_ context.Context) ([]*models.Tenant, error) {
	return s.list(func(t *models.Tenant) bool { return t.Active && t.RoomID != nil && t.JoiningDate != nil })
}

func (s *memTenantStore) ListBillableByAdmin(_ context.Context, adminID int) ([]*models.Tenant, error) {
	return s.list(func(t *models.Tenant) bool {
		return t.AdminID == adminID && t.Active && t.RoomID != nil && t.JoiningDate != nil
	})
}

func (s *memTenantStore) Update(_ context.Context, adminID int, t *models.Tenant) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tenants[t.ID]
	if !ok || cur.AdminID != adminID {
		return apperr.NotFound("tenant %s not found", t.ID)
	}
	c := *t
	c.Room = nil
	s.tenants[t.ID] = &c
	return nil
}

func (s *memTenantStore) Delete(_ context.Context, adminID int, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tenants[id]
	if !ok || cur.AdminID != adminID {
		return apperr.NotFound("tenant %s not found", id)
	}
	delete(s.tenants, id)
	return nil
}

func (s *memTenantStore) SetDocumentKey(_ context.Context, adminID int, id uuid.UUID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tenants[id]
	if !ok || cur.AdminID != adminID {
		return apperr.NotFound("tenant %s not found", id)
	}
	cur.IDDocumentKey = key
	return nil
}

// memCache is an in-memory RentCache.
type memCache struct {
	overdue     map[int][]models.OverdueEntry
	invalidated []int
}

func newMemCache() *memCache { return &memCache{overdue: map[int][]models.OverdueEntry{}} }

func (c *memCache) GetOverdue(_ context.Context, adminID int) ([]models.OverdueEntry, bool) {
	e, ok := c.overdue[adminID]
	return e, ok
}

func (c *memCache) SetOverdue(_ context.Context, adminID int, entries []models.OverdueEntry) {
	c.overdue[adminID] = entries
}

func (c *memCache) Invalidate(_ context.Context, adminID int) {
	delete(c.overdue, adminID)
	c.invalidated = append(c.invalidated, adminID)
}

func (c *memCache) InvalidateAll(context.Context) {
	c.overdue = map[int][]models.OverdueEntry{}
}

// fixture wires the fakes together for one admin.
type fixture struct {
	adminID int
	clock   timeutil.FixedClock
	rents   *memRentStore
	rooms   *memRoomStore
	tenants *memTenantStore
	cache   *memCache
}

func newFixture(clock timeutil.FixedClock) *fixture {
	rooms := newMemRoomStore()
	return &fixture{
		adminID: 1,
		clock:   clock,
		rents:   newMemRentStore(),
		rooms:   rooms,
		tenants: newMemTenantStore(rooms),
		cache:   newMemCache(),
	}
}

func (f *fixture) room(number string, capacity int, rent int64) *models.Room {
	r := &models.Room{AdminID: f.adminID, RoomNumber: number, Capacity: capacity, Rent: money(rent)}
	if err := f.rooms.Create(context.Background(), r); err != nil {
		panic(err)
	}
	return r
}

// tenant adds an active tenant occupying room.
func (f *fixture) tenant(name string, room *models.Room, joining time.Time, kind period.Kind) *models.Tenant {
	t := &models.Tenant{
		AdminID:       f.adminID,
		Name:          name,
		Phone:         "9876543210",
		JoiningDate:   &joining,
		PaymentPeriod: kind,
		Active:        true,
	}
	if room != nil {
		id := room.ID
		t.RoomID = &id
		_ = f.rooms.AdjustOccupiedBeds(context.Background(), f.adminID, room.ID, 1)
	}
	if err := f.tenants.Create(context.Background(), t); err != nil {
		panic(err)
	}
	got, _ := f.tenants.Get(context.Background(), f.adminID, t.ID)
	return got
}

// record stores a record for t due on due with amountPaid paid.
func (f *fixture) record(t *models.Tenant, due time.Time, amount, paid int64) *models.RentRecord {
	key, err := period.Identify(t.PaymentPeriod, due)
	if err != nil {
		panic(err)
	}
	rec := newRentRecord(t, key, due, money(amount), models.RentStatusPending, f.clock.Now())
	rec.AmountPaid = money(paid)
	rec.DeriveStatus()
	return f.rents.insert(rec)
}

func (f *fixture) processor() *PaymentProcessor {
	return NewPaymentProcessor(f.rents, f.tenants, f.cache, f.clock, testLogger)
}

func (f *fixture) engine() *ReconciliationEngine {
	return NewReconciliationEngine(f.rents, f.tenants, f.clock, testLogger)
}

func (f *fixture) lifecycle() *RentLifecycleService {
	return NewRentLifecycleService(f.rents, f.tenants, f.cache, f.clock, testLogger)
}

func (f *fixture) rentService() *RentService {
	return NewRentService(f.rents, f.tenants, f.engine(), f.processor(), f.cache, f.clock, testLogger)
}

var errStoreDown = errors.New("store unavailable")
