package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"culturaviva/internal/directions"
	"culturaviva/internal/domain"
	"culturaviva/internal/geo"
	"culturaviva/internal/navigation"
	"culturaviva/internal/redis"
	"culturaviva/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TEMPLATE REPOSITORY
// ──────────────────────────────────────────────

// MockTemplateRepository is a mock implementation of TemplateRepository.
type MockTemplateRepository struct {
	mu        sync.RWMutex
	templates map[string]*domain.CertificateTemplate

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	GetError    error
}

// NewMockTemplateRepository creates a new mock template repository.
func NewMockTemplateRepository() *MockTemplateRepository {
	return &MockTemplateRepository{
		templates: make(map[string]*domain.CertificateTemplate),
	}
}

// AddTemplate adds a template to the mock repository.
func (m *MockTemplateRepository) AddTemplate(tpl *domain.CertificateTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[tpl.ID] = tpl
}

func (m *MockTemplateRepository) Create(ctx context.Context, tpl *domain.CertificateTemplate) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[tpl.ID]; ok {
		return repository.ErrConflict
	}
	copy := *tpl
	m.templates[tpl.ID] = &copy
	return nil
}

func (m *MockTemplateRepository) GetByID(ctx context.Context, id string) (*domain.CertificateTemplate, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	tpl, ok := m.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *tpl
	return &copy, nil
}

func (m *MockTemplateRepository) GetAll(ctx context.Context) ([]*domain.CertificateTemplate, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var templates []*domain.CertificateTemplate
	for _, tpl := range m.templates {
		copy := *tpl
		templates = append(templates, &copy)
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].UpdatedAt.After(templates[j].UpdatedAt)
	})
	return templates, nil
}

func (m *MockTemplateRepository) Update(ctx context.Context, tpl *domain.CertificateTemplate) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[tpl.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *tpl
	m.templates[tpl.ID] = &copy
	return nil
}

func (m *MockTemplateRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.templates, id)
	return nil
}

// CountTemplates returns the number of stored templates.
func (m *MockTemplateRepository) CountTemplates() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.templates)
}

// ──────────────────────────────────────────────
// MOCK CERTIFICATE REPOSITORY
// ──────────────────────────────────────────────

// MockCertificateRepository is a mock implementation of CertificateRepository.
type MockCertificateRepository struct {
	mu           sync.RWMutex
	certificates map[string]*domain.Certificate

	// Counters for verification
	CreateCallCount    int32
	GetByCodeCallCount int32

	// Error injection
	CreateError    error
	GetByCodeError error
	// ConflictsLeft makes the next N creates fail with ErrConflict.
	ConflictsLeft int32
}

// NewMockCertificateRepository creates a new mock certificate repository.
func NewMockCertificateRepository() *MockCertificateRepository {
	return &MockCertificateRepository{
		certificates: make(map[string]*domain.Certificate),
	}
}

// AddCertificate adds a certificate to the mock repository.
func (m *MockCertificateRepository) AddCertificate(cert *domain.Certificate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.certificates[cert.Code] = cert
}

func (m *MockCertificateRepository) Create(ctx context.Context, cert *domain.Certificate) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	if atomic.AddInt32(&m.ConflictsLeft, -1) >= 0 {
		return repository.ErrConflict
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.certificates[cert.Code]; ok {
		return repository.ErrConflict
	}
	copy := *cert
	m.certificates[cert.Code] = &copy
	return nil
}

func (m *MockCertificateRepository) GetByCode(ctx context.Context, code string) (*domain.Certificate, error) {
	atomic.AddInt32(&m.GetByCodeCallCount, 1)
	if m.GetByCodeError != nil {
		return nil, m.GetByCodeError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	cert, ok := m.certificates[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *cert
	return &copy, nil
}

// GetCertificate returns a stored certificate without copying.
func (m *MockCertificateRepository) GetCertificate(code string) *domain.Certificate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.certificates[code]
}

// CountCertificates returns the number of stored certificates.
func (m *MockCertificateRepository) CountCertificates() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.certificates)
}

// ──────────────────────────────────────────────
// MOCK DIRECTIONS PROVIDER
// ──────────────────────────────────────────────

// MockDirectionsProvider is a mock implementation of directions.Provider.
// It answers with a straight two-point route between the requested points.
type MockDirectionsProvider struct {
	CallCount int32

	// Error injection
	Error error
	// Response overrides the generated route when set.
	Response *directions.Response
	// Delay is applied before answering, honouring cancellation.
	Delay time.Duration

	mu       sync.Mutex
	profiles []navigation.TravelProfile
}

// NewMockDirectionsProvider creates a new mock provider.
func NewMockDirectionsProvider() *MockDirectionsProvider {
	return &MockDirectionsProvider{}
}

func (m *MockDirectionsProvider) Directions(ctx context.Context, start, end geo.Point, profile navigation.TravelProfile) (*directions.Response, error) {
	atomic.AddInt32(&m.CallCount, 1)
	m.mu.Lock()
	m.profiles = append(m.profiles, profile)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	err := m.Error
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if m.Response != nil {
		return m.Response, nil
	}

	d := geo.DistanceMeters(start, end)
	return &directions.Response{
		Distance: d,
		Duration: d / 1.4,
		Geometry: directions.Geometry{Coordinates: [][2]float64{start.LngLat(), end.LngLat()}},
		Steps: []directions.Step{
			{Instruction: "Head towards the destination", Distance: d / 2, Duration: d / 2.8},
			{Instruction: "Arrive at the destination", Distance: d / 2, Duration: d / 2.8},
		},
	}, nil
}

// SetError changes the injected error while requests may be in flight.
func (m *MockDirectionsProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Error = err
}

// Calls returns the number of provider requests made.
func (m *MockDirectionsProvider) Calls() int {
	return int(atomic.LoadInt32(&m.CallCount))
}

// Profiles returns the requested profiles in order.
func (m *MockDirectionsProvider) Profiles() []navigation.TravelProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]navigation.TravelProfile(nil), m.profiles...)
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is an in-memory route and certificate cache.
type MockCacheStore struct {
	mu           sync.RWMutex
	routes       map[string]*directions.Response
	certificates map[string]*domain.CertificateData

	GetCallCount int32
	SetCallCount int32

	// Error injection
	GetError error
	SetError error
}

// NewMockCacheStore creates a new mock cache.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		routes:       make(map[string]*directions.Response),
		certificates: make(map[string]*domain.CertificateData),
	}
}

func (m *MockCacheStore) GetRoute(ctx context.Context, key string) (*directions.Response, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.routes[key], nil
}

func (m *MockCacheStore) SetRoute(ctx context.Context, key string, resp *directions.Response, ttl time.Duration) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[key] = resp
	return nil
}

func (m *MockCacheStore) GetCertificate(ctx context.Context, code string) (*domain.CertificateData, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.certificates[code], nil
}

func (m *MockCacheStore) SetCertificate(ctx context.Context, data *domain.CertificateData) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.certificates[data.Code] = data
	return nil
}

// HasRoute reports whether key is cached.
func (m *MockCacheStore) HasRoute(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.routes[key]
	return ok
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquireIssueLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MockLockStore) ReleaseIssueLock(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

// Hold marks key as locked by another issuer.
func (m *MockLockStore) Hold(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[key] = true
}

// Held returns the number of locks currently held.
func (m *MockLockStore) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// ──────────────────────────────────────────────
// MOCK POSITION STORE
// ──────────────────────────────────────────────

// MockPositionStore is a mock implementation of PositionStoreInterface.
type MockPositionStore struct {
	mu        sync.RWMutex
	positions map[string]geo.Point

	UpdateCallCount int32
	UpdateError     error
}

// NewMockPositionStore creates a new mock position store.
func NewMockPositionStore() *MockPositionStore {
	return &MockPositionStore{positions: make(map[string]geo.Point)}
}

func (m *MockPositionStore) UpdatePosition(ctx context.Context, sessionID string, p geo.Point) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[sessionID] = p
	return nil
}

func (m *MockPositionStore) GetPosition(ctx context.Context, sessionID string) (*geo.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.positions[sessionID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MockPositionStore) FindNearby(ctx context.Context, center geo.Point, radiusKm float64) ([]redis.SessionPosition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []redis.SessionPosition
	for id, p := range m.positions {
		d := geo.DistanceMeters(center, p)
		if d <= radiusKm*1000 {
			out = append(out, redis.SessionPosition{SessionID: id, Lat: p.Lat, Lng: p.Lng, DistanceM: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceM < out[j].DistanceM })
	return out, nil
}

func (m *MockPositionStore) RemovePosition(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, sessionID)
	return nil
}

// Count returns the number of stored positions.
func (m *MockPositionStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.positions)
}

// ──────────────────────────────────────────────
// MOCK EVENT PUBLISHER
// ──────────────────────────────────────────────

// MockEventPublisher records published arrival events.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []redis.ArrivalEvent
}

func (m *MockEventPublisher) PublishArrival(ctx context.Context, ev redis.ArrivalEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// Events returns the published events.
func (m *MockEventPublisher) Events() []redis.ArrivalEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]redis.ArrivalEvent(nil), m.events...)
}

// ErrMockStorage is a generic injected storage failure.
var ErrMockStorage = errors.New("mock storage failure")

// Ensure mocks implement interfaces.
var (
	_ repository.TemplateRepository    = (*MockTemplateRepository)(nil)
	_ repository.CertificateRepository = (*MockCertificateRepository)(nil)
	_ directions.Provider              = (*MockDirectionsProvider)(nil)
	_ redis.RouteCacheInterface        = (*MockCacheStore)(nil)
	_ redis.CertificateCacheInterface  = (*MockCacheStore)(nil)
	_ redis.LockStoreInterface         = (*MockLockStore)(nil)
	_ redis.PositionStoreInterface     = (*MockPositionStore)(nil)
	_ redis.EventPublisherInterface    = (*MockEventPublisher)(nil)
)
