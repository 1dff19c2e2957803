package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/career-coach/internal/config"
	"github.com/jonathan/career-coach/internal/db"
	"github.com/jonathan/career-coach/internal/flows"
	"github.com/jonathan/career-coach/internal/jobs"
	"github.com/jonathan/career-coach/internal/server/ratelimit"
	"github.com/jonathan/career-coach/internal/storage"
	"github.com/jonathan/career-coach/internal/types"
	"github.com/stretchr/testify/require"
)

// memDB is an in-memory DBClient
type memDB struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*db.User
	profiles map[uuid.UUID]types.Profile
	tokens   map[string]*db.PasswordResetToken
	now      func() time.Time

	failUpdatePassword error
	failSweep          bool
}

func newMemDB() *memDB {
	return &memDB{
		users:    make(map[uuid.UUID]*db.User),
		profiles: make(map[uuid.UUID]types.Profile),
		tokens:   make(map[string]*db.PasswordResetToken),
		now:      time.Now,
	}
}

func (m *memDB) CreateUser(_ context.Context, name, email, phone string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	now := m.now()
	m.users[id] = &db.User{ID: id, Name: name, Email: email, Phone: phone, CreatedAt: now, UpdatedAt: now}
	return id, nil
}

func (m *memDB) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memDB) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memDB) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	u, err := m.GetUserByEmail(ctx, email)
	return u != nil, err
}

func (m *memDB) UpdatePassword(_ context.Context, userID uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdatePassword != nil {
		return m.failUpdatePassword
	}
	u, ok := m.users[userID]
	if !ok {
		return &ErrUserNotFound{UserID: userID}
	}
	u.PasswordHash = hash
	u.PasswordSet = true
	u.UpdatedAt = m.now()
	return nil
}

func (m *memDB) DeleteUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
	delete(m.profiles, userID)
	return nil
}

func (m *memDB) CreatePasswordResetToken(_ context.Context, userID uuid.UUID, hash string, expiresAt time.Time) (*db.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &db.PasswordResetToken{ID: uuid.New(), UserID: userID, TokenHash: hash, ExpiresAt: expiresAt, CreatedAt: m.now()}
	m.tokens[hash] = t
	return t, nil
}

func (m *memDB) ResetPassword(_ context.Context, hash, passwordHash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok || t.UsedAt != nil || !t.ExpiresAt.After(m.now()) {
		return uuid.Nil, db.ErrResetTokenInvalid
	}
	now := m.now()
	for _, other := range m.tokens {
		if other.UserID == t.UserID && other.UsedAt == nil {
			other.UsedAt = &now
		}
	}
	u := m.users[t.UserID]
	u.PasswordHash = passwordHash
	u.PasswordSet = true
	return t.UserID, nil
}

func (m *memDB) DeleteExpiredResetTokens(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSweep {
		return 0, errors.New("sweep failed")
	}
	var removed int64
	for hash, t := range m.tokens {
		if t.ExpiresAt.Before(m.now()) {
			delete(m.tokens, hash)
			removed++
		}
	}
	return removed, nil
}

func (m *memDB) GetProfile(_ context.Context, userID uuid.UUID) (*types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memDB) UpsertProfile(_ context.Context, userID uuid.UUID, p *types.Profile) (*types.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *p
	stored.ResumeKey = m.profiles[userID].ResumeKey
	m.profiles[userID] = stored
	return &stored, nil
}

func (m *memDB) SetResumeKey(_ context.Context, userID uuid.UUID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profiles[userID]
	p.ResumeKey = key
	m.profiles[userID] = p
	return nil
}

// captureNotifier records issued reset tokens
type captureNotifier struct {
	mu     sync.Mutex
	tokens map[string]string // email -> token
}

func (n *captureNotifier) NotifyPasswordReset(_ context.Context, email, token string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.tokens == nil {
		n.tokens = make(map[string]string)
	}
	n.tokens[email] = token
	return nil
}

func (n *captureNotifier) token(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens[email]
}

// fakeFlows returns canned outputs or errors per flow
type fakeFlows struct {
	mu      sync.Mutex
	outputs map[flows.Name]any
	errs    map[flows.Name]error
	inputs  map[flows.Name]json.RawMessage
}

func (f *fakeFlows) Run(_ context.Context, name flows.Name, input json.RawMessage) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inputs == nil {
		f.inputs = make(map[flows.Name]json.RawMessage)
	}
	f.inputs[name] = input
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	if out, ok := f.outputs[name]; ok {
		return out, nil
	}
	return nil, flows.ErrUnknownFlow
}

// fakeJobs returns a fixed result or error
type fakeJobs struct {
	result      *jobs.Result
	err         error
	role        string
	invalidated int
}

func (f *fakeJobs) Invalidate() { f.invalidated++ }

func (f *fakeJobs) Fetch(_ context.Context, role string) (*jobs.Result, error) {
	f.role = role
	return f.result, f.err
}

// memResumes records uploaded objects
type memResumes struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memResumes) Put(_ context.Context, key, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return nil
}

func (m *memResumes) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (m *memResumes) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type testEnv struct {
	server   *Server
	handler  http.Handler
	db       *memDB
	flows    *fakeFlows
	jobs     *fakeJobs
	store    *config.Store
	resumes  *memResumes
	notifier *captureNotifier
}

func testPasswordConfig() *config.PasswordConfig {
	return &config.PasswordConfig{BcryptCost: 4, ResetTTL: time.Hour}
}

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{Secret: "test-secret-key-for-jwt-signing", ExpirationHours: 24, Issuer: "career-coach-test"}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

// newTestEnvWith lets a test adjust the dependencies before the server is built
func newTestEnvWith(t *testing.T, adjust func(*Dependencies)) *testEnv {
	t.Helper()
	t.Setenv(config.KeyAdzunaAppID, "")
	t.Setenv(config.KeyAdzunaAPIKey, "")

	store, err := config.NewStore(filepath.Join(t.TempDir(), ".env.local"))
	require.NoError(t, err)

	env := &testEnv{
		db:       newMemDB(),
		flows:    &fakeFlows{outputs: map[flows.Name]any{}, errs: map[flows.Name]error{}},
		jobs:     &fakeJobs{},
		store:    store,
		resumes:  &memResumes{},
		notifier: &captureNotifier{},
	}
	deps := Dependencies{
		Users:       env.db,
		Flows:       env.flows,
		Jobs:        env.jobs,
		Credentials: store,
		Resumes:     env.resumes,
		Notifier:    env.notifier,
		Passwords:   testPasswordConfig(),
		JWT:         testJWTConfig(),
		RateLimit:   &ratelimit.Config{Enabled: false},
	}
	if adjust != nil {
		adjust(&deps)
	}
	env.server = NewWithDependencies(0, deps)
	env.handler = env.server.Handler()
	t.Cleanup(env.server.Close)
	return env
}

// do sends a request through the full middleware chain
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its session token
func (e *testEnv) register(t *testing.T, email string) (string, uuid.UUID) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Sam Rivera", "email": email, "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp types.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
