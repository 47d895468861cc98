package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Good-for-good/goodforgood-sub000/internal/audit"
	"github.com/Good-for-good/goodforgood-sub000/internal/audit/trail"
	"github.com/Good-for-good/goodforgood-sub000/internal/auth"
	"github.com/Good-for-good/goodforgood-sub000/internal/config"
	"github.com/Good-for-good/goodforgood-sub000/internal/db"
)

const testCookie = "gfg_session"

// fakeGateway keeps a handful of tables in memory. Methods the tests never
// reach are left to the embedded nil interface and panic if called.
type fakeGateway struct {
	db.Gateway

	mu        sync.Mutex
	seq       int
	members   map[string]*db.Member
	donations map[string]*db.Donation
	links     map[string]*db.Link // by URL
	entries   []audit.Entry
	auditErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		members:   make(map[string]*db.Member),
		donations: make(map[string]*db.Donation),
		links:     make(map[string]*db.Link),
	}
}

func (g *fakeGateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s-%d", prefix, g.seq)
}

func (g *fakeGateway) GetMemberByID(_ context.Context, id string) (*db.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m, nil
}

func (g *fakeGateway) GetMemberByEmail(_ context.Context, email string) (*db.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members {
		if m.Email == email {
			return m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// UpdateMember mirrors the SQL: nil keeps a field and an empty nullable field
// clears it.
func (g *fakeGateway) UpdateMember(_ context.Context, arg db.UpdateMemberParams) (*db.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	old, ok := g.members[arg.ID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	m := *old
	if arg.Name != nil {
		m.Name = *arg.Name
	}
	if arg.Email != nil {
		m.Email = strings.ToLower(*arg.Email)
	}
	m.Phone = clearable(m.Phone, arg.Phone)
	m.Address = clearable(m.Address, arg.Address)
	m.TrusteeRole = clearable(m.TrusteeRole, arg.TrusteeRole)
	if arg.AccountStatus != nil {
		m.AccountStatus = *arg.AccountStatus
	}
	if arg.PasswordHash != nil {
		m.PasswordHash = *arg.PasswordHash
	}
	m.UpdatedAt = time.Now()
	g.members[m.ID] = &m
	return &m, nil
}

func clearable(cur, next *string) *string {
	switch {
	case next == nil:
		return cur
	case *next == "":
		return nil
	default:
		return next
	}
}

func (g *fakeGateway) DeleteMember(_ context.Context, id string) (*db.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	delete(g.members, id)
	return m, nil
}

func (g *fakeGateway) CreateDonation(_ context.Context, arg db.CreateDonationParams) (*db.Donation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := &db.Donation{
		ID:        g.nextID("don"),
		Amount:    arg.Amount,
		Purpose:   arg.Purpose,
		DonorName: arg.DonorName,
		Type:      arg.Type,
		Date:      arg.Date,
		Notes:     arg.Notes,
	}
	g.donations[d.ID] = d
	return d, nil
}

func (g *fakeGateway) ListDonations(_ context.Context, _ db.ListParams) ([]*db.Donation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*db.Donation, 0, len(g.donations))
	for _, d := range g.donations {
		out = append(out, d)
	}
	return out, nil
}

func (g *fakeGateway) GetDonationByID(_ context.Context, id string) (*db.Donation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, ok := g.donations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

func (g *fakeGateway) DeleteDonation(_ context.Context, id string) (*db.Donation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, ok := g.donations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	delete(g.donations, id)
	return d, nil
}

func (g *fakeGateway) UpsertLinkByURL(_ context.Context, arg db.CreateLinkParams) (*db.UpsertedLink, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.links[arg.URL]
	if !ok {
		l = &db.Link{ID: g.nextID("link"), URL: arg.URL}
		g.links[arg.URL] = l
	}
	l.Title = arg.Title
	return &db.UpsertedLink{Link: *l, WasInserted: !ok}, nil
}

func (g *fakeGateway) AppendAuditEntry(_ context.Context, e audit.Entry) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.auditErr != nil {
		return g.auditErr
	}
	g.entries = append(g.entries, e)
	return nil
}

func (g *fakeGateway) auditEntries() []audit.Entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]audit.Entry(nil), g.entries...)
}

// fakeAuditReader returns canned pages.
type fakeAuditReader struct {
	err    error
	filter trail.Filter
}

func (r *fakeAuditReader) List(_ context.Context, f trail.Filter) (*trail.Page, error) {
	r.filter = f
	if r.err != nil {
		return nil, r.err
	}
	return &trail.Page{Logs: []trail.Log{}, EntityTypes: []string{"donation"}, Page: 1, PageSize: 20}, nil
}

func (r *fakeAuditReader) Groups(_ context.Context, f trail.Filter) (*trail.GroupPage, error) {
	r.filter = f
	if r.err != nil {
		return nil, r.err
	}
	return &trail.GroupPage{Groups: []trail.Group{}, EntityTypes: []string{}, Page: 1, PageSize: 20}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{
			Duration:        time.Hour,
			ExtendThreshold: 30 * time.Minute,
			PruneAge:        24 * time.Hour,
			CleanupInterval: time.Minute,
			Store:           string(config.SessionStoreMemory),
			CookieName:      testCookie,
		},
		Audit: config.AuditConfig{
			RegroupWindow:   time.Second,
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		RateLimit: config.RateLimitConfig{LoginPerMinute: 60, LoginBurst: 10},
	}
}

// testEnv is the full HTTP stack over in-memory stores.
type testEnv struct {
	t        *testing.T
	cfg      *config.Config
	gw       *fakeGateway
	store    *auth.MemoryStore
	sessions *auth.Manager
	reader   *fakeAuditReader
	handler  http.Handler
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, fn := range mutate {
		fn(cfg)
	}

	gw := newFakeGateway()
	store := auth.NewMemoryStore()
	sessions := auth.NewManager(store, gw, cfg.Session)
	ic := audit.NewInterceptor(auth.NewResolver(sessions), audit.NewRecorder())
	reader := &fakeAuditReader{}

	handler, _ := NewRouter(Deps{
		Config:   cfg,
		Gateway:  db.Audited(gw, ic),
		Sessions: sessions,
		Audit:    reader,
	})

	return &testEnv{
		t:        t,
		cfg:      cfg,
		gw:       gw,
		store:    store,
		sessions: sessions,
		reader:   reader,
		handler:  handler,
	}
}

var (
	testPasswordHashOnce sync.Once
	testPasswordHash     string
)

// addMember stores a member whose password is "correct-horse".
func (e *testEnv) addMember(email string, role auth.Role, status string) *db.Member {
	e.t.Helper()
	testPasswordHashOnce.Do(func() {
		var err error
		testPasswordHash, err = auth.HashPassword("correct-horse")
		if err != nil {
			e.t.Fatalf("HashPassword: %v", err)
		}
	})

	e.gw.mu.Lock()
	defer e.gw.mu.Unlock()
	m := &db.Member{
		ID:            e.gw.nextID("mem"),
		Name:          "Member " + email,
		Email:         email,
		AccountStatus: status,
		PasswordHash:  testPasswordHash,
	}
	if role != auth.RoleNone {
		r := string(role)
		m.TrusteeRole = &r
	}
	e.gw.members[m.ID] = m
	return m
}

// signIn creates a session for m directly in the store.
func (e *testEnv) signIn(m *db.Member) string {
	e.t.Helper()
	token, err := auth.GenerateToken()
	if err != nil {
		e.t.Fatalf("GenerateToken: %v", err)
	}
	now := time.Now()
	if err := e.store.Create(context.Background(), &auth.Session{
		Token:     token,
		MemberID:  m.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(e.cfg.Session.Duration),
	}); err != nil {
		e.t.Fatalf("Create session: %v", err)
	}
	return token
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	}
	return e.serve(req)
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to parse response: %v: %s", err, w.Body.String())
	}
	return v
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookie {
			return c
		}
	}
	return nil
}
