package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bidvault/config"
	"bidvault/internal/engine"
	"bidvault/internal/engine/enginetest"
	"bidvault/internal/handler"
	"bidvault/internal/httpserver"
	"bidvault/internal/model"
	"bidvault/internal/service/auth"
	"bidvault/internal/service/query"
)

const jwtSecret = "router-test-secret"

// memUserStore is the in-memory auth.UserStore for HTTP tests.
type memUserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{nextID: 1, users: map[string]*model.User{}}
}

func (m *memUserStore) CreateUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now()
	m.users[u.Email] = u
	return nil
}

func (m *memUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, engine.ErrNotFound
}

type testServer struct {
	router *gin.Engine
	store  *enginetest.MemStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := enginetest.NewMemStore()
	logger := zap.NewNop()
	engCfg := config.EngineConfig{DisputeQuorum: config.QuorumSingle}

	h := handler.New(
		engine.NewProjectRegistry(store, logger),
		engine.NewBidLedger(store, logger),
		engine.NewEscrowVault(store, engCfg, logger),
		engine.NewDisputeArbitration(store, engCfg, logger),
		query.NewService(store, nil, logger),
		auth.NewService(newMemUserStore(), jwtSecret, logger),
		logger,
	)

	ready := func(ctx context.Context) error { return nil }
	return &testServer{
		router: httpserver.NewRouter(h, jwtSecret, logger, ready),
		store:  store,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers a user and returns their token. User ids are assigned in
// registration order starting at 1.
func (s *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/register", "", gin.H{"email": email, "password": "hunter2hunter2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": email, "password": "hunter2hunter2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/register", "", gin.H{"email": "owner@example.com", "password": "hunter2hunter2"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate email.
	w = s.do(t, http.MethodPost, "/register", "", gin.H{"email": "owner@example.com", "password": "hunter2hunter2"})
	require.Equal(t, http.StatusConflict, w.Code)

	// Wrong password.
	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": "owner@example.com", "password": "wrongwrongwrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/login", "", gin.H{"email": "owner@example.com", "password": "hunter2hunter2"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/projects", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/projects", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ownerToken := s.signup(t, "owner@example.com")
	contractorToken := s.signup(t, "contractor@example.com")

	w := s.do(t, http.MethodPost, "/projects", ownerToken, gin.H{
		"description": "loft conversion",
		"budget":      300,
		"deadline":    time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"milestones":  []int64{100, 200},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/projects/1/bids", contractorToken, gin.H{
		"amount":          300,
		"completion_days": 30,
		"milestones":      []int64{100, 200},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Only the owner may select.
	w = s.do(t, http.MethodPost, "/projects/1/select/0", contractorToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/projects/1/select/0", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/projects/1/deposit", ownerToken, gin.H{"amount": 300})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/projects/1/escrow", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"balance":300`)

	w = s.do(t, http.MethodPost, "/projects/1/milestones/0/release", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Releasing the same milestone again conflicts.
	w = s.do(t, http.MethodPost, "/projects/1/milestones/0/release", ownerToken, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	// Contractor raises a dispute; the owner's yes vote resolves it.
	w = s.do(t, http.MethodPost, "/projects/1/disputes", contractorToken, gin.H{"reason": "payment overdue"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/projects/1/milestones/1/release", ownerToken, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/disputes/1/vote", ownerToken, gin.H{"approve": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), "payment-released")

	w = s.do(t, http.MethodPost, "/projects/1/milestones/1/release", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/projects/1", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"closed"`)

	w = s.do(t, http.MethodGet, "/balance", contractorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"balance":300`)
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	ownerToken := s.signup(t, "owner@example.com")

	// Missing project.
	w := s.do(t, http.MethodGet, "/projects/99", ownerToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// Schedule that does not sum to the budget.
	w = s.do(t, http.MethodPost, "/projects", ownerToken, gin.H{
		"description": "bad schedule",
		"budget":      300,
		"deadline":    time.Now().Add(time.Hour).Format(time.RFC3339),
		"milestones":  []int64{100, 100},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Malformed path parameter.
	w = s.do(t, http.MethodGet, "/projects/abc", ownerToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestTraceHeaderEchoed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Trace-ID", "abc123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, "abc123", w.Header().Get("X-Trace-ID"))

	// Minted when absent.
	w2 := s.do(t, http.MethodGet, "/healthz", "", nil)
	require.NotEmpty(t, w2.Header().Get("X-Trace-ID"))
}

func TestListProjects(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")

	for i := 0; i < 3; i++ {
		w := s.do(t, http.MethodPost, "/projects", token, gin.H{
			"description": fmt.Sprintf("project %d", i),
			"budget":      100,
			"deadline":    time.Now().Add(time.Hour).Format(time.RFC3339),
			"milestones":  []int64{100},
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := s.do(t, http.MethodGet, "/projects", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Projects []model.Project `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Projects, 3)
}
