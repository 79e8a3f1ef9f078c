package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ecoroute/internal/middleware"
	"ecoroute/internal/models"
	"ecoroute/internal/store"
	"ecoroute/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = primitive.NewObjectID()
	s.users[user.Email] = user
	return nil
}

func (s *fakeUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, store.ErrNotFound
}

func (s *fakeUserStore) SetEmailVerified(ctx context.Context, id primitive.ObjectID) error {
	return nil
}

func (s *fakeUserStore) SetLastLogin(ctx context.Context, id primitive.ObjectID) error {
	return nil
}

type fakeJobQueue struct {
	mu            sync.Mutex
	welcomeEmails []string
	notifications []models.Notification
}

func (f *fakeJobQueue) EnqueueWelcomeEmail(ctx context.Context, to, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomeEmails = append(f.welcomeEmails, to)
	return nil
}

func (f *fakeJobQueue) EnqueueVerificationEmail(ctx context.Context, to, name, code string) error {
	return nil
}

func (f *fakeJobQueue) EnqueueCollectionEmail(ctx context.Context, to, name, pointName string, volume float64) error {
	return nil
}

func (f *fakeJobQueue) EnqueueRouteEmail(ctx context.Context, to, name, routeName string) error {
	return nil
}

func (f *fakeJobQueue) EnqueueNotification(ctx context.Context, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, n)
	return nil
}

func setupAuthTest() (*gin.Engine, *fakeUserStore, *fakeJobQueue, *auth.JWTManager) {
	gin.SetMode(gin.TestMode)

	users := newFakeUserStore()
	jobs := &fakeJobQueue{}
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	handler := NewAuthHandler(users, jwtManager, jobs, nil)

	router := gin.New()
	router.POST("/api/auth/register", handler.Register)
	router.POST("/api/auth/login", handler.Login)
	router.GET("/api/auth/profile", middleware.AuthMiddleware(jwtManager), handler.Profile)
	return router, users, jobs, jwtManager
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterCreatesUserAndQueuesWelcome(t *testing.T) {
	router, users, jobs, _ := setupAuthTest()

	w := postJSON(router, "/api/auth/register", RegisterRequest{
		Email:    "coop@example.com",
		Password: "secret123",
		Name:     "Green Coop",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleCooperative, resp.User.Role)
	assert.True(t, resp.User.IsActive)

	created, err := users.FindByEmail(context.Background(), "coop@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", created.PasswordHash)

	assert.Equal(t, []string{"coop@example.com"}, jobs.welcomeEmails)
	require.Len(t, jobs.notifications, 1)
	assert.Equal(t, models.NotificationTypeWelcome, jobs.notifications[0].Type)
	assert.Equal(t, created.ID, jobs.notifications[0].User)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router, _, _, _ := setupAuthTest()

	req := RegisterRequest{Email: "coop@example.com", Password: "secret123", Name: "Green Coop"}
	require.Equal(t, http.StatusCreated, postJSON(router, "/api/auth/register", req).Code)
	assert.Equal(t, http.StatusConflict, postJSON(router, "/api/auth/register", req).Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	router, _, _, _ := setupAuthTest()

	w := postJSON(router, "/api/auth/register", RegisterRequest{
		Email:    "coop@example.com",
		Password: "123",
		Name:     "Green Coop",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginSuccess(t *testing.T) {
	router, users, _, _ := setupAuthTest()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, users.Create(context.Background(), &models.User{
		Email:        "coop@example.com",
		PasswordHash: string(hash),
		Name:         "Green Coop",
		Role:         models.RoleCooperative,
		IsActive:     true,
	}))

	w := postJSON(router, "/api/auth/login", LoginRequest{
		Email:    "coop@example.com",
		Password: "secret123",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	router, users, _, _ := setupAuthTest()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, users.Create(context.Background(), &models.User{
		Email:        "coop@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}))

	w := postJSON(router, "/api/auth/login", LoginRequest{
		Email:    "coop@example.com",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	router, users, _, _ := setupAuthTest()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, users.Create(context.Background(), &models.User{
		Email:        "coop@example.com",
		PasswordHash: string(hash),
		IsActive:     false,
	}))

	w := postJSON(router, "/api/auth/login", LoginRequest{
		Email:    "coop@example.com",
		Password: "secret123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProfileReturnsUser(t *testing.T) {
	router, users, _, jwtManager := setupAuthTest()

	user := &models.User{
		Email:    "coop@example.com",
		Name:     "Green Coop",
		Role:     models.RoleCooperative,
		IsActive: true,
	}
	require.NoError(t, users.Create(context.Background(), user))

	token, err := jwtManager.GenerateToken(user.ID, user.Email, user.Role)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Green Coop")
	assert.NotContains(t, w.Body.String(), "password_hash")
}
