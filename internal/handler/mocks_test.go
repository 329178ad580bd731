package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/craftfolio/portfolio-server-go/internal/auth"
	"github.com/craftfolio/portfolio-server-go/internal/database"
	"github.com/craftfolio/portfolio-server-go/internal/middleware"
	"github.com/craftfolio/portfolio-server-go/internal/model"
	"github.com/craftfolio/portfolio-server-go/internal/repository"
	"github.com/craftfolio/portfolio-server-go/internal/service"
	"github.com/craftfolio/portfolio-server-go/internal/storage"
)

type mockUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*model.User{}}
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmailOrUsername(ctx context.Context, identifier string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == identifier || u.Username == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user := &model.User{
		ID:           fmt.Sprintf("00000000-0000-0000-0000-%012d", m.nextID),
		Fullname:     params.Fullname,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		UserType:     params.UserType,
		AvatarKey:    params.AvatarKey,
		AvatarURL:    params.AvatarURL,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[user.ID] = user
	cp := *user
	return &cp, nil
}

func (m *mockUserRepo) UpdateRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.RefreshToken = &token
		u.RefreshTokenExpiresAt = &expiresAt
	}
	return nil
}

func (m *mockUserRepo) ClearRefreshToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.RefreshToken = nil
		u.RefreshTokenExpiresAt = nil
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id string, params model.UpdateProfileParams) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	if params.Fullname != nil {
		u.Fullname = *params.Fullname
	}
	if params.Bio != nil {
		u.Bio = *params.Bio
	}
	if params.Headline != nil {
		u.Headline = *params.Headline
	}
	if params.AvatarKey != nil {
		u.AvatarKey = *params.AvatarKey
	}
	if params.AvatarURL != nil {
		u.AvatarURL = *params.AvatarURL
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) MarkProfileComplete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.IsProfileComplete = true
	}
	return nil
}

func (m *mockUserRepo) ClearExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockUserRepo) WithTx(tx *sqlx.Tx) repository.UserRepository {
	return m
}

func (m *mockUserRepo) FindPublic(ctx context.Context, limit, offset int) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []model.User{}
	for _, u := range m.users {
		if u.IsProfileComplete {
			users = append(users, u.Sanitized())
		}
	}
	return users, nil
}

type mockPortfolioRepo struct {
	mu         sync.Mutex
	portfolios map[string]*model.Portfolio
	nextID     int
}

func newMockPortfolioRepo() *mockPortfolioRepo {
	return &mockPortfolioRepo{portfolios: map[string]*model.Portfolio{}}
}

func (m *mockPortfolioRepo) FindByUserID(ctx context.Context, userID string) (*model.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.portfolios[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *mockPortfolioRepo) Create(ctx context.Context, params model.CreatePortfolioParams) (*model.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.portfolios[params.UserID]; ok {
		cp := *p
		return &cp, nil
	}
	m.nextID++
	p := &model.Portfolio{
		ID:        fmt.Sprintf("portfolio-%d", m.nextID),
		UserID:    params.UserID,
		Email:     params.Email,
		Social:    params.Social,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.portfolios[params.UserID] = p
	cp := *p
	return &cp, nil
}

func (m *mockPortfolioRepo) Update(ctx context.Context, userID string, params model.UpdatePortfolioParams) (*model.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.portfolios[userID]
	if !ok {
		return nil, nil
	}
	if params.About != nil {
		p.About = *params.About
	}
	if params.Skills != nil {
		p.Skills = *params.Skills
	}
	if params.Certificates != nil {
		p.Certificates = *params.Certificates
	}
	if params.Experience != nil {
		p.Experience = *params.Experience
	}
	if params.Education != nil {
		p.Education = *params.Education
	}
	if params.Social != nil {
		p.Social = *params.Social
	}
	cp := *p
	return &cp, nil
}

func (m *mockPortfolioRepo) ReplaceProjects(ctx context.Context, userID string, projects model.ProjectList) (*model.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.portfolios[userID]
	if !ok {
		return nil, nil
	}
	p.Projects = projects
	cp := *p
	return &cp, nil
}

func (m *mockPortfolioRepo) WithTx(tx *sqlx.Tx) repository.PortfolioRepository {
	return m
}

func (m *mockPortfolioRepo) FindPublic(ctx context.Context, limit, offset int) ([]model.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	portfolios := []model.Portfolio{}
	for _, p := range m.portfolios {
		portfolios = append(portfolios, *p)
	}
	return portfolios, nil
}

type mockStorage struct {
	mu      sync.Mutex
	uploads int
}

func (m *mockStorage) Upload(ctx context.Context, body io.Reader, contentType, folder string) (*storage.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
	key := fmt.Sprintf("%s/object-%d", folder, m.uploads)
	return &storage.UploadResult{
		URL: "https://cdn.example.test/" + key,
		Key: key,
	}, nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return nil
}

type mockTxRunner struct{}

func (m *mockTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

// testEnv wires real services over in-memory stores so handler tests cover
// the request path end to end.
type testEnv struct {
	users      *mockUserRepo
	portfolios *mockPortfolioRepo
	issuer     *auth.Issuer

	authService      *service.AuthService
	userService      *service.UserService
	portfolioService *service.PortfolioService
	chatbotService   *service.ChatbotService
}

func newTestEnv() *testEnv {
	users := newMockUserRepo()
	portfolios := newMockPortfolioRepo()
	objStorage := &mockStorage{}
	issuer := auth.NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)

	portfolioService := service.NewPortfolioService(&mockTxRunner{}, portfolios, users)
	authService := service.NewAuthService(users, portfolioService, issuer, objStorage)
	userService := service.NewUserService(users, objStorage)
	chatbotService := service.NewChatbotService(portfolioService)

	return &testEnv{
		users:            users,
		portfolios:       portfolios,
		issuer:           issuer,
		authService:      authService,
		userService:      userService,
		portfolioService: portfolioService,
		chatbotService:   chatbotService,
	}
}

// passthroughAuth skips token verification and injects the given user, so
// handler tests exercise routing without minting tokens.
func passthroughAuth(user *model.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func noopMiddleware(next http.Handler) http.Handler {
	return next
}

// multipartForm builds a multipart body with the given fields and an
// optional avatar part.
func multipartForm(fields map[string]string, withAvatar bool) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	if withAvatar {
		part, _ := writer.CreateFormFile("avatar", "avatar.png")
		part.Write([]byte("fake-image-bytes"))
	}
	writer.Close()
	return body, writer.FormDataContentType()
}
