package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"compass/api/internal/auth"
	"compass/api/internal/authpw"
	"compass/api/internal/catalog"
	"compass/api/internal/config"
	"compass/api/internal/export"
	"compass/api/internal/rbac"
	"compass/api/internal/search"
	"compass/api/internal/store"
	"compass/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	Email        string
	FirstName    string
	LastName     string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	GetAllProgress(ctx context.Context, userID string) (map[string]bool, error)
	UpsertProgress(ctx context.Context, userID, taskID string, completed bool) (store.ProgressRecord, error)
	ResetProgress(ctx context.Context, userID string) error
	ListAllProgress(ctx context.Context) ([]store.ProgressRecord, error)
	CreateUser(ctx context.Context, user store.User) error
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
	EnsureUser(ctx context.Context, userID string) (store.User, error)
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
	Ping(ctx context.Context) error
}

// sessionStore holds refresh tokens. Redis-backed when configured,
// otherwise the database tables serve.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// dbSessions adapts the data store's refresh session tables to the
// sessionStore interface.
type dbSessions struct {
	store dataStore
}

func (d dbSessions) SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error {
	return d.store.SaveRefreshSession(ctx, tokenHash, user.ID, expiresAt)
}

func (d dbSessions) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	return d.store.LookupRefreshSession(ctx, tokenHash)
}

func (d dbSessions) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	return d.store.RevokeRefreshSession(ctx, tokenHash)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	search   *search.Service
	export   *export.Service
	authpw   *authpw.Service
}

func New(cfg config.Config, dataStore dataStore, searchService *search.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: dbSessions{store: dataStore},
		search:   searchService,
		export:   export.NewService(),
		authpw:   authpw.NewService(userStoreAdapter{dataStore}, cfg.AdminEmails),
	}
}

func NewWithSessionStore(cfg config.Config, dataStore dataStore, sessions sessionStore, searchService *search.Service) *Service {
	svc := New(cfg, dataStore, searchService)
	svc.sessions = sessions
	return svc
}

// userStoreAdapter narrows dataStore to the authpw contract.
type userStoreAdapter struct {
	store dataStore
}

func (a userStoreAdapter) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	return a.store.GetUserByEmail(ctx, email)
}

func (a userStoreAdapter) CreateUser(ctx context.Context, user store.User) error {
	return a.store.CreateUser(ctx, user)
}

// Bootstrap verifies catalog integrity and, in single-tenant mode,
// ensures the sentinel user row exists.
func (s *Service) Bootstrap(ctx context.Context) error {
	if err := catalog.Validate(); err != nil {
		return err
	}
	if s.cfg.SingleUserID != "" {
		if _, err := s.store.EnsureUser(ctx, s.cfg.SingleUserID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) SignUp(ctx context.Context, req authpw.SignUpRequest) (Session, error) {
	user, err := s.authpw.SignUp(ctx, req)
	if err != nil {
		return Session{}, domainError(http.StatusBadRequest, "SIGNUP_FAILED", err.Error(), nil)
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, req authpw.SignInRequest) (Session, error) {
	user, err := s.authpw.SignIn(ctx, req)
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	// Rotation: the presented token is dead either way.
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Admin: user.IsAdmin,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Role:         roleOf(user),
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      roleOf(user),
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// SingleUserSession returns the sentinel session for single-tenant
// deployments, or false when multi-tenant auth is required.
func (s *Service) SingleUserSession(ctx context.Context) (Session, bool) {
	if s.cfg.SingleUserID == "" {
		return Session{}, false
	}
	user, err := s.store.EnsureUser(ctx, s.cfg.SingleUserID)
	if err != nil {
		return Session{}, false
	}
	return Session{
		UserID: user.ID,
		Email:  user.Email,
		Role:   roleOf(user),
	}, true
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

func roleOf(user store.User) string {
	if user.IsAdmin {
		return string(rbac.RoleAdmin)
	}
	return string(rbac.RoleStudent)
}

// Progress returns the caller's completion mapping. Absent tasks are
// implicitly not completed.
func (s *Service) Progress(ctx context.Context, userID string) (map[string]bool, error) {
	return s.store.GetAllProgress(ctx, userID)
}

// UpdateProgress toggles one task for one user. The task identifier is
// not checked against the catalog: stale identifiers from retired
// catalog entries live in the table harmlessly.
func (s *Service) UpdateProgress(ctx context.Context, userID, taskID string, completed bool) (store.ProgressRecord, error) {
	if strings.TrimSpace(taskID) == "" {
		return store.ProgressRecord{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data",
			map[string]string{"taskId": "taskId is required"})
	}
	return s.store.UpsertProgress(ctx, userID, taskID, completed)
}

// ResetProgress deletes every record for the user in one bulk call.
func (s *Service) ResetProgress(ctx context.Context, userID string) error {
	return s.store.ResetProgress(ctx, userID)
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (map[string]any, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":        user.ID,
		"email":     user.Email,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"isAdmin":   user.IsAdmin,
	}, nil
}

func (s *Service) Search(q string, limit int) search.Response {
	return s.search.Search(search.Query{Text: q, Limit: limit})
}

// Export renders the caller's checklist state as a downloadable PDF.
func (s *Service) Export(ctx context.Context, session Session) (export.Result, error) {
	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		return export.Result{}, err
	}
	progress, err := s.store.GetAllProgress(ctx, session.UserID)
	if err != nil {
		return export.Result{}, err
	}
	return s.export.Checklist(ctx, export.Request{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Progress:  progress,
	})
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
