package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bher20/ecoenergy/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// Resources guarded by the enforcer.
const (
	ObjAppliances  = "appliances"
	ObjConsumption = "consumption"
	ObjHistory     = "history"
	ObjReport      = "report"

	ActRead  = "read"
	ActWrite = "write"
)

// Accounts may only touch their own resources; admins may touch anyone's.
const policyModel = `
[request_definition]
r = sub, owner, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (r.obj == p.obj || p.obj == "*") && (r.act == p.act || p.act == "*") && (r.sub == r.owner || p.sub == "admin")
`

type Service struct {
	storage  storage.Storage
	enforcer *casbin.SyncedEnforcer
	tokenTTL string
	log      *zap.Logger
	now      func() time.Time
}

// Options tunes a Service. TokenTTL uses the ParseExpiration formats.
type Options struct {
	TokenTTL string
	Logger   *zap.Logger
}

func NewService(s storage.Storage, opts Options) (*Service, error) {
	if _, err := ParseExpiration(opts.TokenTTL, time.Now()); err != nil {
		return nil, fmt.Errorf("token ttl: %w", err)
	}
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}

	policies := [][]string{
		{storage.RoleAdmin, "*", "*"},
		{storage.RoleUser, ObjAppliances, ActRead},
		{storage.RoleUser, ObjAppliances, ActWrite},
		{storage.RoleUser, ObjConsumption, ActRead},
		{storage.RoleUser, ObjHistory, ActRead},
		{storage.RoleUser, ObjHistory, ActWrite},
		{storage.RoleUser, ObjReport, ActRead},
		{storage.RoleUser, ObjReport, ActWrite},
	}
	if _, err := e.AddPolicies(policies); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{storage: s, enforcer: e, tokenTTL: opts.TokenTTL, log: log, now: time.Now}, nil
}

// normalizeUsername is applied to every username entering the service so
// registration and login agree on the stored key.
func normalizeUsername(username string) string { return strings.TrimSpace(username) }

// Register creates a regular account.
func (s *Service) Register(ctx context.Context, username, password string) (*storage.Account, error) {
	return s.RegisterWithRole(ctx, username, password, storage.RoleUser)
}

func (s *Service) RegisterWithRole(ctx context.Context, username, password, role string) (*storage.Account, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if role != storage.RoleAdmin {
		role = storage.RoleUser
	}

	existing, err := s.storage.GetAccount(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrDuplicateAccount, username)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	acc := storage.Account{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.storage.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}
	s.log.Info("account registered", zap.String("username", username), zap.String("role", role))
	return &acc, nil
}

// Authenticate checks the password of username. A legacy SHA-256 digest is
// replaced by a bcrypt hash on success.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*storage.Account, error) {
	username = normalizeUsername(username)
	if username == "" {
		return nil, ErrInvalidCredentials
	}
	acc, err := s.storage.GetAccount(ctx, username)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrInvalidCredentials
	}
	ok, legacy := VerifyPassword(acc.PasswordHash, password)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if legacy {
		hash, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		if err := s.storage.UpdatePasswordHash(ctx, username, hash); err != nil {
			return nil, fmt.Errorf("upgrade password hash: %w", err)
		}
		acc.PasswordHash = hash
		s.log.Info("upgraded legacy password hash", zap.String("username", username))
	}
	return acc, nil
}

// Session is the result of a successful login. Token is only ever
// returned here; storage keeps its hash.
type Session struct {
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Login authenticates and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	acc, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	expiresAt, err := ParseExpiration(s.tokenTTL, s.now())
	if err != nil {
		return nil, err
	}
	_, raw, err := s.CreateToken(ctx, acc.Username, expiresAt)
	if err != nil {
		return nil, err
	}
	return &Session{Username: acc.Username, Role: acc.Role, Token: raw, ExpiresAt: expiresAt}, nil
}

func (s *Service) CreateToken(ctx context.Context, username string, expiresAt *time.Time) (*storage.Token, string, error) {
	rawToken := uuid.New().String() + uuid.New().String()

	t := storage.Token{
		ID:        uuid.New().String(),
		Username:  username,
		TokenHash: hashToken(rawToken),
		CreatedAt: s.now(),
		ExpiresAt: expiresAt,
	}
	if err := s.storage.CreateToken(ctx, t); err != nil {
		return nil, "", err
	}
	return &t, rawToken, nil
}

func (s *Service) ValidateToken(ctx context.Context, rawToken string) (*storage.Token, error) {
	t, err := s.storage.GetTokenByHash(ctx, hashToken(rawToken))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrInvalidToken
	}
	if t.Expired(s.now()) {
		return nil, ErrTokenExpired
	}
	if err := s.storage.UpdateTokenLastUsed(ctx, t.ID); err != nil {
		s.log.Warn("token last-used update failed", zap.String("token_id", t.ID), zap.Error(err))
	}
	return t, nil
}

// Logout revokes rawToken.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	t, err := s.storage.GetTokenByHash(ctx, hashToken(rawToken))
	if err != nil {
		return err
	}
	if t == nil {
		return ErrInvalidToken
	}
	return s.storage.DeleteToken(ctx, t.ID)
}

// Enforce reports whether acc may perform act on obj owned by owner.
func (s *Service) Enforce(acc *storage.Account, owner, obj, act string) (bool, error) {
	if acc == nil {
		return false, nil
	}
	// Subjects are prefixed so an account named like a role cannot
	// inherit it.
	sub := "account:" + acc.Username
	if _, err := s.enforcer.AddGroupingPolicy(sub, acc.Role); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(sub, "account:"+owner, obj, act)
}
