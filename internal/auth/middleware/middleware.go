package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-grader/internal/logging"
	"github.com/mind-engage/mindengage-grader/internal/rbac"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	hmac []byte

	adminUser     string
	adminPassHash []byte
	localAuth     bool
	ttl           time.Duration
}

type Option func(*AuthService)

// WithAdmin enables admin login against a bcrypt hash.
func WithAdmin(user, bcryptHash string) Option {
	return func(a *AuthService) { a.adminUser, a.adminPassHash = user, []byte(bcryptHash) }
}

// WithLocalAuth enables dev logins where the password equals the username.
func WithLocalAuth(enabled bool) Option {
	return func(a *AuthService) { a.localAuth = enabled }
}

func WithTTL(d time.Duration) Option {
	return func(a *AuthService) { a.ttl = d }
}

func NewAuthService(secret string, opts ...Option) *AuthService {
	a := &AuthService{hmac: []byte(secret), ttl: 8 * time.Hour}
	for _, o := range opts {
		o(a)
	}
	return a
}

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // "teacher", "student" or "admin"
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "mindengage-grader",
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Sub == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return c, nil
}

// Authenticate checks credentials and returns the role to issue.
func (a *AuthService) Authenticate(username, password, role string) (string, error) {
	if a.adminUser != "" && username == a.adminUser {
		if bcrypt.CompareHashAndPassword(a.adminPassHash, []byte(password)) != nil {
			return "", ErrInvalidCredentials
		}
		return RoleAdmin, nil
	}
	// dev accounts: "teacher:teacher" style, any username
	if a.localAuth && username != "" && username == password && (role == RoleTeacher || role == RoleStudent) {
		return role, nil
	}
	return "", ErrInvalidCredentials
}

// POST /auth/login  { "username": "...", "password": "...", "role": "teacher|student" }
func LoginHandler(a *AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		role, err := a.Authenticate(req.Username, req.Password, req.Role)
		if err != nil {
			logging.FromContext(r.Context()).WithField("username", req.Username).Warn("login rejected")
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(req.Username, role)
		if err != nil {
			http.Error(w, "issue token", 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok, "role": role})
	}
}

// JWTMiddleware rejects requests without a valid bearer token and stores the
// token's subject and role in the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithSubject(r.Context(), c.Sub)
			ctx = rbac.WithRole(ctx, c.Role)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).WithField("sub", c.Sub))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
