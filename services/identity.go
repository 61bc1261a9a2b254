package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/hilman45/ai-exam-prep-tutor/models"
	"github.com/hilman45/ai-exam-prep-tutor/utils"
)

type Identity struct {
	UserID      uuid.UUID
	DisplayName string
	Role        string
}

// IdentityVerifier xác thực bearer token và trả danh tính người dùng
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

var ErrInvalidToken = errors.New("token không hợp lệ hoặc hết hạn")

type JWTVerifier struct {
	jwt *utils.JWTManager
}

func NewJWTVerifier(m *utils.JWTManager) *JWTVerifier { return &JWTVerifier{jwt: m} }

func (v *JWTVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := v.jwt.VerifyToken(token)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	role := claims.Role
	if role == "" {
		role = string(models.RoleStudent)
	}
	return Identity{UserID: id, DisplayName: claims.Name, Role: role}, nil
}

// SupabaseVerifier hỏi Supabase Auth (/auth/v1/user), kết quả được cache ngắn theo token
type SupabaseVerifier struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	cache      *cache.Cache
	cacheTTL   time.Duration
	now        func() time.Time
}

func NewSupabaseVerifier(supabaseURL, anonKey string) *SupabaseVerifier {
	return &SupabaseVerifier{
		baseURL:    strings.TrimRight(supabaseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache.New(2*time.Minute, 5*time.Minute),
		cacheTTL:   2 * time.Minute,
		now:        time.Now,
	}
}

type supabaseUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	key := tokenKey(token)
	if cached, ok := v.cache.Get(key); ok {
		return cached.(Identity), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.anonKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("không gọi được Supabase Auth: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return Identity{}, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("Supabase Auth trả về %d", resp.StatusCode)
	}

	var u supabaseUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return Identity{}, fmt.Errorf("phản hồi Supabase Auth không hợp lệ: %w", err)
	}
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	ident := Identity{UserID: id, DisplayName: u.Email, Role: string(models.RoleStudent)}
	if name, ok := u.UserMetadata["username"].(string); ok && name != "" {
		ident.DisplayName = name
	}
	if role, ok := u.AppMetadata["role"].(string); ok && role != "" {
		ident.Role = role
	}
	if ttl := v.ttlFor(token); ttl > 0 {
		v.cache.Set(key, ident, ttl)
	}
	return ident, nil
}

// ttlFor không cho cache sống lâu hơn hạn exp của chính token; Supabase đã kiểm chữ ký nên chỉ đọc claim
func (v *SupabaseVerifier) ttlFor(token string) time.Duration {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return v.cacheTTL
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return v.cacheTTL
	}
	if left := exp.Sub(v.now()); left < v.cacheTTL {
		return left
	}
	return v.cacheTTL
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
