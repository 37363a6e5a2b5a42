package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Issuer:     "strokerisk-test",
		Expiration: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)
	userID := uuid.New()
	roles := []string{RoleClinician, RoleAuditor}

	tokenString, err := svc.GenerateToken(userID, roles)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if tokenString == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	claims, err := svc.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %v, want %v", claims.UserID, userID)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != RoleClinician || claims.Roles[1] != RoleAuditor {
		t.Errorf("Roles = %v, want [%s %s]", claims.Roles, RoleClinician, RoleAuditor)
	}
	if claims.Issuer != "strokerisk-test" {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, "strokerisk-test")
	}
	if claims.Subject != userID.String() {
		t.Errorf("Subject = %q, want %q", claims.Subject, userID.String())
	}
}

func TestNewJWTService_RequiresKeyMaterial(t *testing.T) {
	if _, err := NewJWTService(JWTConfig{Issuer: "x"}); !errors.Is(err, ErrNoKeyMaterial) {
		t.Fatalf("NewJWTService() error = %v, want ErrNoKeyMaterial", err)
	}
	if _, err := NewJWTService(JWTConfig{PrivateKeyPEM: "not a pem"}); err == nil {
		t.Fatal("NewJWTService() with a malformed private key should fail")
	}
}

func TestNewJWTService_DefaultExpiration(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "s"})
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}
	if svc.ttl != DefaultExpiration {
		t.Errorf("ttl = %v, want %v", svc.ttl, DefaultExpiration)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret",
		Issuer:     "strokerisk-test",
		Expiration: -1 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}

	tokenString, err := svc.GenerateToken(uuid.New(), []string{RoleClinician})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := svc.ValidateToken(tokenString); err == nil {
		t.Fatal("ValidateToken() should fail for expired token")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := newTestJWTService(t)
	tokenString, err := issuer.GenerateToken(uuid.New(), []string{RoleAdmin})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	other, err := NewJWTService(JWTConfig{Secret: "a-different-secret", Issuer: "strokerisk-test"})
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}
	if _, err := other.ValidateToken(tokenString); err == nil {
		t.Fatal("ValidateToken() should fail with wrong secret")
	}
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	svc := newTestJWTService(t)
	tokenString, err := svc.GenerateToken(uuid.New(), nil)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	other, err := NewJWTService(JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "someone-else"})
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}
	if _, err := other.ValidateToken(tokenString); err == nil {
		t.Fatal("ValidateToken() should fail for a foreign issuer")
	}
}

func TestValidateToken_NilUserID(t *testing.T) {
	svc := newTestJWTService(t)
	tokenString, err := svc.GenerateToken(uuid.Nil, []string{RoleClinician})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := svc.ValidateToken(tokenString); !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("ValidateToken() error = %v, want ErrMissingUserID", err)
	}
}

func TestValidateToken_InvalidString(t *testing.T) {
	svc := newTestJWTService(t)
	if _, err := svc.ValidateToken("not-a-valid-jwt"); err == nil {
		t.Fatal("ValidateToken() should fail for invalid token string")
	}
}

func TestRSAKeyPair(t *testing.T) {
	privPEM, pubPEM, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}

	issuer, err := NewJWTService(JWTConfig{PrivateKeyPEM: string(privPEM), Issuer: "strokerisk-test"})
	if err != nil {
		t.Fatalf("NewJWTService(private) error = %v", err)
	}
	validator, err := NewJWTService(JWTConfig{PublicKeyPEM: string(pubPEM), Issuer: "strokerisk-test"})
	if err != nil {
		t.Fatalf("NewJWTService(public) error = %v", err)
	}

	userID := uuid.New()
	tokenString, err := issuer.GenerateToken(userID, []string{RoleAPIClient})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := validator.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %v, want %v", claims.UserID, userID)
	}

	if _, err := validator.GenerateToken(userID, nil); !errors.Is(err, ErrCannotSign) {
		t.Fatalf("validation-only GenerateToken() error = %v, want ErrCannotSign", err)
	}
	if !validator.RSA() || newTestJWTService(t).RSA() {
		t.Error("RSA() should report the signing family")
	}

	hmac := newTestJWTService(t)
	hmacToken, err := hmac.GenerateToken(userID, nil)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := validator.ValidateToken(hmacToken); err == nil {
		t.Fatal("RSA validator should reject HS256 tokens")
	}
}

func TestLoadKeyFromFile(t *testing.T) {
	privPEM, _, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	dir := t.TempDir()

	good := filepath.Join(dir, "key.pem")
	if err := os.WriteFile(good, privPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadKeyFromFile(good); err != nil {
		t.Errorf("LoadKeyFromFile() error = %v", err)
	}

	bad := filepath.Join(dir, "bad.pem")
	if err := os.WriteFile(bad, []byte("plain text"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadKeyFromFile(bad); err == nil {
		t.Error("LoadKeyFromFile() should reject a file without a PEM block")
	}
	if _, err := LoadKeyFromFile(filepath.Join(dir, "missing.pem")); err == nil {
		t.Error("LoadKeyFromFile() should fail for a missing file")
	}
}

func TestClaimsHasRole(t *testing.T) {
	claims := Claims{Roles: []string{RoleClinician, RoleAuditor}}

	if !claims.HasRole(RoleClinician) {
		t.Error("HasRole(clinician) = false, want true")
	}
	if claims.HasRole(RoleAdmin) {
		t.Error("HasRole(admin) = true, want false")
	}
	if !claims.HasAnyRole(RoleAdmin, RoleAuditor) {
		t.Error("HasAnyRole(admin, auditor) = false, want true")
	}
	if claims.HasAnyRole() {
		t.Error("HasAnyRole() = true, want false")
	}
}

func TestClaimsContext(t *testing.T) {
	claims := &Claims{UserID: uuid.New(), Roles: []string{RoleAdmin}}

	ctx := ContextWithClaims(context.Background(), claims)
	got, ok := ClaimsFromContext(ctx)
	if !ok {
		t.Fatal("ClaimsFromContext() returned false")
	}
	if got.UserID != claims.UserID {
		t.Errorf("UserID = %v, want %v", got.UserID, claims.UserID)
	}

	if _, ok := ClaimsFromContext(context.Background()); ok {
		t.Error("ClaimsFromContext() on empty context returned true")
	}
}

func TestUnaryAuthInterceptor(t *testing.T) {
	svc := newTestJWTService(t)
	userID := uuid.New()
	token, err := svc.GenerateToken(userID, []string{RoleClinician})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	interceptor := UnaryAuthInterceptor(svc, []string{"/grpc.health.v1.Health/Check"})
	handler := func(ctx context.Context, _ any) (any, error) {
		claims, ok := ClaimsFromContext(ctx)
		if !ok {
			return "anonymous", nil
		}
		return claims.UserID.String(), nil
	}

	tests := []struct {
		name     string
		method   string
		md       metadata.MD
		wantCode codes.Code
		want     any
	}{
		{
			name:     "skipped method needs no token",
			method:   "/grpc.health.v1.Health/Check",
			wantCode: codes.OK,
			want:     "anonymous",
		},
		{
			name:     "missing metadata",
			method:   "/strokerisk.v1.StrokeRiskService/AssessRisk",
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "missing authorization header",
			method:   "/strokerisk.v1.StrokeRiskService/AssessRisk",
			md:       metadata.Pairs("x-other", "1"),
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "invalid token",
			method:   "/strokerisk.v1.StrokeRiskService/AssessRisk",
			md:       metadata.Pairs("authorization", "Bearer garbage"),
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "valid bearer token",
			method:   "/strokerisk.v1.StrokeRiskService/AssessRisk",
			md:       metadata.Pairs("authorization", "Bearer "+token),
			wantCode: codes.OK,
			want:     userID.String(),
		},
		{
			name:     "token without scheme",
			method:   "/strokerisk.v1.StrokeRiskService/AssessRisk",
			md:       metadata.Pairs("authorization", token),
			wantCode: codes.Unauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tt.md)
			}
			resp, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, handler)
			if got := status.Code(err); got != tt.wantCode {
				t.Fatalf("code = %v, want %v (err = %v)", got, tt.wantCode, err)
			}
			if tt.wantCode == codes.OK && resp != tt.want {
				t.Errorf("resp = %v, want %v", resp, tt.want)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newTestJWTService(t)
	token, err := svc.GenerateToken(uuid.New(), []string{RoleAuditor})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name    string
		header  string
		wantErr error
		ok      bool
	}{
		{name: "empty", wantErr: ErrMissingAuthorization},
		{name: "no scheme", header: token, wantErr: ErrMalformedAuthorization},
		{name: "basic scheme", header: "Basic " + token, wantErr: ErrMalformedAuthorization},
		{name: "blank token", header: "Bearer   ", wantErr: ErrMalformedAuthorization},
		{name: "lowercase scheme", header: "bearer " + token, ok: true},
		{name: "bearer", header: "Bearer " + token, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.Authenticate(tt.header)
			if tt.ok {
				if err != nil || !claims.HasRole(RoleAuditor) {
					t.Fatalf("Authenticate() = %v, %v", claims, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s fakeServerStream) Context() context.Context { return s.ctx }

func TestStreamAuthInterceptor(t *testing.T) {
	svc := newTestJWTService(t)
	token, err := svc.GenerateToken(uuid.New(), []string{RoleClinician})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	interceptor := StreamAuthInterceptor(svc, []string{"/grpc.health.v1.Health/Watch"})
	var sawClaims bool
	handler := func(_ any, ss grpc.ServerStream) error {
		_, sawClaims = ClaimsFromContext(ss.Context())
		return nil
	}

	skipped := fakeServerStream{ctx: context.Background()}
	if err := interceptor(nil, skipped, &grpc.StreamServerInfo{FullMethod: "/grpc.health.v1.Health/Watch"}, handler); err != nil {
		t.Fatalf("skipped method: %v", err)
	}
	if sawClaims {
		t.Error("skipped method should not carry claims")
	}

	info := &grpc.StreamServerInfo{FullMethod: "/strokerisk.v1.StrokeRiskService/Watch"}
	if err := interceptor(nil, skipped, info, handler); status.Code(err) != codes.Unauthenticated {
		t.Errorf("no token: code = %v, want Unauthenticated", status.Code(err))
	}

	authed := fakeServerStream{ctx: metadata.NewIncomingContext(context.Background(),
		metadata.Pairs("authorization", "Bearer "+token))}
	if err := interceptor(nil, authed, info, handler); err != nil {
		t.Fatalf("valid token: %v", err)
	}
	if !sawClaims {
		t.Error("handler stream context should carry claims")
	}
}

func TestRequireMethodRoles(t *testing.T) {
	interceptor := RequireMethodRoles(map[string][]string{
		"/strokerisk.v1.StrokeRiskService/InvalidateModel": {RoleAdmin},
	})
	guarded := &grpc.UnaryServerInfo{FullMethod: "/strokerisk.v1.StrokeRiskService/InvalidateModel"}
	open := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	handler := func(context.Context, any) (any, error) { return "ok", nil }

	if _, err := interceptor(context.Background(), nil, guarded, handler); status.Code(err) != codes.Unauthenticated {
		t.Errorf("no claims: code = %v, want Unauthenticated", status.Code(err))
	}

	clinician := ContextWithClaims(context.Background(), &Claims{Roles: []string{RoleClinician}})
	if _, err := interceptor(clinician, nil, guarded, handler); status.Code(err) != codes.PermissionDenied {
		t.Errorf("clinician: code = %v, want PermissionDenied", status.Code(err))
	}

	admin := ContextWithClaims(context.Background(), &Claims{Roles: []string{RoleAdmin}})
	if _, err := interceptor(admin, nil, guarded, handler); err != nil {
		t.Errorf("admin: unexpected error %v", err)
	}

	if _, err := interceptor(context.Background(), nil, open, handler); err != nil {
		t.Errorf("unlisted method: unexpected error %v", err)
	}
}

func TestHTTPMiddleware(t *testing.T) {
	svc := newTestJWTService(t)
	token, err := svc.GenerateToken(uuid.New(), []string{RoleClinician})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			t.Error("claims missing from request context")
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + token, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			HTTPMiddleware(svc)(next).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireRoleHTTP(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireRoleHTTP(RoleAdmin)(next)

	tests := []struct {
		name   string
		claims *Claims
		want   int
	}{
		{name: "no claims", want: http.StatusUnauthorized},
		{name: "wrong role", claims: &Claims{Roles: []string{RoleClinician}}, want: http.StatusForbidden},
		{name: "admin", claims: &Claims{Roles: []string{RoleAdmin}}, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/models/invalidate", nil)
			if tt.claims != nil {
				req = req.WithContext(ContextWithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
