package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/requestdata"
)

// JWTClaims carries the principal's isolation scope. Credential checks
// happen in the external identity provider; this service only verifies
// the signed assertion and projects it into request context.
type JWTClaims struct {
	TenantID       string   `json:"tid,omitempty"`
	OrganizationID string   `json:"oid,omitempty"`
	DepartmentIDs  []string `json:"dids,omitempty"`
	Isolation      string   `json:"iso,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(accessor scope.Accessor, ttl time.Duration) (string, error)
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
}

func NewAuthService(baseLog *logger.Logger, jwtSecretKey string) (AuthService, error) {
	if strings.TrimSpace(jwtSecretKey) == "" {
		return nil, fmt.Errorf("jwt secret key required")
	}
	return &authService{
		log:          baseLog.With("service", "AuthService"),
		jwtSecretKey: jwtSecretKey,
	}, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}

	accessor, err := accessorFromClaims(claims)
	if err != nil {
		return ctx, err
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		Accessor:    accessor,
	}), nil
}

func accessorFromClaims(claims *JWTClaims) (scope.Accessor, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return scope.Accessor{}, fmt.Errorf("invalid subject in token: %w", err)
	}
	accessor := scope.Accessor{
		UserID:    userID,
		Isolation: scope.IsolationLevel(claims.Isolation),
	}
	if claims.TenantID != "" {
		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			return scope.Accessor{}, fmt.Errorf("invalid tenant id in token: %w", err)
		}
		accessor.TenantID = tenantID
	}
	if accessor.Isolation != scope.IsolationPlatform && accessor.TenantID == uuid.Nil {
		return scope.Accessor{}, fmt.Errorf("token is missing a tenant scope")
	}
	if claims.OrganizationID != "" {
		orgID, err := uuid.Parse(claims.OrganizationID)
		if err != nil {
			return scope.Accessor{}, fmt.Errorf("invalid organization id in token: %w", err)
		}
		accessor.OrganizationID = &orgID
	}
	for _, raw := range claims.DepartmentIDs {
		deptID, err := uuid.Parse(raw)
		if err != nil {
			return scope.Accessor{}, fmt.Errorf("invalid department id in token: %w", err)
		}
		accessor.DepartmentIDs = append(accessor.DepartmentIDs, deptID)
	}
	return accessor, nil
}

func (as *authService) IssueToken(accessor scope.Accessor, ttl time.Duration) (string, error) {
	if accessor.UserID == uuid.Nil {
		return "", fmt.Errorf("missing user id")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	claims := JWTClaims{
		Isolation: string(accessor.Isolation),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accessor.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if accessor.TenantID != uuid.Nil {
		claims.TenantID = accessor.TenantID.String()
	}
	if accessor.OrganizationID != nil {
		claims.OrganizationID = accessor.OrganizationID.String()
	}
	for _, deptID := range accessor.DepartmentIDs {
		claims.DepartmentIDs = append(claims.DepartmentIDs, deptID.String())
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}
