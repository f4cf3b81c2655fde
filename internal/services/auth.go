package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/requestdata"
	"github.com/menjil-org/menjil-backend/internal/types"
)

type JWTClaims struct {
	jwt.RegisteredClaims
	Nickname string `json:"nickname"`
	UserType string `json:"user_type,omitempty"`
}

// AuthService verifies access tokens issued by the account service. Issuing
// and refreshing tokens happens elsewhere.
type AuthService interface {
	Enabled() bool
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
}

func NewAuthService(log *logger.Logger, jwtSecretKey string) AuthService {
	serviceLog := log.With("service", "AuthService")
	if jwtSecretKey == "" {
		serviceLog.Warn("JWT_SECRET_KEY not set; requests are not authenticated")
	}
	return &authService{log: serviceLog, jwtSecretKey: jwtSecretKey}
}

func (as *authService) Enabled() bool {
	return as.jwtSecretKey != ""
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, errors.New("missing token")
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, errors.New("invalid or expired JWT token")
	}
	nickname := claims.Nickname
	if nickname == "" {
		nickname = claims.Subject
	}
	if nickname == "" {
		return ctx, errors.New("token carries no nickname")
	}
	if claims.UserType != "" && !types.SenderType(claims.UserType).Valid() {
		return ctx, fmt.Errorf("invalid user type in token: %q", claims.UserType)
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		Nickname:    nickname,
		UserType:    claims.UserType,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}
