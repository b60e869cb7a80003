package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/Likith-Yadav/PayCoreX/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Merchant is the authenticated caller. Every /v1 operation is scoped to its ID.
type Merchant struct {
	ID    string `json:"merchant_id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type contextKey string

const (
	merchantContextKey contextKey = "authenticated_merchant"

	// MerchantIDKey is the echo context key the request logger reads.
	MerchantIDKey = "merchant_id"
)

// JWTConfig holds the configuration for JWT middleware
type JWTConfig struct {
	Secret    string
	Logger    *zap.Logger
	SkipPaths []string // Paths to skip JWT validation
}

// JWTMiddleware validates HS256 bearer tokens and resolves the merchant from the
// merchant_id claim, falling back to sub.
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(c)
				}
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				config.Logger.Warn("Missing authorization header",
					zap.String("path", path),
					zap.String("method", c.Request().Method))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Authorization header required",
					"code":  "MISSING_AUTH_HEADER",
				})
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				config.Logger.Warn("Invalid authorization header format",
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid authorization header format. Expected: Bearer <token>",
					"code":  "INVALID_AUTH_FORMAT",
				})
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(config.Secret), nil
			})
			if err != nil {
				config.Logger.Warn("JWT validation failed",
					zap.Error(err),
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid or expired token",
					"code":  "INVALID_TOKEN",
				})
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				config.Logger.Warn("Invalid JWT claims", zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid token claims",
					"code":  "INVALID_CLAIMS",
				})
			}

			merchantID, _ := claims["merchant_id"].(string)
			if merchantID == "" {
				merchantID, _ = claims.GetSubject()
			}
			if merchantID == "" {
				config.Logger.Warn("Token carries no merchant identity", zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Token does not identify a merchant",
					"code":  "MISSING_MERCHANT",
				})
			}

			email, _ := claims["email"].(string)
			role, _ := claims["role"].(string)
			merchant := &Merchant{ID: merchantID, Email: email, Role: role}

			ctx := context.WithValue(c.Request().Context(), merchantContextKey, merchant)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(MerchantIDKey, merchantID)

			config.Logger.Debug("Merchant authenticated",
				zap.String("merchant_id", merchantID),
				zap.String("path", path))

			return next(c)
		}
	}
}

// GetMerchantFromContext extracts the authenticated merchant from the request context
func GetMerchantFromContext(c echo.Context) (*Merchant, error) {
	merchant, ok := c.Request().Context().Value(merchantContextKey).(*Merchant)
	if !ok || merchant == nil {
		return nil, fmt.Errorf("no authenticated merchant found in context")
	}
	return merchant, nil
}

// RequireMerchant returns the merchant ID, or an unauthenticated error for the
// HTTP error handler to render.
func RequireMerchant(c echo.Context) (string, error) {
	merchant, err := GetMerchantFromContext(c)
	if err != nil {
		return "", apperrors.NewAppError(apperrors.ErrUnauthenticated, "authentication required", err)
	}
	return merchant.ID, nil
}

// WithMerchant stores a merchant on ctx. Used by trusted internal callers and tests.
func WithMerchant(ctx context.Context, merchantID string) context.Context {
	return context.WithValue(ctx, merchantContextKey, &Merchant{ID: merchantID})
}
