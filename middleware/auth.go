package middleware

import (
	"database/sql"
	"draftdesk/config"
	"draftdesk/db"
	"draftdesk/logger"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SystemEmail owns every request while authentication is switched off.
const SystemEmail = "system@draftdesk.internal"

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
)

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := config.Current()

		if !cfg.Features.AuthEnabled {
			var systemID string
			err := db.GetDB().QueryRowContext(c.Request.Context(),
				"SELECT id FROM users WHERE email = $1", SystemEmail,
			).Scan(&systemID)
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					logger.Default().Error(c.Request.Context(), "loading system user failed", err)
				}
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "system user not provisioned"})
				return
			}
			setIdentity(c, systemID, SystemEmail)
			c.Next()
			return
		}

		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			if cookie, err := c.Cookie(cfg.JWT.CookieName); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := ParseToken(cfg.JWT, tokenString)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		setIdentity(c, claims.UserID, claims.Email)
		c.Next()
	}
}

// Claims is the payload of a session token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for the user, valid for cfg.TTL().
func IssueToken(cfg config.JWTConfig, userID, email string, now time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ParseToken verifies an HS256 session token and returns its claims.
func ParseToken(cfg config.JWTConfig, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func setIdentity(c *gin.Context, userID, email string) {
	c.Set(ctxUserID, userID)
	c.Set(ctxUserEmail, email)
	ctx := logger.Default().WithUserID(c.Request.Context(), userID)
	c.Request = c.Request.WithContext(ctx)
}

// UserID returns the authenticated user's id.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
