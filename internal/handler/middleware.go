package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vaultgate/card-token-service/internal/domain"
	"github.com/vaultgate/card-token-service/internal/dto"
	"github.com/vaultgate/card-token-service/internal/service"
	"go.uber.org/zap"
)

// Context keys set by the middleware below
const (
	ContextUserID     = "user_id"
	ContextEmail      = "email"
	ContextCardUserID = "card_user_id"
	ContextCardScope  = "card_scope"
	ContextCardToken  = "card_token"
)

// AuthMiddleware resolves a bearer user token and adds the account
// identity to the request context
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			return
		}

		identity, err := authService.ResolveUserToken(c.Request.Context(), tokenString)
		if err != nil {
			// The cause stays in the logs; the caller learns only that
			// the token did not work.
			zap.L().Warn("user token rejected", zap.Error(err))
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextEmail, identity.Email)

		c.Next()
	}
}

// CardTokenMiddleware resolves a bearer card token against the codec
// and the ledger, then gates on the scope fixed at issuance. Requests
// outside the allowed scope set never reach the handler.
func CardTokenMiddleware(cardService service.CardService, allowed ...domain.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			return
		}

		identity, err := cardService.ResolveCardToken(c.Request.Context(), tokenString)
		if err != nil {
			zap.L().Warn("card token rejected", zap.Error(err))
			abortUnauthorized(c, "Card token is revoked or invalid")
			return
		}

		if !identity.Scope.In(allowed...) {
			c.JSON(http.StatusForbidden, dto.ErrorResponse{
				Error:   "Forbidden",
				Message: fmt.Sprintf("operation requires one of the following scopes: %s", scopeList(allowed)),
			})
			c.Abort()
			return
		}

		c.Set(ContextCardUserID, identity.Token.UserID)
		c.Set(ContextCardScope, identity.Scope)
		c.Set(ContextCardToken, tokenString)

		c.Next()
	}
}

// bearerToken extracts the credential from "Authorization: Bearer
// <token>", aborting with 401 on a missing or malformed header
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		abortUnauthorized(c, "Authorization header is required")
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		abortUnauthorized(c, "Invalid authorization header format")
		return "", false
	}

	return parts[1], true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error:   "Unauthorized",
		Message: message,
	})
	c.Abort()
}

func scopeList(scopes []domain.Scope) string {
	names := make([]string, 0, len(scopes))
	for _, s := range scopes {
		names = append(names, s.String())
	}
	return strings.Join(names, ", ")
}
