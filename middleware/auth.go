package middleware

import (
	"strings"

	"multitenant-rag-platform/internal/auth"
	"multitenant-rag-platform/internal/store"
	"multitenant-rag-platform/utils"

	"github.com/gin-gonic/gin"
)

const (
	// TenantScopeAll marks admin credentials that may touch any tenant.
	TenantScopeAll = "*"

	ctxKeyTenantScope = "tenant_scope"
	ctxKeySubject     = "subject"
	ctxKeyRole        = "role"
)

// AuthMiddleware authenticates requests with either an admin JWT or a
// tenant API key. It only establishes identity and scope; handlers
// confirm the scope against the tenant they are about to touch.
type AuthMiddleware struct {
	tokens *auth.TokenService
	store  store.TenantStore
}

func NewAuthMiddleware(tokens *auth.TokenService, st store.TenantStore) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, store: st}
}

// RequireAdmin admits only valid admin JWTs.
func (a *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := utils.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			utils.RespondWithUnauthorized(c, "Authentication token is required")
			c.Abort()
			return
		}

		claims, err := a.tokens.ValidateAccess(c.Request.Context(), token)
		if err != nil || claims.Role != "admin" {
			utils.RespondWithUnauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ctxKeySubject, claims.Subject)
		c.Set(ctxKeyRole, claims.Role)
		c.Set(ctxKeyTenantScope, TenantScopeAll)
		c.Next()
	}
}

// RequireTenantCredential admits admin JWTs and tenant API keys. API
// keys carry the "mt_" prefix and resolve to exactly one tenant, whose
// id becomes the credential's scope.
func (a *AuthMiddleware) RequireTenantCredential() gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := utils.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if credential == "" {
			credential = c.GetHeader("X-API-Key")
		}
		if credential == "" {
			utils.RespondWithUnauthorized(c, "Authentication credential is required")
			c.Abort()
			return
		}

		if strings.HasPrefix(credential, "mt_") {
			tenant, err := a.store.GetByAPIKey(c.Request.Context(), credential)
			if err != nil {
				utils.RespondWithUnauthorized(c, "Invalid API key")
				c.Abort()
				return
			}
			c.Set(ctxKeySubject, tenant.TenantID)
			c.Set(ctxKeyRole, "tenant")
			c.Set(ctxKeyTenantScope, tenant.TenantID)
			c.Next()
			return
		}

		claims, err := a.tokens.ValidateAccess(c.Request.Context(), credential)
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}
		scope := claims.TenantID
		if claims.Role == "admin" {
			scope = TenantScopeAll
		}
		c.Set(ctxKeySubject, claims.Subject)
		c.Set(ctxKeyRole, claims.Role)
		c.Set(ctxKeyTenantScope, scope)
		c.Next()
	}
}

// AuthorizedForTenant reports whether the request's credential may act
// on tenantID. Handlers call this before any store or index access.
func AuthorizedForTenant(c *gin.Context, tenantID string) bool {
	scope := GetTenantScope(c)
	return scope == TenantScopeAll || (scope != "" && scope == tenantID)
}

// GetTenantScope returns the credential's tenant scope, empty when
// unauthenticated.
func GetTenantScope(c *gin.Context) string {
	if v, exists := c.Get(ctxKeyTenantScope); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetSubject returns the authenticated principal's identifier.
func GetSubject(c *gin.Context) string {
	if v, exists := c.Get(ctxKeySubject); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRole returns the authenticated principal's role.
func GetRole(c *gin.Context) string {
	if v, exists := c.Get(ctxKeyRole); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
