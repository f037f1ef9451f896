package routes

import (
	"net/http"

	"multitenant-rag-platform/internal/auth"
	"multitenant-rag-platform/internal/config"
	"multitenant-rag-platform/utils"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SetupAuthRoutes wires the admin login, refresh and logout endpoints.
// There is a single admin account, configured by environment; tenants
// authenticate with their API key instead.
func SetupAuthRoutes(router *gin.Engine, cfg *config.Config, tokens *auth.TokenService) {
	group := router.Group("/auth")

	group.POST("/token", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		if cfg.AdminPassHash == "" || req.Username != cfg.AdminUser ||
			!utils.CheckPassword(req.Password, cfg.AdminPassHash) {
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		pair, err := tokens.IssuePair(c.Request.Context(), req.Username, "", "admin")
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to issue tokens", nil)
			return
		}
		c.JSON(http.StatusOK, pair)
	})

	group.POST("/refresh", func(c *gin.Context) {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		claims, err := tokens.ValidateRefresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid or expired refresh token")
			return
		}

		// Rotate: the old refresh token is dead once used.
		if err := tokens.Revoke(c.Request.Context(), claims.ID, true); err != nil {
			utils.RespondWithInternalError(c, "Failed to rotate refresh token", nil)
			return
		}

		pair, err := tokens.IssuePair(c.Request.Context(), claims.Subject, claims.TenantID, claims.Role)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to issue tokens", nil)
			return
		}
		c.JSON(http.StatusOK, pair)
	})

	group.POST("/logout", func(c *gin.Context) {
		token := utils.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			utils.RespondWithUnauthorized(c, "Authentication token is required")
			return
		}
		claims, err := tokens.ValidateAccess(c.Request.Context(), token)
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid or expired token")
			return
		}
		if err := tokens.Revoke(c.Request.Context(), claims.ID, false); err != nil {
			utils.RespondWithInternalError(c, "Failed to revoke token", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	})
}
