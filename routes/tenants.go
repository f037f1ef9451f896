package routes

import (
	"net/http"

	"multitenant-rag-platform/internal/store"
	"multitenant-rag-platform/middleware"
	"multitenant-rag-platform/models"
	"multitenant-rag-platform/services"
	"multitenant-rag-platform/utils"

	"github.com/gin-gonic/gin"
)

// SetupTenantRoutes wires tenant registration and management.
// Registration is open; everything else needs an admin token or the
// tenant's own API key, checked against the tenant in the path before
// any store access.
func SetupTenantRoutes(router *gin.Engine, svc *services.RAGService, st store.TenantStore, authMW *middleware.AuthMiddleware) {
	router.POST("/tenants/register", func(c *gin.Context) {
		var req models.RegisterTenantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		tenant, err := st.Create(c.Request.Context(), req)
		if err != nil {
			utils.RespondWithStoreError(c, err)
			return
		}

		// The signing secret is shown exactly once, at registration.
		c.JSON(http.StatusCreated, gin.H{
			"tenant":         tenant,
			"signing_secret": tenant.SigningSecret,
		})
	})

	admin := router.Group("/tenants", authMW.RequireAdmin())

	admin.GET("", func(c *gin.Context) {
		summaries, err := st.List(c.Request.Context())
		if err != nil {
			utils.RespondWithStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tenants": summaries, "count": len(summaries)})
	})

	admin.PUT("/:tenant_id", func(c *gin.Context) {
		var req models.UpdateTenantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		tenant, err := st.Update(c.Request.Context(), c.Param("tenant_id"), req)
		if err != nil {
			utils.RespondWithStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, tenant)
	})

	admin.DELETE("/:tenant_id", func(c *gin.Context) {
		if err := svc.DeleteTenant(c.Request.Context(), c.Param("tenant_id")); err != nil {
			utils.RespondWithStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "tenant deleted"})
	})

	scoped := router.Group("/tenants", authMW.RequireTenantCredential())

	scoped.GET("/:tenant_id", func(c *gin.Context) {
		tenantID := c.Param("tenant_id")
		if !middleware.AuthorizedForTenant(c, tenantID) {
			utils.RespondWithForbidden(c, "Credential is not valid for this tenant")
			return
		}
		tenant, err := st.Get(c.Request.Context(), tenantID)
		if err != nil {
			utils.RespondWithStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, tenant)
	})

	scoped.GET("/:tenant_id/documents", func(c *gin.Context) {
		tenantID := c.Param("tenant_id")
		if !middleware.AuthorizedForTenant(c, tenantID) {
			utils.RespondWithForbidden(c, "Credential is not valid for this tenant")
			return
		}
		docs, err := st.ListDocuments(c.Request.Context(), tenantID)
		if err != nil {
			utils.RespondWithStoreError(c, err)
			return
		}
		summaries := make([]models.DocumentSummary, 0, len(docs))
		for i := range docs {
			summaries = append(summaries, docs[i].Summary())
		}
		c.JSON(http.StatusOK, gin.H{"documents": summaries, "count": len(summaries)})
	})

	scoped.DELETE("/:tenant_id/documents/:document_id", func(c *gin.Context) {
		tenantID := c.Param("tenant_id")
		if !middleware.AuthorizedForTenant(c, tenantID) {
			utils.RespondWithForbidden(c, "Credential is not valid for this tenant")
			return
		}
		if err := svc.DeleteDocument(c.Request.Context(), tenantID, c.Param("document_id")); err != nil {
			utils.RespondWithStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "document deleted"})
	})

	scoped.GET("/:tenant_id/stats", func(c *gin.Context) {
		tenantID := c.Param("tenant_id")
		if !middleware.AuthorizedForTenant(c, tenantID) {
			utils.RespondWithForbidden(c, "Credential is not valid for this tenant")
			return
		}
		stats, err := st.GetStats(c.Request.Context(), tenantID)
		if err != nil {
			utils.RespondWithStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	})
}
