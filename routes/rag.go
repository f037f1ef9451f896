package routes

import (
	"errors"
	"io"
	"net/http"

	"multitenant-rag-platform/internal/config"
	"multitenant-rag-platform/internal/store"
	"multitenant-rag-platform/middleware"
	"multitenant-rag-platform/models"
	"multitenant-rag-platform/services"
	"multitenant-rag-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// SetupRAGRoutes wires the query and upload endpoints. Every handler
// confirms the credential's tenant scope before touching any index or
// store.
func SetupRAGRoutes(router *gin.Engine, cfg *config.Config, svc *services.RAGService, st store.TenantStore, rdb *redis.Client, authMW *middleware.AuthMiddleware) {
	group := router.Group("/", authMW.RequireTenantCredential())

	group.POST("/query", func(c *gin.Context) {
		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}
		if !middleware.AuthorizedForTenant(c, req.TenantID) {
			utils.RespondWithForbidden(c, "Credential is not valid for this tenant")
			return
		}

		tenant, err := st.Get(c.Request.Context(), req.TenantID)
		if err != nil {
			utils.RespondWithStoreError(c, err)
			return
		}
		if err := middleware.CheckDailyQueryQuota(c.Request.Context(), rdb, tenant); err != nil {
			utils.RespondWithError(c, http.StatusTooManyRequests,
				"daily_quota_exceeded",
				"Daily query limit reached for this tenant",
				gin.H{"limit": tenant.MaxQueriesPerDay})
			return
		}

		resp, err := svc.Query(c.Request.Context(), req.TenantID, req.Query)
		if err != nil {
			utils.RespondWithStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	})

	group.POST("/upload", func(c *gin.Context) {
		tenantID := c.PostForm("tenant_id")
		if tenantID == "" {
			utils.RespondWithBadRequest(c, "tenant_id is required", nil)
			return
		}
		if !middleware.AuthorizedForTenant(c, tenantID) {
			utils.RespondWithForbidden(c, "Credential is not valid for this tenant")
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "file is required", gin.H{"error": err.Error()})
			return
		}
		if fileHeader.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge,
				"file_too_large",
				"File exceeds the maximum upload size",
				gin.H{"max_bytes": cfg.MaxFileSize})
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read upload", nil)
			return
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, cfg.MaxFileSize+1))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read upload", nil)
			return
		}

		result, err := svc.Upload(c.Request.Context(), tenantID, fileHeader.Filename, data)
		if err != nil {
			if errors.Is(err, services.ErrContentExtraction) {
				utils.RespondWithError(c, http.StatusUnprocessableEntity,
					"content_extraction_failed",
					"Could not extract text from the uploaded file",
					gin.H{"filename": fileHeader.Filename})
				return
			}
			utils.RespondWithStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	group.GET("/collection-info/:tenant_id", func(c *gin.Context) {
		tenantID := c.Param("tenant_id")
		if !middleware.AuthorizedForTenant(c, tenantID) {
			utils.RespondWithForbidden(c, "Credential is not valid for this tenant")
			return
		}

		info, err := svc.CollectionInfo(c.Request.Context(), tenantID)
		if err != nil {
			utils.RespondWithStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, info)
	})
}
