package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erickguan/agentic-finance-analysis/internal/config"
	"github.com/erickguan/agentic-finance-analysis/services"
	"github.com/erickguan/agentic-finance-analysis/utils"
)

type contextRequest struct {
	Query            string `json:"query" binding:"required"`
	Symbol           string `json:"symbol"`
	MaxContextLength int    `json:"max_context_length"`
}

// SetupContextRoutes registers the retrieval API.
func SetupContextRoutes(router *gin.Engine, cfg *config.Config, retriever *services.Retriever, store *services.VectorStore) {
	api := router.Group("/api")

	api.POST("/context", func(c *gin.Context) {
		var req contextRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "query is required", err.Error())
			return
		}
		if req.MaxContextLength <= 0 {
			req.MaxContextLength = cfg.MaxContextLength
		}

		bundle := retriever.RetrieveContext(c.Request.Context(), req.Query, req.Symbol, req.MaxContextLength)
		c.JSON(http.StatusOK, bundle)
	})

	api.GET("/companies/search", func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			utils.RespondWithBadRequest(c, "q parameter is required", nil)
			return
		}

		matches := retriever.SearchCompanies(c.Request.Context(), query)
		c.JSON(http.StatusOK, gin.H{"query": query, "results": matches})
	})

	api.GET("/companies/:symbol/summary", func(c *gin.Context) {
		symbol := c.Param("symbol")
		summary, err := retriever.CompanySummary(c.Request.Context(), symbol)
		if err != nil {
			utils.RespondWithNotFound(c, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"symbol": symbol, "summary": summary})
	})

	api.DELETE("/companies/:symbol", func(c *gin.Context) {
		symbol := c.Param("symbol")
		if !store.Remove(c.Request.Context(), symbol) {
			utils.RespondWithNotFound(c, "no documents for symbol "+symbol)
			return
		}
		c.JSON(http.StatusOK, gin.H{"symbol": symbol, "removed": true})
	})

	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"index":  store.Stats(),
			"caches": retriever.CacheStats(),
		})
	})

	api.POST("/cache/clear", func(c *gin.Context) {
		retriever.ClearCache()
		c.JSON(http.StatusOK, gin.H{"cleared": true})
	})
}
