package handler

import (
	"net/http"

	"github.com/codepinky/ruptura/ruptura-backend/internal/middleware"
	"github.com/codepinky/ruptura/ruptura-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// PreviewTransactionLimit caps transaction hits in ?preview=true responses
const PreviewTransactionLimit = 5

// SearchHandler handles global search requests
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search handles GET /api/v1/search?q=&preview=
func (h *SearchHandler) Search(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	results, err := h.searchService.Search(userID, c.QueryParam("q"))
	if err != nil {
		return respondError(c, err, userID, "search")
	}

	// totalResults keeps the uncapped count
	if parseBoolParam(c, "preview") && len(results.Transactions) > PreviewTransactionLimit {
		results.Transactions = results.Transactions[:PreviewTransactionLimit]
	}
	return c.JSON(http.StatusOK, results)
}
