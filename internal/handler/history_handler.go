package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codeclash/arena-backend/internal/middleware"
	"github.com/codeclash/arena-backend/internal/response"
	"github.com/codeclash/arena-backend/internal/service"
)

// HistoryHandler serves the per-user match history.
type HistoryHandler struct {
	historyService *service.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// ListMine godoc
// GET /api/v1/users/me/history?page=&per_page=
// Returns the caller's settled matches, newest first.
func (h *HistoryHandler) ListMine(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	entries, total, err := h.historyService.List(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	totalPages := int(total) / perPage
	if int(total)%perPage != 0 {
		totalPages++
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"matches": entries}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	})
}
