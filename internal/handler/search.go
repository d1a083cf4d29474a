package handler

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
	"github.com/NunoFAntunes/realtor-buddy/internal/logger"
	"github.com/NunoFAntunes/realtor-buddy/internal/model"
)

// Searcher runs one natural-language search.
type Searcher interface {
	Search(ctx context.Context, req model.SearchRequest) (*model.SearchResult, error)
}

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	searchService Searcher
	samples       []model.SampleQuery
	exposeSQL     bool
	log           *zap.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService Searcher, samples []model.SampleQuery, exposeSQL bool, log *zap.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		samples:       samples,
		exposeSQL:     exposeSQL,
		log:           logger.OrNop(log),
	}
}

// Search handles POST /api/search. Failures keep the response shape and
// carry only a generic message; details go to the log.
func (h *SearchHandler) Search(c *gin.Context) {
	start := time.Now()

	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.SearchResponse{
			Results: []model.PropertyRecord{},
			Error:   "Invalid request body.",
		})
		return
	}

	res, err := h.searchService.Search(c.Request.Context(), req)

	resp := model.SearchResponse{
		Query:   req.Query,
		Results: []model.PropertyRecord{},
	}
	if res != nil {
		resp.Intent = res.Intent
	}
	if err != nil {
		resp.Error = apperrors.UserMessage(err)
		resp.ProcessingTime = elapsedSeconds(start)
		h.log.Debug("search request failed",
			zap.String("request_id", RequestIDFrom(c)),
			zap.String("code", string(apperrors.Code(err))),
			zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), resp)
		return
	}

	resp.Success = true
	if res.Records != nil {
		resp.Results = res.Records
	}
	resp.TotalResults = len(resp.Results)
	if h.exposeSQL {
		resp.SQLQuery = res.SQL
	}
	resp.ProcessingTime = elapsedSeconds(start)
	c.JSON(http.StatusOK, resp)
}

// Examples handles GET /api/search/examples
func (h *SearchHandler) Examples(c *gin.Context) {
	samples := h.samples
	if samples == nil {
		samples = []model.SampleQuery{}
	}
	c.JSON(http.StatusOK, gin.H{"examples": samples})
}

func elapsedSeconds(start time.Time) float64 {
	return math.Round(time.Since(start).Seconds()*1000) / 1000
}
