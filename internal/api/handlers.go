package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/torosent/querybench/internal/compare"
	"github.com/torosent/querybench/internal/config"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleCompareGet(c *gin.Context) {
	n, err := parseSampleCount(c.Query("sampleCount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid benchmark request", Details: err.Error()})
		return
	}
	s.runCompare(c, config.SplitList(c.QueryArray("drivers")...), config.SplitList(c.QueryArray("queries")...), n)
}

func (s *Server) handleComparePost(c *gin.Context) {
	var body compareBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid benchmark request", Details: err.Error()})
			return
		}
	}
	s.runCompare(c, body.Drivers, body.Queries, body.SampleCount)
}

func (s *Server) runCompare(c *gin.Context, drivers, queries []string, sampleCount *int) {
	req, err := compare.NewRequest(drivers, queries, sampleCount)
	if err != nil {
		s.writeCompareError(c, err)
		return
	}

	report, err := s.comparer.Compare(c.Request.Context(), req)
	if err != nil {
		s.writeCompareError(c, err)
		return
	}

	if s.store != nil {
		if err := s.store(c.Request.Context(), report); err != nil {
			s.log.Warn("storing results failed", "run_id", report.Metadata.RunID, "error", err)
		}
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) writeCompareError(c *gin.Context, err error) {
	var inputErr *compare.InputValidationError
	if errors.As(err, &inputErr) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid benchmark request", Details: err.Error()})
		return
	}
	s.log.Error("benchmark comparison failed", "error", err, "request_id", c.GetString("requestID"))
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to run benchmark comparison", Details: err.Error()})
}

func (s *Server) handleMigrate(c *gin.Context) {
	if err := s.admin.Migrate(c.Request.Context()); err != nil {
		s.log.Error("migration failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to run migration", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database migration completed successfully",
	})
}

func (s *Server) handleSeed(c *gin.Context) {
	counts, err := s.admin.Seed(c.Request.Context())
	if err != nil {
		s.log.Error("seed failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to seed database", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database seeded successfully",
		"data":    counts,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	ts := s.now().UTC().Format(time.RFC3339Nano)
	if err := s.admin.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": ts,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  true,
		"timestamp": ts,
	})
}
