package server

import (
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/carbonsense/carbonsense/pkg/analyzer/carbon"
	"github.com/carbonsense/carbonsense/pkg/analyzer/website"
)

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	Code string `json:"code"`
}

// WebsiteRequest is the body of POST /api/v1/website.
type WebsiteRequest struct {
	URL string `json:"url"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(RecoveryMiddleware(s.logger))
	router.Use(LoggerMiddleware(s.logger))

	v1 := router.Group("/api/v1")
	v1.Use(BodyLimitMiddleware(s.config.MaxBodyBytes))
	{
		v1.POST("/analyze", s.analyze)
		v1.POST("/website", s.website)
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})
	}
	return router
}

func (s *Server) analyze(c *gin.Context) {
	var req AnalyzeRequest
	if !s.bind(c, &req) {
		return
	}

	result, err := s.svc.AnalyzeCode(req.Code)
	switch {
	case errors.Is(err, carbon.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No code provided"})
	case err != nil:
		s.logger.Error("Analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Analysis failed"})
	default:
		c.JSON(http.StatusOK, result)
	}
}

func (s *Server) website(c *gin.Context) {
	var req WebsiteRequest
	if !s.bind(c, &req) {
		return
	}

	estimate, err := s.svc.EstimateWebsite(c.Request.Context(), req.URL)
	switch {
	case errors.Is(err, website.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid URL", Details: err.Error()})
	case err != nil:
		s.logger.Error("Website estimate failed", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Estimate failed"})
	default:
		c.JSON(http.StatusOK, estimate)
	}
}

// bind decodes the JSON body into v and answers the request on failure.
func (s *Server) bind(c *gin.Context, v any) bool {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Request body too large"})
		return false
	}
	s.logger.Warn("Invalid request payload", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
	return false
}

// LoggerMiddleware logs every request once it completes.
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// RecoveryMiddleware turns a panic in a handler into a 500 response.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("stack", string(debug.Stack())),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			}
		}()
		c.Next()
	}
}

// BodyLimitMiddleware caps request bodies at limit bytes. Zero disables it.
func BodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
