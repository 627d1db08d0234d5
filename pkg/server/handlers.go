package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/entrhq/titleforge/pkg/session"
	"github.com/entrhq/titleforge/pkg/types"
)

type setContextRequest struct {
	Context *string `json:"context"`
}

type setConfigRequest struct {
	Key      *string `json:"key"`
	ModelKey *string `json:"modelKey"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type generateResponse struct {
	GeneratedTitle []types.TitleCandidate `json:"generatedTitle"`
}

func (s *Server) startBrowser(c *gin.Context) {
	msg, err := s.session.StartSession(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		abortWithInternalError(c, NewAPIError("failed to start browser", causeOf(err)))
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: msg})
}

// scrape answers 200 with no body.
func (s *Server) scrape(c *gin.Context) {
	res, err := s.session.Scrape(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		abortWithInternalError(c, NewAPIError("failed to scrape titles", causeOf(err)))
		return
	}
	if s.metrics != nil {
		s.metrics.scraped.Set(float64(len(res.Titles)))
	}
	c.Status(http.StatusOK)
}

func (s *Server) setContext(c *gin.Context) {
	var req setContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		abortWithBadRequest(c, NewAPIError("context must be a string", causeOf(err)))
		return
	}
	if req.Context == nil {
		abortWithBadRequest(c, NewAPIError("context is required", nil))
		return
	}

	if err := s.session.SetContext(c.Request.Context(), *req.Context); err != nil {
		_ = c.Error(err)
		if errors.Is(err, session.ErrInvalidInput) {
			abortWithBadRequest(c, NewAPIError(err.Error(), nil))
			return
		}
		abortWithInternalError(c, NewAPIError("failed to set context", causeOf(err)))
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Context set"})
}

func (s *Server) setConfig(c *gin.Context) {
	var req setConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		abortWithBadRequest(c, NewAPIError("key and modelKey must be strings", causeOf(err)))
		return
	}

	var key, modelKey string
	if req.Key != nil {
		key = *req.Key
	}
	if req.ModelKey != nil {
		modelKey = *req.ModelKey
	}

	if err := s.session.SetConfig(c.Request.Context(), key, modelKey); err != nil {
		_ = c.Error(err)
		if errors.Is(err, session.ErrInvalidInput) {
			abortWithBadRequest(c, NewAPIError(err.Error(), nil))
			return
		}
		abortWithInternalError(c, NewAPIError("failed to configure model", causeOf(err)))
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Model configured: " + modelKey})
}

// generateTitle ignores the request body; the session already holds the
// key and model.
func (s *Server) generateTitle(c *gin.Context) {
	res, err := s.session.Generate(c.Request.Context())
	if err != nil {
		_ = c.Error(err)

		var pe *session.PreconditionError
		if errors.As(err, &pe) {
			apiErr := NewAPIError(err.Error(), nil)
			apiErr.Missing = pe.Missing
			abortWithBadRequest(c, apiErr)
			return
		}

		apiErr := NewAPIError("failed to generate titles", causeOf(err))
		var ge *session.GenerationError
		if errors.As(err, &ge) {
			apiErr.Details = causeOf(ge.Err)
			apiErr.Reason = ge.Reason
		}
		abortWithInternalError(c, apiErr)
		return
	}

	if s.metrics != nil {
		s.metrics.candidates.Add(float64(len(res.Candidates)))
	}
	c.JSON(http.StatusOK, generateResponse{GeneratedTitle: res.Candidates})
}

func (s *Server) closeBrowser(c *gin.Context) {
	if err := s.session.CloseSession(c.Request.Context()); err != nil {
		_ = c.Error(err)
		abortWithInternalError(c, NewAPIError("failed to close browser", causeOf(err)))
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Browser closed"})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Status())
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
