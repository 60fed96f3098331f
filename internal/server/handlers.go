package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arcanaland/corvid/internal/spread"
	"github.com/arcanaland/corvid/internal/validator"
)

const (
	translationPrefix  = "[Translation based on YAML database]\n"
	nothingToTranslate = "No reading available to translate."
)

// bind decodes and validates the body; on failure the response is already written
func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.fail(c, validator.Translate(err))
		return false
	}
	return true
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   ServiceName,
		"version":   Version,
		"endpoints": Endpoints,
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cards": s.deck.Len(), "timestamp": time.Now()})
}

// countingCrow lays seven cards against the magpie rhyme
func (s *Server) countingCrow(c *gin.Context) {
	var req validator.CountingCrowRequest
	if !s.bind(c, &req) {
		return
	}
	req.Normalize()

	res, err := spread.CountingCrow(s.deck, req.Cards)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) threeCard(c *gin.Context) {
	var req validator.ThreeCardRequest
	if !s.bind(c, &req) {
		return
	}
	req.Normalize()

	res, err := spread.ThreeCard(s.deck, req.Cards, req.Format)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) interpret(c *gin.Context) {
	var req validator.InterpretRequest
	if !s.bind(c, &req) {
		return
	}
	req.Normalize()

	interpretation, err := s.oracle.Interpret(c.Request.Context(), req.Text)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interpretation": interpretation})
}

// translate does not translate yet; it only marks the text
func (s *Server) translate(c *gin.Context) {
	var req validator.TranslateRequest
	if !s.bind(c, &req) {
		return
	}

	if req.Text == "" {
		c.JSON(http.StatusOK, gin.H{"translated": nothingToTranslate})
		return
	}
	c.JSON(http.StatusOK, gin.H{"translated": translationPrefix + req.Text})
}

func (s *Server) archiveSession(c *gin.Context) {
	var req validator.ArchiveRequest
	if !s.bind(c, &req) {
		return
	}

	entries, err := req.Entries()
	if err != nil {
		s.fail(c, validator.Errors{{Field: "session", Message: err.Error()}})
		return
	}

	receipt, err := s.store.Archive(entries)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Session archived successfully",
		"filename":  receipt.Filename,
		"timestamp": receipt.Timestamp,
	})
}

func (s *Server) history(c *gin.Context) {
	listing, err := s.store.List()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}
