package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/juparave/gapaudit/internal/domain"
	"github.com/juparave/gapaudit/internal/report"
)

type updateEntryRequest struct {
	Status  *string `json:"status"`
	Notes   *string `json:"notes"`
	Version *int    `json:"version"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "busy": s.auditor.Busy()})
}

func (s *Server) uploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadSize)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("file exceeds %d bytes", s.config.MaxUploadSize),
			})
			return
		}
		badRequest(c, "multipart field \"file\" is required")
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		badRequest(c, "only PDF uploads are accepted")
		return
	}

	f, err := header.Open()
	if err != nil {
		writeError(c, domain.NewError(domain.KindDocumentRead, "opening upload", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(c, domain.NewError(domain.KindDocumentRead, "reading upload", err))
		return
	}

	analysis, err := s.auditor.Analyze(c.Request.Context(), data, filepath.Base(header.Filename))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, analysis)
}

func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, s.auditor.Current())
}

func (s *Server) updateEntry(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "index must be an integer")
		return
	}

	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	var status *domain.ReviewStatus
	if req.Status != nil {
		st, ok := domain.ParseStatus(*req.Status)
		if !ok {
			badRequest(c, fmt.Sprintf("unknown status %q", *req.Status))
			return
		}
		status = &st
	}

	sess := s.auditor.Session()
	var entry domain.ReviewEntry
	if req.Version != nil {
		entry, err = sess.CompareAndUpdate(index, *req.Version, status, req.Notes)
	} else {
		entry, err = sess.Update(index, status, req.Notes)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (s *Server) downloadReport(format string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rpt, err := s.auditor.Report()
		if err != nil {
			writeError(c, err)
			return
		}

		var buf bytes.Buffer
		if err := report.Render(&buf, rpt.Rows, format); err != nil {
			writeError(c, err)
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(rpt, format)))
		c.Data(http.StatusOK, report.ContentType(format), buf.Bytes())
	}
}
