package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shawnuphold/wishpark/internal/importer"
)

// ImportRequests ingests a customer spreadsheet export. The CSV arrives either
// as a multipart "file" part or as the raw request body.
func (s *Server) ImportRequests(c *gin.Context) {
	var reader io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			AbortWithError(c, newValidationError("file", "missing_file", "multipart uploads need a file part"))
			return
		}
		defer file.Close()
		reader = file
	}

	result, err := s.importer.Import(c.Request.Context(), reader)
	if err != nil {
		var unmapped *importer.UnmappedFieldError
		if errors.As(err, &unmapped) {
			AbortWithError(c, newValidationError("header", "unmapped_columns", err.Error()))
			return
		}
		AbortWithError(c, invalidRequestError())
		return
	}

	s.audit(c, "import.requests", "import_batch", result.BatchID, map[string]any{
		"rows_total": result.RowsTotal,
		"rows_ok":    result.RowsOK,
		"requests":   len(result.RequestIDs),
	})
	c.JSON(http.StatusOK, gin.H{"data": result})
}
