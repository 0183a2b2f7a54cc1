package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/shawnuphold/wishpark/internal/audit/domain"
)

type listAuditLogsQuery struct {
	Action     string `form:"action"`
	TargetType string `form:"target_type"`
	TargetID   string `form:"target_id"`
	ActorType  string `form:"actor_type"`
	StartAt    string `form:"start_at"`
	EndAt      string `form:"end_at"`
	Cursor     string `form:"cursor"`
	Limit      int    `form:"limit"`
}

// @Summary      List Audit Logs
// @Description  List audit logs, newest first
// @Tags         audit
// @Produce      json
// @Security     ApiKeyAuth
// @Param        action       query  string  false  "Action"
// @Param        target_type  query  string  false  "Target Type"
// @Param        target_id    query  string  false  "Target ID"
// @Param        actor_type   query  string  false  "Actor Type"
// @Param        start_at     query  string  false  "Start (RFC3339)"
// @Param        end_at       query  string  false  "End (RFC3339)"
// @Param        cursor       query  string  false  "Cursor"
// @Param        limit        query  int     false  "Limit"
// @Success      200  {array}  auditdomain.AuditLog
// @Router       /audit-logs [get]
func (s *Server) ListAuditLogs(c *gin.Context) {
	var query listAuditLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filter := auditdomain.ListFilter{
		Action:     strings.TrimSpace(query.Action),
		TargetType: strings.TrimSpace(query.TargetType),
		TargetID:   strings.TrimSpace(query.TargetID),
		ActorType:  strings.TrimSpace(query.ActorType),
		Limit:      query.Limit,
	}

	if query.StartAt != "" {
		at, err := time.Parse(time.RFC3339, query.StartAt)
		if err != nil {
			AbortWithError(c, newValidationError("start_at", "invalid_start_at", "start_at must be RFC3339"))
			return
		}
		filter.StartAt = &at
	}
	if query.EndAt != "" {
		at, err := time.Parse(time.RFC3339, query.EndAt)
		if err != nil {
			AbortWithError(c, newValidationError("end_at", "invalid_end_at", "end_at must be RFC3339"))
			return
		}
		filter.EndAt = &at
	}
	if query.Cursor != "" {
		cursor, err := parseAuditCursor(query.Cursor)
		if err != nil {
			AbortWithError(c, newValidationError("cursor", "invalid_cursor", "cursor could not be parsed"))
			return
		}
		filter.Cursor = cursor
	}

	logs, err := s.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := gin.H{"data": logs}
	if len(logs) > 0 {
		last := logs[len(logs)-1]
		resp["next_cursor"] = formatAuditCursor(last.CreatedAt, last.ID)
	}
	c.JSON(http.StatusOK, resp)
}

var errInvalidCursor = errors.New("invalid cursor")

// Cursors are "<timestamp>.<id>" over the (created_at, id) sort key. The id
// never contains a dot, so the last dot always separates the two parts.
func formatAuditCursor(at time.Time, id snowflake.ID) string {
	return at.UTC().Format(time.RFC3339Nano) + "." + id.String()
}

func parseAuditCursor(raw string) (*auditdomain.AuditCursor, error) {
	i := strings.LastIndex(raw, ".")
	if i <= 0 || i == len(raw)-1 {
		return nil, errInvalidCursor
	}
	at, err := time.Parse(time.RFC3339Nano, raw[:i])
	if err != nil {
		return nil, err
	}
	id, err := snowflake.ParseString(raw[i+1:])
	if err != nil {
		return nil, err
	}
	return &auditdomain.AuditCursor{CreatedAt: at, ID: id}, nil
}
