package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	requestdomain "github.com/shawnuphold/wishpark/internal/request/domain"
	"github.com/shawnuphold/wishpark/pkg/db/pagination"
)

// @Summary      Create Request
// @Description  Create a new shopping request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body requestdomain.CreateRequest true "Create Request"
// @Success      200  {object}  requestdomain.Request
// @Router       /requests [post]
func (s *Server) CreateRequest(c *gin.Context) {
	var req requestdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.requestSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "request.create", "request", resp.ID.String(), map[string]any{
		"customer_email": resp.CustomerEmail,
		"items":          len(resp.Items),
	})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Requests
// @Description  List shopping requests
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        status          query  string  false  "Status"
// @Param        customer_email  query  string  false  "Customer Email"
// @Param        page_token      query  string  false  "Page Token"
// @Param        page_size       query  int     false  "Page Size"
// @Success      200  {object}  requestdomain.ListResponse
// @Router       /requests [get]
func (s *Server) ListRequests(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status        string `form:"status"`
		CustomerEmail string `form:"customer_email"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.requestSvc.List(c.Request.Context(), requestdomain.ListRequest{
		Pagination:    query.Pagination,
		Status:        requestdomain.RequestStatus(strings.TrimSpace(query.Status)),
		CustomerEmail: strings.TrimSpace(query.CustomerEmail),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Request
// @Description  Get request by ID
// @Tags         requests
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  requestdomain.Request
// @Router       /requests/{id} [get]
func (s *Server) GetRequestByID(c *gin.Context) {
	resp, err := s.requestSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetRequestProgress returns the customer-facing progress bar segments.
func (s *Server) GetRequestProgress(c *gin.Context) {
	steps, err := s.requestSvc.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": steps})
}

func (s *Server) QuoteRequest(c *gin.Context) {
	s.requestTransition(c, "request.quote", s.requestSvc.Quote)
}

func (s *Server) ApproveRequest(c *gin.Context) {
	s.requestTransition(c, "request.approve", s.requestSvc.Approve)
}

func (s *Server) StartShopping(c *gin.Context) {
	s.requestTransition(c, "request.start_shopping", s.requestSvc.StartShopping)
}

func (s *Server) CompleteShopping(c *gin.Context) {
	s.requestTransition(c, "request.complete_shopping", s.requestSvc.CompleteShopping)
}

func (s *Server) MarkRequestDelivered(c *gin.Context) {
	s.requestTransition(c, "request.deliver", s.requestSvc.MarkDelivered)
}

type assignTripRequest struct {
	TripID string `json:"trip_id"`
}

// AssignTrip schedules the request onto a shopping trip.
func (s *Server) AssignTrip(c *gin.Context) {
	var req assignTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.requestSvc.AssignTrip(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.TripID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "request.assign_trip", "request", resp.ID.String(), map[string]any{"trip_id": req.TripID})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UnassignTrip(c *gin.Context) {
	resp, err := s.requestSvc.UnassignTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "request.unassign_trip", "request", resp.ID.String(), nil)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateItemStatusRequest struct {
	Status     string  `json:"status"`
	FoundPrice *string `json:"found_price,omitempty"`
	Notes      string  `json:"notes"`
}

// UpdateRequestItemStatus records the in-park shopping outcome for one item.
func (s *Server) UpdateRequestItemStatus(c *gin.Context) {
	var req updateItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := requestdomain.UpdateItemStatusRequest{
		ItemID: c.Param("itemID"),
		Status: requestdomain.ItemStatus(strings.TrimSpace(req.Status)),
		Notes:  strings.TrimSpace(req.Notes),
	}
	if req.FoundPrice != nil {
		price, err := parseDecimal(*req.FoundPrice)
		if err != nil {
			AbortWithError(c, newValidationError("found_price", "invalid_found_price", "invalid found_price"))
			return
		}
		update.FoundPrice = &price
	}

	resp, err := s.requestSvc.UpdateItemStatus(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "request.item_status", "request", resp.ID.String(), map[string]any{
		"item_id": update.ItemID,
		"status":  string(update.Status),
	})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) requestTransition(c *gin.Context, action string, op func(ctx context.Context, id string) (*requestdomain.Request, error)) {
	resp, err := op(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, action, "request", resp.ID.String(), map[string]any{"status": string(resp.Status)})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
