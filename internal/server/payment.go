package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/shawnuphold/wishpark/internal/payment/domain"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// IngestPaymentWebhook accepts provider callbacks. Replayed deliveries are
// acknowledged with 200 so providers stop retrying.
func (s *Server) IngestPaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	provider := c.Param("provider")
	err = s.paymentSvc.IngestWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	if errors.Is(err, paymentdomain.ErrEventAlreadyProcessed) {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "already_processed"}})
		return
	}
	if err != nil {
		s.log.Warn("webhook rejected", zap.String("provider", provider), zap.Error(err))
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "ok"}})
}
