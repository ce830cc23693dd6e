package api

import (
	"errors"
	"net/http"
	"strconv"

	"shop-service/internal/gateway"
	"shop-service/internal/models"
	"shop-service/internal/service"
	"shop-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError translates service errors into HTTP responses. Anything
// unrecognized is logged and returned as a generic 500 so internals never
// leak to clients.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidID),
		errors.Is(err, service.ErrNegativePrice),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrItemNotInCart),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrStatusNotAllowed),
		errors.Is(err, service.ErrAmountBelowMinimum),
		errors.Is(err, service.ErrOrderAlreadyPaid),
		errors.Is(err, service.ErrCodeMismatch),
		errors.Is(err, service.ErrNoPhone),
		errors.Is(err, gateway.ErrInvalidPhone),
		errors.Is(err, gateway.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, models.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is already registered"})

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})

	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrPasswordChanged):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})

	case errors.Is(err, service.ErrOrderAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this order"})

	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	default:
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": gwErr.Reason})
			return
		}
		util.GetLogger().Error("Unhandled request error",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// respondBindError reports a request body or query validation failure
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

// paramID parses a numeric path parameter
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// pagination reads page/limit query parameters with sane fallbacks
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}
