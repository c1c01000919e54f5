package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
	billdomain "github.com/smallbiznis/tillpoint/internal/bill/domain"
	catalogdomain "github.com/smallbiznis/tillpoint/internal/catalog/domain"
	counterdomain "github.com/smallbiznis/tillpoint/internal/counter/domain"
	customerdomain "github.com/smallbiznis/tillpoint/internal/customer/domain"
	sequencedomain "github.com/smallbiznis/tillpoint/internal/sequence/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrTooManyRequests = errors.New("too_many_requests")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	case isUnavailableError(err):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "store unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, billdomain.ErrBillNoRequired),
		errors.Is(err, billdomain.ErrLocationRequired),
		errors.Is(err, billdomain.ErrItemsRequired),
		errors.Is(err, billdomain.ErrItemCodeRequired),
		errors.Is(err, billdomain.ErrQuantityInvalid),
		errors.Is(err, billdomain.ErrRateInvalid),
		errors.Is(err, billdomain.ErrTooManyLines),
		errors.Is(err, counterdomain.ErrDateRequired),
		errors.Is(err, counterdomain.ErrDateInvalid),
		errors.Is(err, counterdomain.ErrCounterRequired),
		errors.Is(err, authdomain.ErrCredentialsRequired),
		errors.Is(err, catalogdomain.ErrCodeRequired):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, billdomain.ErrNotFound),
		errors.Is(err, billdomain.ErrNotAllocated),
		errors.Is(err, sequencedomain.ErrNotAllocated):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, billdomain.ErrAlreadySettled),
		errors.Is(err, counterdomain.ErrAlreadyOpen),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, sequencedomain.ErrAllocationConflict):
		return true
	default:
		return false
	}
}

func isUnavailableError(err error) bool {
	switch {
	case errors.Is(err, billdomain.ErrStoreUnavailable),
		errors.Is(err, sequencedomain.ErrStoreUnavailable),
		errors.Is(err, counterdomain.ErrStoreUnavailable),
		errors.Is(err, authdomain.ErrStoreUnavailable),
		errors.Is(err, customerdomain.ErrStoreUnavailable),
		errors.Is(err, catalogdomain.ErrStoreUnavailable):
		return true
	default:
		return false
	}
}
