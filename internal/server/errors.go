package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	feeddomain "github.com/smallbiznis/maziwa/internal/feed/domain"
	feedrequestdomain "github.com/smallbiznis/maziwa/internal/feedrequest/domain"
	ledgerdomain "github.com/smallbiznis/maziwa/internal/ledger/domain"
	settlementdomain "github.com/smallbiznis/maziwa/internal/settlement/domain"
	"github.com/smallbiznis/maziwa/pkg/db"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

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

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   strings.TrimPrefix(code, "invalid_"),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, feeddomain.ErrInvalidID),
		errors.Is(err, feeddomain.ErrInvalidName),
		errors.Is(err, feeddomain.ErrInvalidType),
		errors.Is(err, feeddomain.ErrInvalidQuantity),
		errors.Is(err, feedrequestdomain.ErrInvalidID),
		errors.Is(err, feedrequestdomain.ErrInvalidFarmer),
		errors.Is(err, feedrequestdomain.ErrInvalidFeedType),
		errors.Is(err, feedrequestdomain.ErrInvalidQuantity),
		errors.Is(err, feedrequestdomain.ErrInvalidStatus),
		errors.Is(err, ledgerdomain.ErrInvalidID),
		errors.Is(err, ledgerdomain.ErrInvalidFarmer),
		errors.Is(err, ledgerdomain.ErrInvalidAmount),
		errors.Is(err, ledgerdomain.ErrInvalidQuantity),
		errors.Is(err, settlementdomain.ErrInvalidFarmer):
		return true
	default:
		return false
	}
}

// State conflicts: the request was well formed but the records are not
// in a state that permits it.
func isConflictError(err error) bool {
	if db.IsDuplicateKeyErr(err) {
		return true
	}
	switch {
	case errors.Is(err, feeddomain.ErrInsufficientStock),
		errors.Is(err, feeddomain.ErrReferencedByOpenRequest),
		errors.Is(err, feedrequestdomain.ErrInvalidTransition),
		errors.Is(err, feedrequestdomain.ErrMatchingFeedNotFound),
		errors.Is(err, ledgerdomain.ErrAlreadyPaid),
		errors.Is(err, settlementdomain.ErrNothingToSettle),
		errors.Is(err, settlementdomain.ErrNonPositiveBalance):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, feeddomain.ErrInsufficientStock):
		return "insufficient stock"
	case errors.Is(err, feeddomain.ErrReferencedByOpenRequest):
		return "feed is referenced by an open request"
	case errors.Is(err, feedrequestdomain.ErrInvalidTransition):
		return "transition not permitted"
	case errors.Is(err, feedrequestdomain.ErrMatchingFeedNotFound):
		return "no matching feed in inventory"
	case errors.Is(err, ledgerdomain.ErrAlreadyPaid):
		return "transaction already paid"
	case errors.Is(err, settlementdomain.ErrNothingToSettle):
		return "nothing to settle"
	case errors.Is(err, settlementdomain.ErrNonPositiveBalance):
		return "non-positive balance"
	case db.IsDuplicateKeyErr(err):
		return "duplicate record"
	default:
		return "conflict"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, feeddomain.ErrNotFound),
		errors.Is(err, feedrequestdomain.ErrNotFound),
		errors.Is(err, ledgerdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
