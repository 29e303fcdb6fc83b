package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/beauty-admin/internal/domain/contact"
	"github.com/xenking/beauty-admin/internal/domain/coupon"
	"github.com/xenking/beauty-admin/internal/domain/order"
	"github.com/xenking/beauty-admin/internal/domain/pricing"
	"github.com/xenking/beauty-admin/internal/domain/product"
	"github.com/xenking/beauty-admin/internal/domain/stock"
	"github.com/xenking/beauty-admin/internal/domain/validation"
)

var (
	notFoundErrors = []error{
		order.ErrNotFound,
		product.ErrNotFound,
		contact.ErrNotFound,
		coupon.ErrInvalidCoupon,
		stock.ErrProductNotFound,
		stock.ErrVariantNotFound,
	}
	conflictErrors = []error{
		order.ErrIllegalTransition,
		order.ErrStatusConflict,
		stock.ErrInsufficientStock,
	}
	unprocessableErrors = []error{
		coupon.ErrCouponInactive,
		coupon.ErrCouponExpired,
		coupon.ErrCouponUsageLimitReached,
		coupon.ErrMinOrderNotMet,
		pricing.ErrInvalidDiscount,
		pricing.ErrInvalidAdjustment,
	}
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusOf maps a domain error to an HTTP status and a client message.
// Internal errors get a generic message.
func statusOf(err error) (int, string) {
	var (
		decodeErr *decodeError
		validErr  *validation.Error
	)
	switch {
	case errors.As(err, &decodeErr):
		return http.StatusBadRequest, decodeErr.Error()
	case errors.As(err, &validErr):
		return http.StatusUnprocessableEntity, validErr.Error()
	case isAny(err, notFoundErrors):
		return http.StatusNotFound, err.Error()
	case isAny(err, conflictErrors):
		return http.StatusConflict, err.Error()
	case isAny(err, unprocessableErrors):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, order.ErrStatusUpdateFailed):
		// Writer errors may carry SQL details; only the summary is returned.
		return http.StatusServiceUnavailable, order.ErrStatusUpdateFailed.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeError writes err as {"code","message"}. Server errors are logged
// with the request scoped logger.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusOf(err)
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeMessage(w, status, message)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}
