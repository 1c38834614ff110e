package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/milosbg/mbg-admin-backend/api/responses"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
)

const (
	checkoutIPLimit    = 30
	checkoutEmailLimit = 10
	checkoutWindow     = time.Minute
	maxPeekBody        = 1 << 20
)

// WindowLimiter is the fixed-window counter backing the checkout limits.
type WindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// CheckoutRateLimit throttles checkout attempts per client IP and per
// contact email. Counter failures never block a checkout.
func CheckoutRateLimit(limiter WindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if ip := clientIP(r); ip != "" {
				if !allow(ctx, limiter, logg, "checkout:ip:"+hashValue(ip), checkoutIPLimit) {
					writeRateLimited(w, r, logg)
					return
				}
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if email := extractEmail(body); email != "" {
				if !allow(ctx, limiter, logg, "checkout:email:"+hashValue(email), checkoutEmailLimit) {
					writeRateLimited(w, r, logg)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func allow(ctx context.Context, limiter WindowLimiter, logg *logger.Logger, scope string, limit int64) bool {
	ok, _, err := limiter.FixedWindowAllow(ctx, scope, limit, checkoutWindow)
	if err != nil {
		if logg != nil {
			logg.WarnErr(ctx, "rate_limit.counter_failed", err)
		}
		return true
	}
	return ok
}

func writeRateLimited(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	w.Header().Set("Retry-After", "60")
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many checkout attempts"))
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// extractEmail reads contact.email, then customer.email.
func extractEmail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Contact struct {
			Email string `json:"email"`
		} `json:"contact"`
		Customer struct {
			Email string `json:"email"`
		} `json:"customer"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	email := strings.TrimSpace(payload.Contact.Email)
	if email == "" {
		email = strings.TrimSpace(payload.Customer.Email)
	}
	return strings.ToLower(email)
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}
