package middleware

import "context"

type contextKey string

const (
	ctxStaffID    contextKey = "staff_id"
	ctxStaffEmail contextKey = "staff_email"
	ctxCaller     contextKey = "caller"
)

const (
	CallerStaff      = "staff"
	CallerStorefront = "storefront"
)

// StaffIDFromContext returns the verified staff subject, if any.
func StaffIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxStaffID)
}

func StaffEmailFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxStaffEmail)
}

// CallerFromContext reports which guard admitted the request.
func CallerFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxCaller)
}

// WithStaff injects a verified staff identity into the context.
func WithStaff(ctx context.Context, staffID, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxStaffID, staffID)
	ctx = context.WithValue(ctx, ctxStaffEmail, email)
	return context.WithValue(ctx, ctxCaller, CallerStaff)
}

func withCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, ctxCaller, caller)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
