package auth

import "context"

// DefaultLanguage is used until the session guard attaches the session's
// language.
const DefaultLanguage = "es"

// SecurityContext holds the authenticated caller's identity for the duration
// of one request. Language is filled in by the session guard.
type SecurityContext struct {
	UserID        string
	BusinessID    string
	SessionID     string
	AccountTypeID string
	Language      string
}

type contextKey string

const securityContextKey contextKey = "securityContext"

// WithSecurityContext attaches the security context to the request context.
func WithSecurityContext(ctx context.Context, sec *SecurityContext) context.Context {
	return context.WithValue(ctx, securityContextKey, sec)
}

// FromContext extracts the security context from the request context.
func FromContext(ctx context.Context) (*SecurityContext, bool) {
	sec, ok := ctx.Value(securityContextKey).(*SecurityContext)
	return sec, ok
}

// LanguageOrDefault returns the request language, falling back to "es".
func (s *SecurityContext) LanguageOrDefault() string {
	if s.Language == "" {
		return DefaultLanguage
	}
	return s.Language
}
