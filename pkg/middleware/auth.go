package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/logger"
	"github.com/quickkiraana/kiraana/pkg/response"
)

// Resolver turns a bearer token into the shopkeeper it was issued to.
type Resolver interface {
	Resolve(ctx context.Context, token string) (models.Identity, error)
}

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromCtx returns the identity attached by Guard.
func IdentityFromCtx(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}

// Guard rejects requests without a valid "Authorization: Bearer <token>"
// header and attaches the resolved identity to the request context.
func Guard(res Resolver) func(http.Handler) http.Handler {
	return guard(res, func(r *http.Request) string {
		return BearerToken(r.Header.Get("Authorization"))
	})
}

// GuardQuery reads the token from a query parameter instead. Browsers
// cannot set headers on a WebSocket handshake.
func GuardQuery(res Resolver, param string) func(http.Handler) http.Handler {
	return guard(res, func(r *http.Request) string {
		return strings.TrimSpace(r.URL.Query().Get(param))
	})
}

func guard(res Resolver, extract func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extract(r)
			if token == "" {
				response.Fail(w, r, apperr.E(apperr.Unauthenticated, "No token, authorization denied", nil))
				return
			}

			id, err := res.Resolve(r.Context(), token)
			if err != nil {
				if apperr.KindOf(err) == apperr.Unauthenticated {
					err = apperr.E(apperr.InvalidToken, "Token is not valid", err)
				}
				response.Fail(w, r, err)
				return
			}

			ctx := WithIdentity(r.Context(), id)
			ctx = logger.InjectLogger(ctx, logger.WithCtx(ctx).With("shop_id", id.ShopID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an Authorization header value.
// Anything other than "Bearer <token>" yields "".
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
