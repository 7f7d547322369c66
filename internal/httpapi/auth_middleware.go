package httpapi

import (
	"context"
	"net/http"
	"strings"

	"mindtrackserver/internal/domain"
)

type authCtxKey int

const authAccountKey authCtxKey = iota

// requireAuth resolves the caller from a Bearer access token. Handlers behind
// it only ever see the caller's own account.
func (a *api) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			WriteDomainError(w, domain.ErrUnauthorized)
			return
		}

		acct, err := a.authSvc.AccountForAccessToken(r.Context(), raw)
		if err != nil {
			WriteDomainError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), authAccountKey, acct)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func CurrentAccount(ctx context.Context) (domain.Account, bool) {
	a, ok := ctx.Value(authAccountKey).(domain.Account)
	return a, ok
}
