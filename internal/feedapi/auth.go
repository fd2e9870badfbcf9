// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package feedapi

import (
	"net/http"
	"strings"

	"github.com/tomtom215/feedvault/internal/feedauth"
	"github.com/tomtom215/feedvault/internal/logging"
)

// apiKeyHeader is NuGet's conventional push-authentication header.
const apiKeyHeader = "X-NuGet-ApiKey"

// requirePushAuth gates push/remove routes behind the configured API key
// and, if jwtMgr is non-nil, an equally-accepted bearer token. An apiKeys
// authenticator with no configured key hash (ErrNoAPIKeyConfigured) and
// no JWT manager closes the route entirely. apiKeys must not be nil.
func requirePushAuth(apiKeys *feedauth.APIKeyAuthenticator, jwtMgr *feedauth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ok, _ := apiKeys.Authenticate(r.Header.Get(apiKeyHeader)); ok {
				next.ServeHTTP(w, r)
				return
			}

			if jwtMgr != nil {
				if bearer := bearerToken(r); bearer != "" {
					if claims, err := jwtMgr.ValidateToken(bearer); err == nil {
						logging.Debug().Str("subject", claims.Subject).Msg("feedapi: authenticated via bearer token")
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			writeError(w, r, http.StatusUnauthorized, "push/remove requires a valid API key or bearer token")
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimPrefix(h, prefix)
}
