// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package auth protects the admin endpoints with HS256 bearer tokens.

When security.admin_jwt_secret (ADMIN_JWT_SECRET) is set, POST /train and
POST /reload-model require an Authorization header carrying a token signed
with that secret whose role claim is "admin". Tokens are minted offline:

	setlist-server -admin-token ops@example.com

Recommendation and health endpoints stay public.
*/
package auth
