// Package server provides HTTP routing, middleware, and OAuth handling for the local callback server used by `ytfm auth google`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] is the one middleware shipped here.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens
// through an [Exchanger], and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// When the user runs `ytfm auth google`, a temporary HTTP server starts on the configured host and port,
// handles the callback, and shuts down after receiving the token.
package server
