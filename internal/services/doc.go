// Package services implements the Request Service: the REST client every
// other component uses to talk to the catalog server.
//
// # Authentication
//
// [APIService] reads the bearer credential from a [CredentialSource] on every
// request and attaches "Authorization: Bearer <credential>" only when it is
// non-empty. The session package is the usual source.
//
// # Errors
//
// Non-2xx responses become a [*RequestError] carrying the status code and the
// server's {"error": "..."} message. RequestError unwraps to
// [shared.ErrAPIRequest] and implements [shared.ServerMessenger], so callers
// surface it with [shared.UserMessage]. Transport failures wrap
// [shared.ErrAPIRequest] as well.
//
// # Limits
//
// Requests time out after ten seconds unless a custom client is supplied, and
// [WithRateLimit] enables a client-side token bucket.
package services
