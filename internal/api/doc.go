// Package api exposes the engine's operations over HTTP/JSON.
//
// All /v1 routes require a bearer token; the authenticated user from the
// token scopes every query and write. Engine error kinds map onto HTTP
// statuses: validation failures are 400, unknown entities 404, state
// inconsistencies 409, and storage outages 503.
package api
