// Package auth provides JWT verification for API requests and the API key
// bootstrap flow.
//
// Requests carry an HS256-signed bearer token whose "sub" claim is the user
// ID; HTTPAuthMiddleware verifies it and attaches the user to the request
// context. Bootstrap API keys are generated once, shown in plaintext a
// single time, and stored only as bcrypt hashes.
package auth
