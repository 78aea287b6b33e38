// Package dedupe guards against duplicate usage-session submissions.
//
// Mobile clients retry on flaky networks, so the same session can arrive
// more than once. The guard keys a submission by its identifying fields and
// remembers the session it produced for a configurable window, backed by an
// expirable LRU so memory use stays bounded.
package dedupe
