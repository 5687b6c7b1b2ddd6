// Package notifications delivers workflow events via pluggable notifiers.
//
// The default implementation publishes to an ntfy-style webhook configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Enumerated event types cover the major workflow milestones so the
// manager can emit consistent, user-friendly messages without duplicating HTTP
// glue. Repeated identical messages inside the configured dedup window are
// dropped so a flapping item does not flood the operator.
//
// Extend this package if you need alternative transports; all workflow code
// depends only on the simple Service interface.
package notifications
