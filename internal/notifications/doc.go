// Package notifications publishes export outcomes to ntfy.
//
// The topic comes from the [notifications] section of the config file; with
// no topic configured NewService returns a no-op implementation so callers
// never branch on whether notifications are enabled.
package notifications
