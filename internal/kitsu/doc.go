// Package kitsu provides the minimal client for the Kitsu production-tracking
// API used by the export.
//
// A Client authenticates once, either through the login endpoint or with a
// pre-issued token, and then issues bearer-authenticated GET requests. JSON
// responses decode into the typed records in this package; image endpoints
// are fetched as raw bytes. Non-2xx responses and undecodable bodies surface
// as services.ErrUpstream, rejected logins as services.ErrAuth. Nothing is
// retried.
package kitsu
