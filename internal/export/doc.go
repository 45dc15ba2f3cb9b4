// Package export turns Kitsu payloads into the static document tree read by
// the edit breakdown front end.
//
// The Exporter walks the user context, persons, lookup tables and every
// project in order. Each fetcher filters and reshapes one resource type,
// schedules thumbnail downloads through the thumbnails package and returns
// the records the Writer serializes. Documents are replaced wholesale on
// every run; nothing is merged.
package export
