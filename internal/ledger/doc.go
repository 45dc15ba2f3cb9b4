// Package ledger keeps the history of export runs in SQLite.
//
// Each run gets a row with its status and totals, and every thumbnail
// download made during the run is appended to the images table. The ledger
// is history only; the export never reads it to decide what to fetch.
package ledger
