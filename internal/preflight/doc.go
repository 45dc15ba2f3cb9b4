// Package preflight provides readiness checks for the Kitsu server and the
// filesystem paths an export writes to.
//
// The doctor command runs every check and renders the results; export does
// not call these checks and fails on the first real error instead.
package preflight
