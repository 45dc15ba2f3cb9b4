// Package main hosts the kitsusync CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation and hands
// it to the export, history, doctor and notification commands. Exit codes
// follow the error class: 2 for configuration problems, 3 for rejected
// credentials and 1 for everything else.
package main
