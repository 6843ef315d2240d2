// Package commands implements the formz command line: replaying scripted
// command sequences against a declarative form and watching the files for
// changes.
package commands
