// Package app wires application dependencies for the CLI.
//
// It builds the concrete stores, relay client, transport factory and
// services from Config and exposes them on App for commands to use.
package app
