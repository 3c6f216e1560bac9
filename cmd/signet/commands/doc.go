// Package commands defines the signet CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init         Create the local identity and a default config file
//   - fingerprint  Print the identity fingerprint
//   - register     Publish your username and public key
//   - find         Look up a user on the server
//   - connect      Authenticate, open the channel and listen for invites
//   - invite       Send a signed invite to a user
//   - uninvite     Withdraw an invite
//   - invites      List invites received while connected
//
// # Implementation
//
// The root command resolves the home directory, loads config.toml (or the
// file named by --config), applies flag overrides and sets up logging.
// Subcommands then build the dependency graph with app.Wire, prompting for
// the passphrase only when the signing key is needed.
package commands
