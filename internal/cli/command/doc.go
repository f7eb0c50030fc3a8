// Package command provides CLI command definitions for nftreg-cli.
//
// It uses urfave/cli/v2 for command parsing:
//
//   - root.go: Application root, global flags, connection setup
//   - registry.go: Registry and ownership queries
//   - token.go: Mint, transfer, approval and burn operations
//   - admin.go: Custodian settings and snapshot management
package command
