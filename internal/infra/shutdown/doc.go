// Package shutdown provides signal-driven graceful shutdown.
package shutdown
