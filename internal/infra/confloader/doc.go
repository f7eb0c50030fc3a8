// Package confloader loads server configuration.
//
// It wraps koanf to merge multiple sources, later sources overriding
// earlier ones:
//
//  1. Default values
//  2. YAML configuration file
//  3. Environment variables (NFTREG_ prefix)
//
// The Watcher reloads on config file changes; only the log level is
// applied hot, everything else requires a restart.
package confloader
