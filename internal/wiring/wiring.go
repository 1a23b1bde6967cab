// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.molt.dev/molt/internal/adapters/config"
	_ "go.molt.dev/molt/internal/adapters/fs"
	_ "go.molt.dev/molt/internal/adapters/logger"
	_ "go.molt.dev/molt/internal/adapters/telemetry"
	_ "go.molt.dev/molt/internal/adapters/watcher"
	// Register app nodes.
	_ "go.molt.dev/molt/internal/app"
)
