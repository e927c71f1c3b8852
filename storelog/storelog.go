// Package storelog constructs the loggers shared by the storage packages.
//
// Each subsystem that logs gets its own named *zap.SugaredLogger
// rather than a package-level global (the buffer pool is the only one
// that logs; the device and B-tree packages do not), so a caller
// embedding this module into a larger server can redirect or silence
// individual subsystems.
package storelog

import "go.uber.org/zap"

// New builds a development-mode logger scoped to name. Development mode
// favors readable console output over sampling and JSON encoding, which
// is the right tradeoff for a storage engine lab, not a production
// service.
func New(name string) *zap.SugaredLogger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		// zap.NewDevelopment only fails on a broken encoder config, which
		// never happens with the built-in one.
		panic(err)
	}
	return logger.Named(name).Sugar()
}

// Nop returns a logger that discards everything, for tests that don't
// want eviction chatter on stdout.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
