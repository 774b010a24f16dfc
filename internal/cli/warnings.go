package cli

import (
	"github.com/neoclaw-ai/umlsmith/internal/config"
	"github.com/neoclaw-ai/umlsmith/internal/logging"
)

// Emit startup warnings derived from non-fatal config conditions.
func warnStartupConditions(report *config.ValidationReport) {
	if report == nil {
		return
	}
	for _, w := range report.Warnings {
		logging.Logger().Warn(w + "; requests will fail until this is set")
	}
}
