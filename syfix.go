// Package syfix rewrites documents imported from Notion into SiYuan so that
// they follow SiYuan's own formatting conventions.
//
// Documents are read from the SiYuan data directory as trees of blocks.
// Paragraphs, math blocks and blockquotes are rewritten in place through the
// SiYuan HTTP API, see Synchronizer.
package syfix

import (
	"strings"

	"github.com/akeil/syfix/internal/logging"
)

func SetLogLevel(level string) {
	var lvl logging.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = logging.LevelDebug
	case "info":
		lvl = logging.LevelInfo
	case "warning":
		lvl = logging.LevelWarning
	case "error":
		lvl = logging.LevelError
	default:
		lvl = logging.LevelNone
	}
	logging.SetLevel(lvl)
}
