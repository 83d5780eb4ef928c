// Package cli implements the terminal commands: the interactive planning
// wizard and the share-link decoder.
package cli

import (
	"go.uber.org/zap"

	"github.com/sanchar-ai/hangout-planner/internal/session"
)

// Context carries shared dependencies into command Run methods.
type Context struct {
	Engine       *session.Engine
	ShareBaseURL string
	Logger       *zap.Logger
}
