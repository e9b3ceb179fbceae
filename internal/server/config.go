package server

import (
	"github.com/raysh454/vulnx/internal/app"
	"github.com/raysh454/vulnx/internal/logging"
	"github.com/raysh454/vulnx/internal/scan"
)

type Config struct {
	// ListenAddr is the HTTP listen address of the console.
	ListenAddr string

	// AppConfig configures the components behind the console. Nil means
	// app.DefaultConfig().
	AppConfig *app.Config

	Logger logging.Logger

	// Service overrides the HTTP Scan Service client built from AppConfig.
	Service scan.Service
}
