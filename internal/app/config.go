package app

import (
	"io"
	"log/slog"
	"net/http"

	"signet/internal/config"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Settings   config.Config
	Passphrase string       // unlocks the signing key; may be empty for read-only commands
	HTTP       *http.Client // optional; defaults to http.DefaultClient
	Logger     *slog.Logger // optional; built from Settings.Logging when nil
	LogOutput  io.Writer    // where a built logger writes; defaults to stderr
}
