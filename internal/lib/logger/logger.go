package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/linemk/nirvana-shop/internal/lib/logger/handlers/slogpretty"
)

// окружения, от которых зависит формат логов и вывод стека в ответах 500
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// SetupLogger инициализирует логгер в зависимости от окружения:
// local: цветной вывод, dev: JSON c debug, prod и всё остальное: JSON c info.
func SetupLogger(env string) *slog.Logger {
	return New(env, os.Stdout)
}

// New: то же, что SetupLogger, но с произвольным выводом
func New(env string, out io.Writer) *slog.Logger {
	var handler slog.Handler

	switch env {
	case EnvLocal:
		color.NoColor = false
		handler = slogpretty.PrettyHandlerOptions{
			SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug},
		}.NewPrettyHandler(out)
	case EnvDev:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return slog.New(handler).With(slog.String("service", "storefront"))
}
