package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// Options selects the writers and level of the process logger.
type Options struct {
	Level  string
	Output []string
	Dir    string
}

// New builds the process logger. Console output is the default when no
// output is configured.
func New(opts Options) arbor.ILogger {
	logger := arbor.NewLogger()

	console := len(opts.Output) == 0
	file := false
	for _, out := range opts.Output {
		switch out {
		case "stdout", "console":
			console = true
		case "file":
			file = true
		}
	}

	if file {
		dir := opts.Dir
		if dir == "" {
			dir = "logs"
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("Warning: Failed to create logs directory: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:             models.LogWriterTypeFile,
				FileName:         filepath.Join(dir, "autoapply.log"),
				TimeFormat:       "15:04:05",
				MaxSize:          50 * 1024 * 1024,
				MaxBackups:       3,
				OutputType:       models.OutputFormatLogfmt,
				DisableTimestamp: false,
			})
		}
	}

	if console {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:             models.LogWriterTypeConsole,
			TimeFormat:       "15:04:05",
			OutputType:       models.OutputFormatLogfmt,
			DisableTimestamp: false,
		})
	}

	level := opts.Level
	if level == "" {
		level = "info"
	}
	return logger.WithLevelFromString(level)
}
