package utils

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// LoggerConfig controls InitLogger.
type LoggerConfig struct {
	// text or json
	Format string
	Output io.Writer
	// colour the prefix for terminals
	EnableColors bool
}

func InitLogger(config ...LoggerConfig) *log.Logger {
	var cfg LoggerConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	if cfg.Format == "json" {
		return log.New(&jsonLines{out: cfg.Output, now: time.Now}, "", 0)
	}

	prefix := "[SkillSync] "
	if cfg.EnableColors {
		prefix = "\033[36m" + prefix + "\033[0m"
	}
	return log.New(cfg.Output, prefix, log.LstdFlags|log.Lshortfile|log.LUTC)
}

// jsonLines turns each log.Logger write into one JSON object per line.
type jsonLines struct {
	out io.Writer
	now func() time.Time
}

type jsonEntry struct {
	Time    string `json:"time"`
	Service string `json:"service"`
	Message string `json:"msg"`
}

func (w *jsonLines) Write(p []byte) (int, error) {
	line, err := json.Marshal(jsonEntry{
		Time:    w.now().UTC().Format(time.RFC3339),
		Service: "skillsync",
		Message: strings.TrimRight(string(p), "\n"),
	})
	if err != nil {
		return 0, err
	}
	if _, err := w.out.Write(append(line, '\n')); err != nil {
		return 0, err
	}
	return len(p), nil
}
