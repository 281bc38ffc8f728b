// Package ltlogger configures logrus for the console: level, formatting,
// optional rotating file output, and a hook that mirrors entries into a node
// log channel while the terminal UI owns the screen.
package ltlogger

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/txn2/linkterm/pkg/ltcfg"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu       sync.Mutex
	fileOut  *lumberjack.Logger
	termOut  io.Writer = os.Stderr
	quietCnt int
)

// Setup applies cfg to the standard logrus logger. verbose forces debug
// level.
func Setup(cfg ltcfg.LogConfig, verbose bool) error {
	level := log.InfoLevel
	if cfg.Level != "" {
		l, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return errors.Wrap(err, "log level")
		}
		level = l
	}
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	mu.Lock()
	defer mu.Unlock()

	if fileOut != nil {
		_ = fileOut.Close()
		fileOut = nil
	}
	if cfg.File != "" {
		fileOut = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	}
	log.SetOutput(output(quietCnt > 0))
	return nil
}

func output(quiet bool) io.Writer {
	switch {
	case fileOut != nil && quiet:
		return fileOut
	case fileOut != nil:
		return io.MultiWriter(termOut, fileOut)
	case quiet:
		return io.Discard
	default:
		return termOut
	}
}

// Quiet stops terminal output, keeping the log file if one is configured.
// The returned function restores terminal output.
func Quiet() (restore func()) {
	mu.Lock()
	quietCnt++
	log.SetOutput(output(true))
	mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			defer mu.Unlock()
			quietCnt--
			log.SetOutput(output(quietCnt > 0))
		})
	}
}

// Close flushes and closes the log file, if any
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if fileOut == nil {
		return nil
	}
	err := fileOut.Close()
	fileOut = nil
	log.SetOutput(output(quietCnt > 0))
	return err
}
