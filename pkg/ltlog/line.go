package ltlog

import (
	"strings"
	"time"
)

// Level is the severity the firmware log decoder attached to a line, if any
type Level string

const (
	LevelNone  Level = ""
	LevelTrace Level = "TRACE"
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var knownLevels = map[string]Level{
	"TRACE": LevelTrace,
	"DEBUG": LevelDebug,
	"INFO":  LevelInfo,
	"WARN":  LevelWarn,
	"ERROR": LevelError,
}

// Line is one received log line. Lines are immutable once appended.
type Line struct {
	Seq   uint64    `json:"seq"`
	Time  time.Time `json:"time"`
	Level Level     `json:"level,omitempty"`
	Text  string    `json:"text"`
}

// ParseLine builds a Line from raw decoder output. Lines shaped like
// "<timestamp>[LEVEL] text" get their level set; anything else is kept
// verbatim with no level. Seq and Time are assigned on append.
func ParseLine(raw string) Line {
	raw = strings.TrimRight(raw, "\r\n")
	line := Line{Text: raw}

	open := strings.IndexByte(raw, '[')
	if open < 0 {
		return line
	}
	end := strings.IndexByte(raw[open:], ']')
	if end < 0 {
		return line
	}
	if lvl, ok := knownLevels[raw[open+1:open+end]]; ok {
		// the prefix before the level must be a timestamp, not free text
		if strings.ContainsAny(strings.TrimSpace(raw[:open]), " \t") {
			return line
		}
		line.Level = lvl
	}
	return line
}
