/*
Copyright 2018-2024 Craig Johnston <cjimti@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ltlogger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/txn2/linkterm/pkg/ltlog"
)

// ChannelHook captures logrus entries and appends them to a log channel
type ChannelHook struct {
	channel *ltlog.Channel
	levels  []logrus.Level
}

// NewChannelHook creates a hook writing to channel. Debug and trace entries
// are skipped.
func NewChannelHook(channel *ltlog.Channel) *ChannelHook {
	return &ChannelHook{
		channel: channel,
		levels: []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
			logrus.WarnLevel,
			logrus.InfoLevel,
		},
	}
}

// Levels returns the log levels this hook handles
func (h *ChannelHook) Levels() []logrus.Level {
	return h.levels
}

// SetLevels sets which log levels this hook should capture
func (h *ChannelHook) SetLevels(levels []logrus.Level) {
	h.levels = levels
}

// Fire is called when a log entry is made
func (h *ChannelHook) Fire(entry *logrus.Entry) error {
	text := entry.Message
	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(text)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
		}
		text = b.String()
	}

	h.channel.AppendLine(ltlog.Line{
		Time:  entry.Time,
		Level: levelOf(entry.Level),
		Text:  text,
	})
	return nil
}

func levelOf(l logrus.Level) ltlog.Level {
	switch l {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return ltlog.LevelError
	case logrus.WarnLevel:
		return ltlog.LevelWarn
	case logrus.InfoLevel:
		return ltlog.LevelInfo
	case logrus.DebugLevel:
		return ltlog.LevelDebug
	default:
		return ltlog.LevelTrace
	}
}
