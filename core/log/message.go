// Copyright (C) 2022 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"
	"strings"
	"time"
)

// Severity defines the severity of a logging message.
type Severity int

const (
	// Verbose indicates extremely verbose level messages.
	Verbose Severity = iota
	// Debug indicates debug-level messages.
	Debug
	// Info indicates minor informational messages that should generally be ignored.
	Info
	// Warning indicates issues that might affect performance or compatibility, but could be ignored.
	Warning
	// Error indicates non terminal failure conditions that may have an effect on results.
	Error
	// Fatal indicates a fatal error.
	Fatal
)

var severityNames = []string{"Verbose", "Debug", "Info", "Warning", "Error", "Fatal"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("Severity<%d>", int(s))
	}
	return severityNames[s]
}

// Short returns the single character name of the severity.
func (s Severity) Short() string {
	return s.String()[:1]
}

// ParseSeverity returns the Severity with the given (case insensitive) name.
func ParseSeverity(name string) (Severity, bool) {
	for i, n := range severityNames {
		if strings.EqualFold(n, name) {
			return Severity(i), true
		}
	}
	return Info, false
}

// Message is a single log record.
type Message struct {
	Text        string
	Time        time.Time
	Severity    Severity
	StopProcess bool
	Tag         string
}

// Style provides customization for printing messages.
type Style struct {
	Timestamp bool // If true, the timestamp will be printed.
	Tag       bool // If true, the tag will be printed if part of the message.
	Severity  bool // If true, the short severity will be printed.
}

var (
	// Normal is the style used for terminal output.
	Normal = Style{Tag: true, Severity: true}
	// Detailed also prints the message time.
	Detailed = Style{Timestamp: true, Tag: true, Severity: true}
	// Raw prints just the message text.
	Raw = Style{}
)

// Print returns the message m printed using the style s.
func (s Style) Print(m *Message) string {
	sb := strings.Builder{}
	if s.Timestamp {
		sb.WriteString(m.Time.Format("15:04:05.000 "))
	}
	if s.Severity {
		sb.WriteString(m.Severity.Short())
		sb.WriteString(": ")
	}
	if s.Tag && m.Tag != "" {
		sb.WriteString("[")
		sb.WriteString(m.Tag)
		sb.WriteString("] ")
	}
	sb.WriteString(m.Text)
	return sb.String()
}
