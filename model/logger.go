// Copyright ©2025 nlpsolve authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"fmt"
	"io"
)

// LogLevel orders the severities a Logger recognises, modeled on
// lbfgsb.LogLevel but extended with the Warning/Error names
// original_source/uno/tools/Logger.cpp prints (that C++ logger also
// distinguishes DEBUG/SUMMARY/WARNING/ERROR by colour; Go has no terminal
// colour dependency in the corpus so the level name alone carries the
// distinction).
type LogLevel int

const (
	LogSilent LogLevel = iota
	LogError
	LogWarning
	LogInfo
	LogDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "ERROR"
	case LogWarning:
		return "WARNING"
	case LogInfo:
		return "INFO"
	case LogDebug:
		return "DEBUG"
	default:
		return "SILENT"
	}
}

// Logger writes leveled messages to Out, mirroring lbfgsb.Logger's Level/Msg/Out
// shape but splitting Warning/Error into their own methods instead of a single
// generic log(format, args) so call sites read the severity at the call site.
type Logger struct {
	Level LogLevel
	Out   io.Writer
}

func (l *Logger) enabled(level LogLevel) bool {
	return l.Out != nil && l.Level >= level
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if !l.enabled(level) {
		return
	}
	fmt.Fprintf(l.Out, "[%s] "+format+"\n", append([]interface{}{level.String()}, args...)...)
}

// Debug logs a message only when Level >= LogDebug.
func (l *Logger) Debug(format string, args ...interface{}) { l.log(LogDebug, format, args...) }

// Info logs a message only when Level >= LogInfo.
func (l *Logger) Info(format string, args ...interface{}) { l.log(LogInfo, format, args...) }

// Warning logs a message only when Level >= LogWarning. Used for recoverable
// faults the core downgrades rather than aborts on (spec.md §7). The
// interior-point subproblem holds no Logger, so its inverted
// multiplier-reset bound case is not logged.
func (l *Logger) Warning(format string, args ...interface{}) { l.log(LogWarning, format, args...) }

// Error logs a message only when Level >= LogError.
func (l *Logger) Error(format string, args ...interface{}) { l.log(LogError, format, args...) }
