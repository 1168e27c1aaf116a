// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logger used across the order book engines. It embeds a
// zap logger so the usual Debug/Info/Warn/Error/Panic calls are available.
type Logger struct {
	*zap.Logger
	config *zap.Config
	name   string
}

func newLoggerFromZapConfig(cfg *zap.Config) *Logger {
	zl, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return &Logger{
		Logger: zl,
		config: cfg,
	}
}

// Clone builds a fresh logger sharing the same configuration.
func (log *Logger) Clone() *Logger {
	return newLoggerFromZapConfig(cloneConfig(log.config))
}

func (log *Logger) GetLevel() Level {
	return Level(log.config.Level.Level())
}

func (log *Logger) GetLevelString() string {
	return log.config.Level.String()
}

func (log *Logger) GetName() string {
	return log.name
}

// IsDebug returns true when debug logs would be emitted, used to guard
// expensive field construction on hot paths.
func (log *Logger) IsDebug() bool {
	return log.config.Level.Enabled(zapcore.DebugLevel)
}

// Named adds a sub-scope to the logger's name, e.g. "execution.matching".
func (log *Logger) Named(name string) *Logger {
	c := log.Clone()
	newName := name
	if log.name != "" {
		newName = fmt.Sprintf("%s.%s", log.name, name)
	}
	return &Logger{
		Logger: c.Logger.Named(newName),
		config: c.config,
		name:   newName,
	}
}

func (log *Logger) SetLevel(level Level) {
	lvl := level.ZapLevel()
	if log.config.Level.Level() == lvl {
		return
	}
	log.config.Level.SetLevel(lvl)
}

func (log *Logger) With(fields ...zap.Field) *Logger {
	c := log.Clone()
	return &Logger{
		Logger: c.Logger.Named(log.name).With(fields...),
		config: c.config,
		name:   log.name,
	}
}

// AtExit flushes the logs before exiting the process. This is meant to be
// used with defer when initialising the logger.
func (log *Logger) AtExit() {
	if log.Logger != nil {
		_ = log.Logger.Sync()
	}
}

func (log *Logger) Errorf(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(1)).Sugar().Errorf(strings.TrimSpace(s), args...)
}

func (log *Logger) Warningf(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(1)).Sugar().Warnf(strings.TrimSpace(s), args...)
}

func (log *Logger) Infof(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(1)).Sugar().Infof(strings.TrimSpace(s), args...)
}

func (log *Logger) Debugf(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(1)).Sugar().Debugf(strings.TrimSpace(s), args...)
}

func cloneConfig(cfg *zap.Config) *zap.Config {
	c := zap.Config{
		Level:             zap.NewAtomicLevelAt(cfg.Level.Level()),
		Development:       cfg.Development,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
		Encoding:          cfg.Encoding,
		EncoderConfig:     cfg.EncoderConfig,
		OutputPaths:       cfg.OutputPaths,
		ErrorOutputPaths:  cfg.ErrorOutputPaths,
		InitialFields:     make(map[string]interface{}, len(cfg.InitialFields)),
	}
	for k, v := range cfg.InitialFields {
		c.InitialFields[k] = v
	}
	if cfg.Sampling != nil {
		c.Sampling = &zap.SamplingConfig{
			Initial:    cfg.Sampling.Initial,
			Thereafter: cfg.Sampling.Thereafter,
		}
	}
	return &c
}

func devEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		CallerKey:      "C",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		LevelKey:       "L",
		LineEnding:     "\n",
		MessageKey:     "M",
		NameKey:        "N",
		TimeKey:        "T",
	}
}

func prodEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		CallerKey:      "caller",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		LevelKey:       "level",
		LineEnding:     "\n",
		MessageKey:     "message",
		NameKey:        "logger",
		StacktraceKey:  "stacktrace",
		TimeKey:        "@timestamp",
	}
}

// NewDevLogger creates a console logger at debug level.
func NewDevLogger() *Logger {
	return newLoggerFromZapConfig(&zap.Config{
		Level:            zap.NewAtomicLevelAt(DebugLevel.ZapLevel()),
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    devEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// NewProdLogger creates a json logger at info level.
func NewProdLogger() *Logger {
	return newLoggerFromZapConfig(&zap.Config{
		Level:            zap.NewAtomicLevelAt(InfoLevel.ZapLevel()),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    prodEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// NewTestLogger creates a logger for unit tests. Output goes to stderr at
// debug level so failing tests keep their context.
func NewTestLogger() *Logger {
	return newLoggerFromZapConfig(&zap.Config{
		Level:            zap.NewAtomicLevelAt(DebugLevel.ZapLevel()),
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    devEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// NewLoggerFromConfig creates a logger for the environment set in the
// configuration: "dev" and "test" give a console logger, anything else a
// json logger.
func NewLoggerFromConfig(cfg Config) *Logger {
	var log *Logger
	switch cfg.Environment {
	case "dev":
		log = NewDevLogger()
	case "test":
		log = NewTestLogger()
	default:
		log = NewProdLogger()
	}
	log.SetLevel(cfg.Level)
	return log
}
