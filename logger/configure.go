// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package logger

import (
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure sets up the global logger. With a file path, output goes
// to both the console and a size-rotated log file; without one, to the
// console only.
func Configure(levelName, filePath string) {
	zerolog.TimeFieldFormat = time.DateTime

	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
	}

	var writer zerolog.LevelWriter = zerolog.MultiLevelWriter(console)
	if filePath != "" {
		file := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		writer = zerolog.MultiLevelWriter(console, file)
	}

	log.Logger = zerolog.New(writer).
		With().
		Timestamp().
		Logger().
		Level(level)
}
