// Package logging wires the global zap logger used across the service.
//
// Logs are teed to the console and to a rotating file under the logs
// directory. The file is what gets attached to failure notification mails,
// so InitGlobalLogger returns its path.
package logging

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "hh-parser.log"

const (
	maxLogFileSizeMb = 50
	maxLogFileAge    = 180
	maxLogBackups    = 20
)

// InitGlobalLogger builds the logger and installs it with zap.ReplaceGlobals,
// so the rest of the code can use zap.S(). env must be one of "dev", "prod".
func InitGlobalLogger(env, logsDir, level string) (string, error) {
	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return "", err
	}

	var encoderConfig zapcore.EncoderConfig
	var consoleEncoder zapcore.Encoder
	if strings.EqualFold(env, "prod") {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		consoleEncoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		consoleEncoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), logLevel),
	}

	logFilePath := ""
	if logsDir != "" {
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return "", err
		}
		logFilePath = filepath.Join(logsDir, logFileName)
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    maxLogFileSizeMb,
			MaxAge:     maxLogFileAge,
			MaxBackups: maxLogBackups,
		})
		fileEncoderConfig := zap.NewProductionEncoderConfig()
		fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), fileWriter, logLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(logger)

	return logFilePath, nil
}
