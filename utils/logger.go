package utils

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process wide logger. It discards everything until InitLogger is called.
var Log *zap.SugaredLogger = zap.NewNop().Sugar()

// InitLogger sets up console output and, when logFile is not empty, a rotating file.
func InitLogger(level string, logFile string) error {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(level)); err != nil && level != "" {
		return err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stderr), lvl),
	}

	if logFile != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    20,
			MaxBackups: 3,
			MaxAge:     7,
			LocalTime:  true,
		}
		fileConfig := encoderConfig
		fileConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores,
			zapcore.NewCore(zapcore.NewConsoleEncoder(fileConfig), zapcore.AddSync(fileWriter), lvl))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
	return nil
}

func SyncLogger() {
	_ = Log.Sync()
}
