package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"habitd/internal/structures"
)

type TypeEnum uint8

const (
	TypeApp TypeEnum = iota
	TypeSync
	TypeGet
	TypePost
)

type Logger interface {
	Errorf(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Infof(t TypeEnum, format string, args ...interface{})
	Debugf(t TypeEnum, format string, args ...interface{})
	Fatalf(t TypeEnum, format string, args ...interface{})
	Close()
}

// GetLogTypeByRequestType maps an HTTP method to the access-log stream.
func GetLogTypeByRequestType(method string) TypeEnum {
	if method == "POST" {
		return TypePost
	}
	return TypeGet
}

// LogProvider routes each log type to its own zerolog instance: application
// and sync events into separate files, GET/POST access lines into a shared
// access log.
type LogProvider struct {
	loggers map[TypeEnum]zerolog.Logger
	files   []*os.File
}

func NewLogProvider(conf *structures.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Logger.Level, err)
	}

	mode := os.FileMode(conf.Logger.Mode)
	open := func(name string) (*os.File, error) {
		return os.OpenFile(filepath.Join(conf.Logger.Dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, mode)
	}

	appFile, err := open("app.log")
	if err != nil {
		return nil, err
	}
	syncFile, err := open("sync.log")
	if err != nil {
		appFile.Close()
		return nil, err
	}
	accessFile, err := open("access.log")
	if err != nil {
		appFile.Close()
		syncFile.Close()
		return nil, err
	}

	appLog := zerolog.New(appFile).Level(level).With().Timestamp().Logger()
	syncLog := zerolog.New(syncFile).Level(level).With().Timestamp().Logger()
	accessLog := zerolog.New(accessFile).Level(level).With().Timestamp().Logger()

	return &LogProvider{
		loggers: map[TypeEnum]zerolog.Logger{
			TypeApp:  appLog,
			TypeSync: syncLog,
			TypeGet:  accessLog.With().Str("method", "GET").Logger(),
			TypePost: accessLog.With().Str("method", "POST").Logger(),
		},
		files: []*os.File{appFile, syncFile, accessFile},
	}, nil
}

func (l *LogProvider) logger(t TypeEnum) zerolog.Logger {
	if lg, ok := l.loggers[t]; ok {
		return lg
	}
	return l.loggers[TypeApp]
}

func (l *LogProvider) Errorf(t TypeEnum, format string, args ...interface{}) {
	lg := l.logger(t)
	lg.Error().Msgf(format, args...)
}

func (l *LogProvider) Warnf(t TypeEnum, format string, args ...interface{}) {
	lg := l.logger(t)
	lg.Warn().Msgf(format, args...)
}

func (l *LogProvider) Infof(t TypeEnum, format string, args ...interface{}) {
	lg := l.logger(t)
	lg.Info().Msgf(format, args...)
}

func (l *LogProvider) Debugf(t TypeEnum, format string, args ...interface{}) {
	lg := l.logger(t)
	lg.Debug().Msgf(format, args...)
}

func (l *LogProvider) Fatalf(t TypeEnum, format string, args ...interface{}) {
	lg := l.logger(t)
	lg.Fatal().Msgf(format, args...)
}

func (l *LogProvider) Close() {
	for _, f := range l.files {
		_ = f.Close()
	}
}
