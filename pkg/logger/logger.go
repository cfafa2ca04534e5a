// Package logger zerolog日志初始化
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options 日志配置
type Options struct {
	Level  string // debug/info/warn/error
	Format string // console/json
	Output string // stdout/stderr/文件路径
}

// Init 初始化全局logger并返回
// 替换zerolog的全局log.Logger，其他包直接使用log.Info()等
func Init(app string, opts Options) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out, err := openOutput(opts.Output)
	if err != nil {
		return zerolog.Nop(), err
	}
	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(out).With().Timestamp().Str("app", app).Logger()
	log.Logger = l
	return l, nil
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	}
}
