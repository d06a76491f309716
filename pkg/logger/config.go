package logger

import "log/slog"

type Backend string

const (
	BackendStd Backend = "std" // slog text handler, used in dev
	BackendZap Backend = "zap" // zap JSON core behind slog-zap
)

type Config struct {
	// metadata attached to every record
	Service    string
	Version    string
	InstanceID string

	Level   slog.Level
	Env     Env
	Backend Backend // empty: std in dev, zap otherwise
	Debug   bool

	// zap sampling, per second
	SampleInitial    int
	SampleThereafter int

	AddSource bool
}

func (c Config) level() slog.Level {
	if c.Debug && c.Level == 0 {
		return slog.LevelDebug
	}
	return c.Level
}
