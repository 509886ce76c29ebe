package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/vellum/internal/config"
)

type envKey struct{}

// env keeps the state shared by all subcommands.
type env struct {
	cfg        *config.Config
	configPath string
	log        *zap.Logger

	start         time.Time
	restoreStdLog func()
}

func envFromContext(ctx context.Context) *env {
	if e, ok := ctx.Value(envKey{}).(*env); ok {
		return e
	}
	panic("env not found in context")
}

func contextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &env{start: time.Now(), log: zap.NewNop()})
}

func (e *env) uptime() time.Duration {
	return time.Since(e.start)
}

func (e *env) redirectStdLog() {
	e.restoreStdLog = zap.RedirectStdLog(e.log)
}

func (e *env) close() {
	_ = e.log.Sync()
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
