// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"docasm/assemble"
	"docasm/config"
	"docasm/opc"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by assemble subcommand
	Overwrite bool
	CodePage  encoding.Encoding // forced for non UTF-8 names in source archives

	start         time.Time
	restoreStdLog func()
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// AssembleOptions translates configuration into engine options.
func (e *LocalEnv) AssembleOptions() assemble.Options {
	opts := assemble.DefaultOptions()
	if e.Cfg == nil {
		return opts
	}
	opts.NormalizeStyleIDs = e.Cfg.Assembly.NormalizeStyleIDs
	opts.CustomXMLItems = e.Cfg.Assembly.CustomXMLItems
	opts.MissingMarker = e.Cfg.Assembly.MissingMarker
	return opts
}

func (e *LocalEnv) SaveOptions() opc.SaveOptions {
	if e.Cfg == nil {
		return opc.SaveOptions{}
	}
	return opc.SaveOptions{FixZip: e.Cfg.Assembly.FixZip}
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
