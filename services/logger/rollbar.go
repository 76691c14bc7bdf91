package logsvc

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/cuaderno/core"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	if conf.TeacherEmail != "" {
		// single tenant: every report belongs to the teacher
		rollbar.SetPerson("teacher", conf.AppName, conf.TeacherEmail)
	}
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// WithPrefix returns a logger writing to the same output under another prefix (e.g. "SYNC : ").
func (l RollbarLogger) WithPrefix(prefix string) *RollbarLogger {
	return &RollbarLogger{std: log.New(l.std.Writer(), prefix, l.std.Flags())}
}

// expected fmt: msg | error, map[string]interface{}, *http.Request, context.Context;
// any other arg is reported as extra data.
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	newArgs := make([]interface{}, 0, len(args)+2)
	newArgs = append(newArgs, msg)
	var extras map[string]interface{}
	for i, arg := range args {
		switch arg.(type) {
		case error, map[string]interface{}, *http.Request, context.Context:
			newArgs = append(newArgs, arg)
		default:
			if extras == nil {
				extras = make(map[string]interface{})
			}
			extras[fmt.Sprintf("arg%d", i)] = fmt.Sprintf("%+v", arg)
		}
	}
	if extras != nil {
		newArgs = append(newArgs, extras)
	}
	return newArgs
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		if _, ok := arg.(*http.Request); ok {
			continue
		}
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print(msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
