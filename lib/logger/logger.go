/*
Copyright 2022 Huawei Cloud Computing Technologies Co., Ltd.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

 http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package logger

import (
	"sync"

	"github.com/openGemini/harm/lib/errno"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a module scoped view over the process logger. It resolves the
// zap logger on every call so InitLogger takes effect for existing loggers.
type Logger struct {
	module errno.Module
	fields []zap.Field
}

var loggerPool sync.Map

func NewLogger(module errno.Module) *Logger {
	l, ok := loggerPool.Load(module)
	if ok {
		log, _ := l.(*Logger)
		return log
	}
	// ignore concurrent situation, repeat store same module logger
	log := &Logger{module: module}
	loggerPool.Store(module, log)
	return log
}

// With returns a copy of the logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	cp := &Logger{module: l.module}
	cp.fields = append(append(cp.fields, l.fields...), fields...)
	return cp
}

func (l *Logger) Module() errno.Module {
	return l.module
}

func (l *Logger) zapLogger() *zap.Logger {
	return GetLogger().WithOptions(zap.AddCallerSkip(1)).With(l.fields...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zapLogger().Error(msg, l.rewriteFields(fields)...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zapLogger().Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zapLogger().Warn(msg, l.rewriteFields(fields)...)
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	if !l.IsDebugLevel() {
		return
	}
	l.zapLogger().Debug(msg, fields...)
}

func (l *Logger) GetZapLogger() *zap.Logger {
	return GetLogger().With(l.fields...)
}

func (l *Logger) IsDebugLevel() bool {
	return Alevel.Enabled(zapcore.DebugLevel)
}

// rewriteFields appends the errno code of an *errno.Error carried in the
// "error" field, plus its stack for fatal errors.
func (l *Logger) rewriteFields(fields []zap.Field) []zap.Field {
	for i := range fields {
		if fields[i].Key != "error" {
			continue
		}

		tmp, ok := fields[i].Interface.(*errno.Error)
		if !ok || tmp == nil {
			continue
		}

		if tmp.Module() == errno.ModuleUnknown {
			tmp = errno.Convert(tmp, tmp.Errno(), l.module, tmp.Level())
		}
		fields = append(fields, zap.String("errno", tmp.Code()))
		if tmp.Level().LogStack() && len(tmp.Stack()) > 0 {
			fields = append(fields, zap.String("stack", string(tmp.Stack())))
		}
		return fields
	}

	return fields
}
