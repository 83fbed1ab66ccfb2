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
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AttachRunLog copies every entry of the process logger into file and tags
// it with fields until the returned function is called. The file is
// truncated.
func AttachRunLog(file string, fields ...zap.Field) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return nil, errors.Wrapf(err, "create log dir for %s", file)
	}
	f, err := os.OpenFile(filepath.Clean(file), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0640)
	if err != nil {
		return nil, errors.Wrapf(err, "open run log %s", file)
	}

	prev := GetLogger()
	fileCore := zapcore.NewCore(newEncoder("console"), zapcore.AddSync(f), Alevel)
	lg := prev.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})).With(fields...)
	SetLogger(lg)

	return func() error {
		SetLogger(prev)
		_ = lg.Sync()
		return f.Close()
	}, nil
}
