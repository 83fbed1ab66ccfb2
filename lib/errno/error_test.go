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

package errno_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/openGemini/harm/lib/errno"
	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	err := errno.NewError(errno.ItemContainsSpace, "a b", 3)
	if !assert.NotEmpty(t, err, "new error failed with nil result") {
		return
	}

	assert.EqualError(t, err, `item "a b" contains a space at line 3`)
	assert.True(t, errno.Equal(err, errno.ItemContainsSpace))
	assert.False(t, errno.Equal(errors.New("x"), errno.ItemContainsSpace))
}

func TestUnknown(t *testing.T) {
	err := errno.NewError(65533, 1, "aaa")
	if !assert.NotEmpty(t, err, "new error failed with nil result") {
		return
	}

	assert.EqualError(t, err, "unknown error")
	_ = err.SetModule(errno.ModuleTree)
	assert.Equal(t, int(err.Module()), errno.ModuleTree)
}

func TestFromPanic(t *testing.T) {
	err := errno.FromPanic("boom", errno.ModuleCli)
	assert.EqualError(t, err, "runtime panic: boom")
	assert.True(t, errno.Equal(err, errno.RecoverPanic))
	assert.Equal(t, int(err.Module()), errno.ModuleCli)
	assert.Equal(t, int(err.Level()), errno.LevelFatal)

	inner := errno.NewError(errno.TreePathNotFound, "i1")
	assert.Same(t, inner, errno.FromPanic(inner, errno.ModuleCli))
	assert.Equal(t, int(inner.Module()), errno.ModuleTree)
}

func TestMessage(t *testing.T) {
	type Item struct {
		err    error
		errno  errno.Errno
		module errno.Module
		level  errno.Level
	}

	var items = []*Item{
		{
			err:    errno.NewError(errno.EmptyTransaction, 1),
			errno:  errno.EmptyTransaction,
			module: errno.ModuleDataSet,
			level:  errno.LevelWarn,
		},
		{
			err:    errno.NewError(errno.TreePathNotFound, "i1"),
			errno:  errno.TreePathNotFound,
			module: errno.ModuleTree,
			level:  errno.LevelFatal,
		},
		{
			err:    errno.NewError(errno.InvalidMiningMode, "foo"),
			errno:  errno.InvalidMiningMode,
			module: errno.ModuleConfig,
			level:  errno.LevelWarn,
		},
	}

	for _, item := range items {
		err, ok := item.err.(*errno.Error)
		if !ok {
			t.Fatalf("invalid error type, exp: *errno.Error; got: %s", reflect.TypeOf(item.err))
		}

		assert.Equal(t, item.module, err.Module())
		assert.Equal(t, item.level, err.Level())
		assert.Equal(t, item.errno, err.Errno())
	}
}

func TestCode(t *testing.T) {
	err := errno.NewError(errno.EmptyTransaction, 7)
	assert.Equal(t, "0414001", err.Code())
}

func TestStack(t *testing.T) {
	err := errno.NewError(errno.RecoverPanic, "boom")
	assert.NotEmpty(t, err.Stack())

	err = errno.NewError(errno.RecoverPanic, "boom")
	assert.Empty(t, err.Stack())

	err = errno.NewError(errno.EmptyTransaction, 1)
	assert.Empty(t, err.Stack())
}

func TestConvert(t *testing.T) {
	err := errors.New("some error")
	builtIn := errno.NewBuiltIn(err, errno.ModuleUnknown)
	assert.Equal(t, builtIn.Error(), err.Error())
	assert.Equal(t, int(builtIn.Errno()), errno.BuiltInError)

	third := errno.NewThirdParty(err, errno.ModuleDataSet)
	assert.Equal(t, int(third.Errno()), errno.ThirdPartyError)
	assert.Equal(t, int(third.Module()), errno.ModuleDataSet)

	coded := errno.NewError(errno.EmptyTransaction, 2)
	assert.Same(t, coded, errno.NewThirdParty(coded, errno.ModuleCli))
}
