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

package app

import (
	"fmt"
	"runtime"
	"time"

	"github.com/openGemini/harm/lib/config"
	"github.com/openGemini/harm/lib/logger"
	"go.uber.org/zap"
)

const HARMLOGO = `
 ____  ____       _       _______     ____    ____
|_   ||   _|     / \     |_   __ \   |_   \  /   _|
  | |__| |      / _ \      | |__) |    |   \/   |
  |  __  |     / ___ \     |  __ /     | |\  /| |
 _| |  | |_  _/ /   \ \_  _| |  \ \_  _| |_\/_| |_
|____||____||____| |____||____| |___||_____||_____|

`

// Version information, the value is set by the build script
var (
	Version   = "v0.1.0"
	GitCommit string
	GitBranch string
	BuildTime string
)

// FullVersion returns the full version string.
func FullVersion(app string) string {
	const format = `harm version info:
%s: %s
git: %s %s
build: %s
os: %s
arch: %s`

	return fmt.Sprintf(format, app, Version, GitBranch, GitCommit, BuildTime, runtime.GOOS, runtime.GOARCH)
}

type Info struct {
	App       config.App
	Version   string
	Commit    string
	Branch    string
	BuildTime string
}

// DefaultInfo describes the running binary.
func DefaultInfo() Info {
	return Info{
		App:       config.AppHarm,
		Version:   Version,
		Commit:    GitCommit,
		Branch:    GitBranch,
		BuildTime: BuildTime,
	}
}

func (i *Info) StatVersion() string {
	return fmt.Sprintf("%s-%s:%s-%s", i.Version, i.Branch, i.Commit, i.BuildTime)
}

func (i *Info) FullVersion() string {
	return FullVersion(string(i.App))
}

func LogStarting(name string, info *Info) {
	logger.GetLogger().Info(name+" starting",
		zap.String("version", info.Version),
		zap.String("branch", info.Branch),
		zap.String("commit", info.Commit),
		zap.String("buildTime", info.BuildTime))
	logger.GetLogger().Info("Go runtime",
		zap.String("version", runtime.Version()),
		zap.Int("maxprocs", runtime.GOMAXPROCS(0)),
		zap.Time("now", time.Now()))
}
