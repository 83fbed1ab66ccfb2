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
	"os"

	"github.com/openGemini/harm/lib/config"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/logger"
	"github.com/openGemini/harm/lib/util"
)

// Command prepares the configuration and logging of one harm invocation.
type Command struct {
	Logo   string
	Info   Info
	Logger *logger.Logger
	Config config.Config

	// Getenv resolves environment overrides; nil uses os.Getenv.
	Getenv func(string) string
	// BeforeValidate applies command line overrides to the parsed
	// configuration.
	BeforeValidate func(config.Config) error
}

func NewCommand(info Info) *Command {
	return &Command{
		Logo:   HARMLOGO,
		Info:   info,
		Logger: logger.NewLogger(errno.ModuleCli),
	}
}

// InitConfig loads path into conf, applies environment and command line
// overrides, initializes logging and validates the result.
func (cmd *Command) InitConfig(conf config.Config, path string) error {
	if err := config.Parse(conf, path); err != nil {
		return fmt.Errorf("parse config: %s", err)
	}

	getenv := cmd.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := conf.ApplyEnvOverrides(getenv); err != nil {
		return fmt.Errorf("apply env config: %v", err)
	}

	if cmd.BeforeValidate != nil {
		if err := cmd.BeforeValidate(conf); err != nil {
			return err
		}
	}

	if lc := conf.GetLogging(); lc != nil {
		lc.SetApp(cmd.Info.App)
		lc.Corrector()
		logger.InitLogger(*lc)
		util.SetLogger(logger.GetLogger())
	}

	if err := conf.Validate(); err != nil {
		return err
	}

	cmd.Config = conf
	return nil
}
