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

package config

import (
	"os"
	"path"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	itoml "github.com/influxdata/influxdb/toml"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Validator interface {
	Validate() error
}

type Config interface {
	ApplyEnvOverrides(func(string) string) error
	Validate() error
	GetLogging() *Logger
}

type App string

const (
	AppHarm App = "harm"
)

// EnvPrefix is the prefix of environment variables overriding file values,
// e.g. HARM_MINING_MIN_SUP.
const EnvPrefix = "HARM"

func Parse(conf Config, path string) error {
	if path == "" {
		return nil
	}

	return fromTomlFile(conf, path)
}

func fromTomlFile(c Config, p string) error {
	content, err := os.ReadFile(path.Clean(p))
	if err != nil {
		return errors.Wrapf(err, "read config %s", p)
	}

	dec := unicode.BOMOverride(transform.Nop)
	content, _, err = transform.Bytes(dec, content)
	if err != nil {
		return err
	}
	return fromToml(c, string(content))
}

func fromToml(c Config, input string) error {
	_, err := toml.Decode(input, c)
	return err
}

// Harm is the complete configuration of one mining run.
type Harm struct {
	Mining  Mining `toml:"mining"`
	Logging Logger `toml:"logging"`
}

func NewHarm() *Harm {
	return &Harm{
		Mining:  NewMining(),
		Logging: NewLogger(AppHarm),
	}
}

func (c *Harm) ApplyEnvOverrides(fn func(string) string) error {
	return itoml.ApplyEnvOverrides(fn, EnvPrefix, c)
}

func (c *Harm) Validate() error {
	for _, v := range []Validator{c.Mining, c.Logging} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Harm) GetLogging() *Logger {
	return &c.Logging
}
