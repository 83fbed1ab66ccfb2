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

package cmd

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openGemini/harm/app"
	"github.com/openGemini/harm/lib/config"
	"github.com/openGemini/harm/lib/errno"
	"github.com/stretchr/testify/assert"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const testData = `bread,milk
bread,butter
bread,milk,butter
milk
bread,milk
`

func writeData(t *testing.T) (string, string) {
	dir := t.TempDir()
	input := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(input, []byte(testData), 0600))
	return input, filepath.Join(dir, "out", "data")
}

func execute(t *testing.T, args ...string) (string, error) {
	cmd := newMineCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	root := Root()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, app.FullVersion(string(config.AppHarm))+"\n", out.String())
}

func TestMine(t *testing.T) {
	input, output := writeData(t)
	metricsFile := filepath.Join(t.TempDir(), "harm.prom")
	out, err := execute(t, "-i", input, "-o", output, "-m", "fptree", "--minsup", "0.4",
		"--print-tree", "--metrics-file", metricsFile)
	require.NoError(t, err)

	assert.Contains(t, out, "bread")
	assert.Contains(t, strings.ToUpper(out), "METRIC")
	assert.FileExists(t, output+".itemsets.support.csv")
	assert.FileExists(t, output+".rules.conf.lift.support.csv")
	assert.FileExists(t, output+".log.txt")

	content, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "harm_")
}

func TestMineConfigFile(t *testing.T) {
	input, output := writeData(t)
	file := filepath.Join(t.TempDir(), "harm.conf")
	conf := `
[mining]
  input = "` + filepath.ToSlash(input) + `"
  output = "` + filepath.ToSlash(output) + `"
  mode = "apriori"
  min-sup = 0.9
`
	require.NoError(t, os.WriteFile(file, []byte(conf), 0600))

	// --minsup overrides the file, the other values come from it.
	_, err := execute(t, "--config", file, "--minsup", "0.4", "--threads", "2")
	require.NoError(t, err)

	content, err := os.ReadFile(output + ".itemsets.support.csv")
	require.NoError(t, err)
	assert.Contains(t, string(content), "milk")
}

func TestMineInvalid(t *testing.T) {
	_, err := execute(t, "-m", "fptree", "--minsup", "0.1")
	assert.True(t, errno.Equal(err, errno.MissingParameter), "got %v", err)

	input, output := writeData(t)
	_, err = execute(t, "-i", input, "-o", output, "-m", "nope", "--minsup", "0.1")
	assert.True(t, errno.Equal(err, errno.InvalidMiningMode), "got %v", err)

	_, err = execute(t, "-i", input, "-o", output, "-m", "fptree", "--blocksize", "many")
	assert.Error(t, err)

	_, err = execute(t, "-i", input, "-o", output, "-m", "fptree", "--minsup", "0.1", "--log-level", "loud")
	assert.Error(t, err)
}

func TestApplyFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "mine"}
	o := &mineOptions{mining: config.NewMining()}
	initMineFlags(cmd, o)
	require.NoError(t, cmd.ParseFlags([]string{"--blocksize", "2k", "--ssdd-window-cmp", "-m", "SSDD"}))

	conf := config.NewMining()
	conf.Input = "kept.csv"
	applyFlags(cmd, o, &conf)
	assert.Equal(t, config.BlockSize(2000), conf.BlockSize)
	assert.True(t, conf.WindowCmp)
	assert.Equal(t, config.ModeSSDD, conf.Mode)
	assert.Equal(t, "kept.csv", conf.Input)
	assert.True(t, math.IsNaN(conf.MinSup), "unset min-sup stays unset")
}
