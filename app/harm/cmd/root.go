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
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "harm",
	Short: "frequent itemset and association rule miner",
	Long: `harm mines frequent itemsets and association rules from transaction
data sets and data streams.`,
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the root command.
func Root() *cobra.Command {
	return rootCmd
}
