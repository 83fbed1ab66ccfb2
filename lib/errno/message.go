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

package errno

type Message struct {
	format string
	level  Level
	module Module
}

func newMessage(format string, module Module, level Level) *Message {
	return &Message{
		format: format,
		level:  level,
		module: module,
	}
}

func newNoticeMessage(format string, module Module) *Message {
	return newMessage(format, module, LevelNotice)
}

func newWarnMessage(format string, module Module) *Message {
	return newMessage(format, module, LevelWarn)
}

func newFatalMessage(format string, module Module) *Message {
	return newMessage(format, module, LevelFatal)
}

var unknownMessage = newNoticeMessage("unknown error", ModuleUnknown)

// When an error message is initialized, the level and module corresponding to the error code are bound
// If the module to which the error code belongs cannot be determined during initialization, set to ModuleUnknown
var messageMap = map[Errno]*Message{
	// common error codes
	InternalError: newWarnMessage("%v", ModuleUnknown),
	RecoverPanic:  newFatalMessage("runtime panic: %v", ModuleUnknown),

	// pattern tree
	TreePathNotFound:   newFatalMessage("path is not present in the tree, item: %s", ModuleTree),
	TreeDuplicateItem:  newFatalMessage("duplicate item in path: %s", ModuleTree),
	TreeCountUnderflow: newFatalMessage("node count underflow, item: %s, count: %d, decrement: %d", ModuleTree),
	TreeInvalidNode:    newFatalMessage("invalid node id: %d", ModuleTree),
	StaleListToken:     newFatalMessage("stale leaf token, slot: %d, generation: %d", ModuleTree),

	// miner
	MinerNilTree:   newFatalMessage("cannot mine a nil tree", ModuleMiner),
	MinerNilOracle: newFatalMessage("miner has no support oracle", ModuleMiner),

	// policy
	InvalidSortInterval: newWarnMessage("sort interval must be positive, got: %d", ModulePolicy),
	InvalidBlockSize:    newWarnMessage("block size must be positive, got: %d", ModulePolicy),
	InvalidDataPoints:   newWarnMessage("data points must be in [1, block size], got: %d", ModulePolicy),
	KernelSingular:      newNoticeMessage("kernel matrix is singular for %d data points", ModulePolicy),

	// data set
	EmptyTransaction:  newWarnMessage("empty transaction at line %d", ModuleDataSet),
	ItemContainsSpace: newWarnMessage("item %q contains a space at line %d", ModuleDataSet),
	EmptyItem:         newWarnMessage("empty item at line %d", ModuleDataSet),

	// apriori
	AprioriPoolClosed: newWarnMessage("apriori worker pool is closed", ModuleApriori),

	// stream
	CheckPointOutOfRange: newFatalMessage("check point %d out of range [0, %d)", ModuleStream),
	UnknownDriftMode:     newWarnMessage("unknown drift detection mode: %s", ModuleStream),

	// config
	InvalidMiningMode:   newWarnMessage("unknown mining mode: %s", ModuleConfig),
	MissingParameter:    newWarnMessage("mode %s requires parameter %s", ModuleConfig),
	InvalidParameter:    newWarnMessage("invalid value for %s: %v", ModuleConfig),
	InvalidBlockSizeFmt: newWarnMessage("invalid block size %q", ModuleConfig),

	// cli
	CreateOutputFailed: newWarnMessage("failed to create output file %s", ModuleCli),

	// pattern stream
	MalformedPattern: newWarnMessage("malformed pattern line %d: %q", ModulePattern),
}
