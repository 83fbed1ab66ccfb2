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

// common error codes
const (
	InternalError   = 9001
	RecoverPanic    = 9003
	BuiltInError    = 9007
	ThirdPartyError = 9008
)

// pattern tree error codes
const (
	TreePathNotFound   = 1001
	TreeDuplicateItem  = 1002
	TreeCountUnderflow = 1003
	TreeInvalidNode    = 1004
	StaleListToken     = 1005
)

// miner error codes
const (
	MinerNilTree   = 2001
	MinerNilOracle = 2002
)

// policy error codes
const (
	InvalidSortInterval = 3001
	InvalidBlockSize    = 3002
	InvalidDataPoints   = 3003
	KernelSingular      = 3004
)

// data set error codes
const (
	EmptyTransaction  = 4001
	ItemContainsSpace = 4002
	EmptyItem         = 4003
)

// apriori error codes
const (
	AprioriPoolClosed = 5001
)

// stream error codes
const (
	CheckPointOutOfRange = 6001
	UnknownDriftMode     = 6002
)

// config error codes
const (
	InvalidMiningMode   = 7001
	MissingParameter    = 7002
	InvalidParameter    = 7003
	InvalidBlockSizeFmt = 7004
)

// cli error codes
const (
	CreateOutputFailed = 8001
)

// pattern stream error codes
const (
	MalformedPattern = 9101
)
