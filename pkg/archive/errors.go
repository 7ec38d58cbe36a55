// Copyright 2025 The walvault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"gitlab.com/tozd/go/errors"
)

// Sentinel errors returned by the archiver. Callers classify failures with
// errors.Is; filesystem errors not covered by a sentinel are wrapped with
// their operation and path so the underlying OS error stays reachable via
// errors.As / errors.Is(fs.ErrNotExist) and friends.
var (
	// ErrNotConfigured reports that no archive directory was supplied.
	// This is a setup problem, not a per-file problem.
	ErrNotConfigured = errors.New("archive directory not configured")

	// ErrInvalidDirectory reports that the configured archive directory
	// does not exist or is not a directory.
	ErrInvalidDirectory = errors.New("archive directory does not exist")

	// ErrPathTooLong reports that the destination or temporary path would
	// exceed MaxPathLength. Nothing on disk is touched in this case.
	ErrPathTooLong = errors.New("archive destination path too long")

	// ErrAlreadyArchived reports that the destination file already exists.
	// The destination namespace is write-once per name: a duplicate request
	// signals an upstream logic error, never something to paper over.
	ErrAlreadyArchived = errors.New("archive file already exists")

	// ErrNoSpace reports a write that transferred fewer bytes than
	// requested without the OS supplying an error. Some filesystems fail
	// this way when the device fills up.
	ErrNoSpace = errors.New("no space left on archive device")
)
