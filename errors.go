// Copyright 2017 The go-mp3 Authors
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

package mpegstream

import "errors"

// Sentinel errors returned by the reader and its collaborators. Callers
// should compare against these with errors.Is; SourceIOError additionally
// supports errors.As to recover the underlying I/O failure.
var (
	// ErrNotAValidMpegStream is returned by New when fewer than two MPEG
	// audio frames could be located before the source ran out of data.
	ErrNotAValidMpegStream = errors.New("mpegstream: source is not a valid MPEG audio stream")

	// ErrBackwardSeekOnForwardStream is returned when a read or seek
	// targets a byte position that has already been discarded from a
	// forward-only source.
	ErrBackwardSeekOnForwardStream = errors.New("mpegstream: backward read on a forward-only source")

	// ErrFreeFormatRequiresSeek is returned when the scanner needs to
	// finalize a free-format frame's length (by locating the next sync)
	// on a source that cannot be seeked; free-format streams can only be
	// served from a seekable source.
	ErrFreeFormatRequiresSeek = errors.New("mpegstream: free-format frame requires a seekable source")

	// ErrCannotSeek is returned by SeekTo when the underlying source does
	// not support seeking.
	ErrCannotSeek = errors.New("mpegstream: source does not support seeking")
)

// SourceIOError wraps a non-EOF read or seek failure from the underlying
// source stream. It is never returned for ordinary end-of-stream; that is
// signaled by io.EOF and surfaces as EndFound/EOF bookkeeping instead.
type SourceIOError struct {
	Op  string
	Err error
}

func (e *SourceIOError) Error() string {
	return "mpegstream: source I/O error during " + e.Op + ": " + e.Err.Error()
}

func (e *SourceIOError) Unwrap() error {
	return e.Err
}
