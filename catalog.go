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

// frameCatalog is the singly-linked, append-only chain of MpegFrame. It
// never removes frames on a seekable source; on a forward-only source the
// reader may detach the head once consumed (see Reader.NextFrame).
type frameCatalog struct {
	first *MpegFrame
	last  *MpegFrame

	// current is a non-owning cursor; SeekTo and NextFrame move it.
	current *MpegFrame

	// lastFree names the most recently appended free-format frame whose
	// length has not yet been resolved, or nil.
	lastFree *MpegFrame

	// mixedFrameSize is set once sampleCount varies across frames and is
	// never cleared; it disables SeekTo's divide-to-estimate fast path.
	mixedFrameSize bool

	// savedBytesTotal is the running sum of saveBuffer sizes across all
	// live frames on a forward-only source, maintained incrementally so
	// ReadToEnd's backpressure check never has to walk the chain.
	savedBytesTotal int
}

// append adds f to the tail, assigning Number and SampleOffset per the
// catalog's cumulative invariants.
func (c *frameCatalog) append(f *MpegFrame) {
	if c.last == nil {
		f.Number = 0
		f.SampleOffset = 0
		c.first = f
		c.last = f
		c.current = f
	} else {
		f.Number = c.last.Number + 1
		f.SampleOffset = c.last.SampleOffset + int64(c.last.SampleCount)
		c.last.Next = f
		c.last = f
	}

	if c.first != f && f.SampleCount != c.first.SampleCount {
		c.mixedFrameSize = true
	}

	// Free-format bookkeeping: a pending (length-unresolved) free-format
	// frame is named by lastFree. Resolving it (computing its length from
	// this new candidate's offset) is the scanner's job, since only the
	// scanner knows the freshly observed sync position; see
	// resolveFreeFormat.
	if f.IsFreeFormat() {
		c.lastFree = f
	}
}

// resolveFreeFormat sets the pending free-format frame's length once the
// next sync (or EOF) position is known. It is the non-exceptional half of
// the scanner's scope-exit guarantee; the seek-required failure mode is
// decided by the caller (the source may have gone non-seekable between the
// frame's acceptance and this call only in pathological cases, which never
// happens here since seekability is fixed at construction).
func (c *frameCatalog) resolveFreeFormat(f *MpegFrame, lastFrameStart int64) {
	if f.FrameLength == 0 {
		f.FrameLength = int(lastFrameStart - f.Offset)
	}
	if c.lastFree == f {
		c.lastFree = nil
	}
}

func (c *frameCatalog) addSavedBytes(n int) {
	c.savedBytesTotal += n
}

func (c *frameCatalog) removeSavedBytes(n int) {
	c.savedBytesTotal -= n
}

// detachHead removes the first frame from the chain, for forward-only
// sources once the reader has handed it to the caller.
func (c *frameCatalog) detachHead() {
	if c.first == nil {
		return
	}
	old := c.first
	c.first = c.first.Next
	if c.first == nil {
		c.last = nil
	}
	c.removeSavedBytes(old.savedBytes())
	old.Next = nil
}
