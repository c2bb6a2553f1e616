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

import "io"

// MpegFrame is one audio frame in the catalog. The catalog owns the chain
// (Next); a frame's fields never change once appended, except for Next
// itself as later frames are linked on, FrameLength of a free-format frame
// (set once the next sync or EOF is found), and saveBuffer (see below).
type MpegFrame struct {
	Offset       int64
	FrameLength  int
	SampleCount  int
	SampleOffset int64
	Number       int64

	Version      Version
	Layer        Layer
	SampleRate   int
	Channels     int
	BitRateIndex int
	BitRate      int

	Next *MpegFrame

	// saveBuffer holds this frame's own copy of its bytes, filled by
	// saveBufferFromWindow: on a forward-only source when the scanner
	// appends the frame (before the discard watermark passes its end), on
	// a seekable source when Reader.NextFrame hands it out. Until then it
	// is nil and Read goes through the shared window.
	saveBuffer []byte

	source *frameSource
}

// IsFreeFormat reports whether this frame's length had to be recovered from
// the position of the next sync rather than computed from the header.
func (f *MpegFrame) IsFreeFormat() bool {
	return f.BitRateIndex == 0
}

// Read copies up to len(dst) bytes of this frame's own data starting at
// localOffset (0 is the first byte of the sync header). It is backed by
// the frame's self-owned buffer once one has been saved, otherwise by the
// shared window buffer (re-read by absolute offset).
func (f *MpegFrame) Read(localOffset int, dst []byte) (int, error) {
	if localOffset < 0 || localOffset >= f.FrameLength {
		return 0, io.EOF
	}
	n := len(dst)
	if localOffset+n > f.FrameLength {
		n = f.FrameLength - localOffset
	}
	if f.saveBuffer != nil {
		return copy(dst[:n], f.saveBuffer[localOffset:]), nil
	}
	if f.source == nil {
		return 0, io.EOF
	}
	return f.source.readAt(f.Offset+int64(localOffset), dst[:n])
}

// saveBufferFromWindow copies this frame's bytes out of the shared window
// into self-owned storage, so they survive the window's discard watermark
// advancing past the frame on a forward-only source.
func (f *MpegFrame) saveBufferFromWindow() error {
	if f.saveBuffer != nil {
		return nil
	}
	buf := make([]byte, f.FrameLength)
	n, err := f.source.readAt(f.Offset, buf)
	if err != nil {
		return err
	}
	f.saveBuffer = buf[:n]
	return nil
}

// savedBytes reports how many bytes this frame is holding in its own
// buffer, for the forward-only backpressure accounting in ReadToEnd.
func (f *MpegFrame) savedBytes() int {
	return len(f.saveBuffer)
}
