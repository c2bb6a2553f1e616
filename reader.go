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

// Package mpegstream turns a raw byte stream (seekable or forward-only)
// into an ordered, indexable catalog of MPEG audio frames, transparently
// handling ID3v1/v2 and RIFF container wrappers and Xing/Info/VBRI VBR
// side-info headers, plus the free-format bitrate corner case. It exposes
// random access by sample number over the catalog and a pull-based
// next-frame interface for a downstream PCM decoder; the decoder itself,
// like tag-content parsing beyond framing and the host output pipeline,
// is out of scope.
package mpegstream

import (
	"errors"
	"io"
	"io/fs"
	"sync"
	"time"
)

// readToEndSavedBytesThreshold is the baseline backpressure threshold for
// ReadToEnd on a forward-only source; the primary ID3v2 tag's length (if
// any) is added on top.
const readToEndSavedBytesThreshold = 40000

// readToEndPollInterval is how long ReadToEnd sleeps between backpressure
// checks on a forward-only source.
const readToEndPollInterval = 500 * time.Millisecond

// Reader is the public surface over a scanned MPEG byte stream.
//
// frameLock serializes all scanner and catalog mutation; the source's own
// internal lock serializes the handful of calls per operation that reach
// the underlying stream. frameLock is always acquired first; nothing here
// ever holds the source's lock while waiting on frameLock.
type Reader struct {
	frameLock sync.Mutex

	src     *frameSource
	catalog *frameCatalog
	scanner *scanner
}

// New constructs a Reader over source, eagerly locating the first two MPEG
// frames (discarding any leading tag, RIFF, or VBR side-info content) to
// assert that this is really an MPEG stream. Returns
// ErrNotAValidMpegStream if fewer than two frames could be found before
// the source ran out of data.
func New(source io.Reader) (*Reader, error) {
	src := newFrameSource(source)
	catalog := &frameCatalog{}
	sc := newScanner(src, catalog)

	for catalog.frameCount() < 2 && !sc.endFound {
		if err := sc.findNextFrame(); err != nil {
			return nil, err
		}
	}
	if catalog.frameCount() < 2 {
		return nil, ErrNotAValidMpegStream
	}
	catalog.current = catalog.first

	return &Reader{src: src, catalog: catalog, scanner: sc}, nil
}

func (c *frameCatalog) frameCount() int {
	if c.last == nil {
		return 0
	}
	return int(c.last.Number) + 1
}

// CanSeek mirrors the source's seek capability.
func (r *Reader) CanSeek() bool {
	return r.src.canSeek()
}

// SampleRate returns the stream's sample rate, preferring VBR side info
// over the first catalog frame's header.
func (r *Reader) SampleRate() int {
	r.frameLock.Lock()
	defer r.frameLock.Unlock()
	if r.scanner.vbrInfo != nil {
		return r.scanner.vbrInfo.SampleRate
	}
	if r.catalog.first != nil {
		return r.catalog.first.SampleRate
	}
	return 0
}

// Channels returns the stream's channel count, preferring VBR side info
// over the first catalog frame's header.
func (r *Reader) Channels() int {
	r.frameLock.Lock()
	defer r.frameLock.Unlock()
	if r.scanner.vbrInfo != nil {
		return r.scanner.vbrInfo.Channels
	}
	if r.catalog.first != nil {
		return r.catalog.first.Channels
	}
	return 0
}

// FirstFrameSampleCount returns the first frame's sample count, or 0 if
// the catalog is somehow empty (never true after a successful New).
func (r *Reader) FirstFrameSampleCount() int {
	r.frameLock.Lock()
	defer r.frameLock.Unlock()
	if r.catalog.first == nil {
		return 0
	}
	return r.catalog.first.SampleCount
}

// SampleCount returns the total number of samples-per-channel in the
// stream, or -1 if that is unknowable (a forward-only source with no VBR
// side info, short of decoding the whole thing). When VBR info is absent
// and the source is seekable, this forces a full ReadToEnd.
func (r *Reader) SampleCount() (int64, error) {
	r.frameLock.Lock()
	vbr := r.scanner.vbrInfo
	canSeek := r.src.canSeek()
	r.frameLock.Unlock()

	if vbr != nil {
		return vbr.StreamSampleCount, nil
	}
	if !canSeek {
		return -1, nil
	}
	if err := r.ReadToEnd(); err != nil {
		return -1, err
	}

	r.frameLock.Lock()
	defer r.frameLock.Unlock()
	if r.catalog.last == nil {
		return 0, nil
	}
	return r.catalog.last.SampleOffset + int64(r.catalog.last.SampleCount), nil
}

// SeekTo positions the reader at the frame containing sample, returning
// that frame's SampleOffset, or -1 if the stream ends before reaching it.
// Requires a seekable source.
//
// When the catalog has not yet observed varying frame sizes, SeekTo
// estimates a starting frame by dividing sample by the first frame's
// sample count, instead of scanning from the beginning every time; it
// then walks forward (extending the catalog through the scanner as
// needed) until it lands on the containing frame. If the estimate
// overshoots the catalog built so far, the walk falls through to an
// ordinary linear scan rather than failing — the estimate is only ever a
// starting point.
func (r *Reader) SeekTo(sample uint64) (int64, error) {
	r.frameLock.Lock()
	defer r.frameLock.Unlock()

	if !r.src.canSeek() {
		return -1, ErrCannotSeek
	}

	frame := r.catalog.current
	if frame == nil {
		frame = r.catalog.first
	}

	if !r.catalog.mixedFrameSize && r.catalog.first != nil && r.catalog.first.SampleCount > 0 {
		idx := int64(sample) / int64(r.catalog.first.SampleCount)
		if !(frame.Number <= idx && frame.SampleOffset <= int64(sample)) {
			frame = r.catalog.first
		}
		for frame.Number < idx {
			if frame.Next == nil {
				if r.scanner.endFound {
					break
				}
				if err := r.scanner.findNextFrame(); err != nil {
					return -1, err
				}
				continue
			}
			frame = frame.Next
		}
	}

	for {
		if frame.SampleOffset+int64(frame.SampleCount) >= int64(sample) {
			r.catalog.current = frame
			return frame.SampleOffset, nil
		}
		if frame.Next == nil {
			if r.scanner.endFound {
				return -1, nil
			}
			if err := r.scanner.findNextFrame(); err != nil {
				return -1, err
			}
			continue
		}
		frame = frame.Next
	}
}

// NextFrame returns the current frame (nil once the catalog is exhausted
// and the scanner has reached end of stream) and advances the cursor.
//
// On a seekable source, it snapshots the frame's bytes into its own
// buffer and raises the discard watermark past it, decoupling the frame
// from the window's eviction policy. On a forward-only source the frame
// was already snapshotted when the scanner appended it; NextFrame instead
// detaches the consumed head from the catalog, so the caller now owns the
// frame's lifetime and its memory is released once the caller drops it.
func (r *Reader) NextFrame() (*MpegFrame, error) {
	r.frameLock.Lock()
	defer r.frameLock.Unlock()

	cur := r.catalog.current
	if cur == nil {
		return nil, nil
	}

	if r.src.canSeek() {
		if err := cur.saveBufferFromWindow(); err != nil {
			return nil, err
		}
		if err := r.src.discardThrough(cur.Offset + int64(cur.FrameLength)); err != nil {
			return nil, err
		}
	}

	if cur == r.catalog.last && !r.scanner.endFound {
		for cur.Next == nil && !r.scanner.endFound {
			if err := r.scanner.findNextFrame(); err != nil {
				return cur, err
			}
		}
	}

	r.catalog.current = cur.Next

	if !r.src.canSeek() {
		r.catalog.detachHead()
	}

	return cur, nil
}

// ReadToEnd drives the scanner until end of stream is reached. On a
// forward-only source, if the total bytes retained in frame save buffers
// exceeds the backpressure threshold, it pauses (polling every 500ms)
// until the consumer has drained enough frames via NextFrame.
//
// A read or seek failure that indicates the source was torn down out from
// under the reader (the fs.ErrClosed family) is swallowed silently here —
// this is the one entry point that tolerates that race; every other
// operation propagates it.
func (r *Reader) ReadToEnd() error {
	for {
		r.frameLock.Lock()
		if r.scanner.endFound {
			r.frameLock.Unlock()
			return nil
		}

		if !r.src.canSeek() {
			threshold := readToEndSavedBytesThreshold
			if r.scanner.id3 != nil {
				threshold += r.scanner.id3.Length
			}
			if r.catalog.savedBytesTotal > threshold {
				r.frameLock.Unlock()
				time.Sleep(readToEndPollInterval)
				continue
			}
		}

		err := r.scanner.findNextFrame()
		r.frameLock.Unlock()

		if err != nil {
			if errors.Is(err, fs.ErrClosed) {
				return nil
			}
			return err
		}
	}
}
