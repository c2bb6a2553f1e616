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

import (
	"errors"
	"io"

	"github.com/go-mp3/streamreader/internal/winbuf"
)

// frameSource is the thin translation layer between the window buffer and
// everything above it (probes, the scanner, MpegFrame.Read): it converts
// winbuf's sentinel errors into this package's, and is the only thing the
// scanner and reader ever touch the byte stream through. The window
// buffer's own lock is what actually serializes source I/O (source_lock);
// frameSource itself holds no lock of its own.
type frameSource struct {
	win *winbuf.Buffer
}

func newFrameSource(r io.Reader) *frameSource {
	return &frameSource{win: winbuf.New(r)}
}

func (s *frameSource) canSeek() bool {
	return s.win.CanSeek()
}

func (s *frameSource) readAt(off int64, dst []byte) (int, error) {
	n, err := s.win.Read(off, dst)
	if err != nil {
		return n, translateWinbufErr(err)
	}
	return n, nil
}

func (s *frameSource) readByte(off int64) (byte, error) {
	b, err := s.win.ReadByte(off)
	if err != nil {
		return 0, translateWinbufErr(err)
	}
	return b, nil
}

// read4 reads a 4-byte candidate header at off. A short read (n < 4, no
// error) signals end of stream to the caller, matching the scanner's Load
// step ("if fewer than 4 bytes are available...").
func (s *frameSource) read4(off int64) ([4]byte, int, error) {
	var buf [4]byte
	n, err := s.readAt(off, buf[:])
	return buf, n, err
}

// discardThrough raises the discard watermark to off. When off reaches
// beyond everything the window has actually pulled from the source (a tag
// or chunk probe classified a span from its header alone and is skipping
// the rest unread), the underlying buffer drains the gap from the source
// itself before committing — see winbuf.Buffer.DiscardThrough.
func (s *frameSource) discardThrough(off int64) error {
	if err := s.win.DiscardThrough(off); err != nil {
		return translateWinbufErr(err)
	}
	return nil
}

func (s *frameSource) eofOffset() (int64, bool) {
	return s.win.EOFOffset()
}

func translateWinbufErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, winbuf.ErrBackwardSeek) {
		return ErrBackwardSeekOnForwardStream
	}
	var se *winbuf.SourceError
	if errors.As(err, &se) {
		return &SourceIOError{Op: se.Op, Err: se.Err}
	}
	return err
}
