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

// scanner is the byte-wise resync loop: it walks the source from
// readOffset, recognizes tags and MPEG frames, appends the latter to the
// catalog, and resyncs one byte at a time on garbage. It runs under the
// reader's frameLock; the source has its own internal lock.
type scanner struct {
	src     *frameSource
	catalog *frameCatalog

	readOffset int64
	endFound   bool

	id3   *TagFrame
	id3v1 *TagFrame
	riff  *TagFrame

	vbrInfo *VBRInfo
}

func newScanner(src *frameSource, catalog *frameCatalog) *scanner {
	return &scanner{src: src, catalog: catalog}
}

// maybeDiscard advances the window's discard watermark to readOffset,
// unless a free-format frame is still unresolved on a seekable source (the
// decoder may yet need those bytes).
func (s *scanner) maybeDiscard() error {
	if s.src.canSeek() && s.catalog.lastFree != nil {
		return nil
	}
	return s.src.discardThrough(s.readOffset)
}

func candidateMatchesFree(free *MpegFrame, cand *mpegCandidate) bool {
	return free.Layer == cand.layer() && free.Version == cand.version() && free.SampleRate == cand.sampleRate()
}

// findNextFrame advances the scanner by exactly one emitted event (a tag
// accepted, an MPEG frame appended, or end of stream) and returns. The
// free-format scope-exit guarantee — resolving whichever frame was
// last_free at entry, and raising ErrFreeFormatRequiresSeek if the source
// cannot support that — runs on every return path via defer, mirroring the
// try/finally in the source design.
func (s *scanner) findNextFrame() (err error) {
	if s.endFound {
		return nil
	}

	freeAtEntry := s.catalog.lastFree
	lastFrameStart := s.readOffset

	defer func() {
		if freeAtEntry != nil && freeAtEntry.FrameLength == 0 {
			s.catalog.resolveFreeFormat(freeAtEntry, lastFrameStart)
			if !s.src.canSeek() && err == nil {
				err = ErrFreeFormatRequiresSeek
			}
		}
	}()

	for {
		eventStart := s.readOffset

		_, n, rerr := s.src.read4(s.readOffset)
		if rerr != nil {
			return rerr
		}
		if n < 4 {
			s.endFound = true
			// The short read ends at EOF, which delimits any pending
			// free-format frame.
			lastFrameStart = eventStart + int64(n)
			return nil
		}

		if s.id3 == nil {
			tag, ok, terr := tryID3v2(s.src, s.readOffset)
			if terr != nil {
				return terr
			}
			if ok {
				s.id3 = tag
				lastFrameStart = eventStart
				s.readOffset += int64(tag.Length)
				return s.maybeDiscard()
			}
		}

		if s.catalog.first == nil && s.riff == nil {
			tag, ok, terr := tryRIFF(s.src, s.readOffset)
			if terr != nil {
				return terr
			}
			if ok {
				s.riff = tag
				lastFrameStart = eventStart
				s.readOffset += int64(tag.Length)
				return s.maybeDiscard()
			}
		}

		cand, ok, terr := tryMpegCandidate(s.src, s.readOffset)
		if terr != nil {
			return terr
		}
		if ok {
			if free := s.catalog.lastFree; free != nil && !candidateMatchesFree(free, cand) {
				ok = false
			}
		}
		if ok {
			if s.catalog.first == nil {
				vbr, got, verr := parseVBR(s.src, cand)
				if verr != nil {
					return verr
				}
				if got {
					s.vbrInfo = vbr
					lastFrameStart = eventStart
					s.readOffset += int64(cand.frameLength)
					if derr := s.maybeDiscard(); derr != nil {
						return derr
					}
					continue
				}
			}

			// Resolving any pending free-format frame (setting its length,
			// clearing lastFree if this candidate isn't itself free-format)
			// is left entirely to the deferred scope-exit above, which acts
			// on freeAtEntry; nothing is resolved eagerly here.
			lastFrameStart = eventStart

			frame := &MpegFrame{
				Offset:       cand.offset,
				FrameLength:  cand.frameLength,
				SampleCount:  cand.sampleCount(),
				Version:      cand.version(),
				Layer:        cand.layer(),
				SampleRate:   cand.sampleRate(),
				Channels:     cand.channels(),
				BitRateIndex: cand.bitRateIndex(),
				BitRate:      cand.bitRateKbps() * 1000,
				source:       s.src,
			}
			s.catalog.append(frame)

			if !s.src.canSeek() && frame.FrameLength > 0 {
				if err := frame.saveBufferFromWindow(); err != nil {
					return err
				}
				s.catalog.addSavedBytes(frame.savedBytes())
			}

			if frame.FrameLength > 0 {
				s.readOffset += int64(frame.FrameLength)
			} else {
				// Unresolved free-format: step past the header only; the
				// slide-and-resync loop below will locate the sync that
				// finally delimits this frame's length.
				s.readOffset += 4
			}
			return s.maybeDiscard()
		}

		if s.catalog.first != nil {
			tag, ok, terr := tryID3v1(s.src, s.readOffset)
			if terr != nil {
				return terr
			}
			if ok {
				s.id3v1 = tag
				lastFrameStart = eventStart
				s.readOffset += int64(tag.Length)
				return s.maybeDiscard()
			}

			if s.id3 != nil {
				midTag, ok, terr := tryID3v2(s.src, s.readOffset)
				if terr != nil {
					return terr
				}
				if ok {
					lastFrameStart = eventStart
					s.readOffset += int64(midTag.Length)
					return s.maybeDiscard()
				}
			}
		}

		s.readOffset++
		lastFrameStart = eventStart
		if derr := s.maybeDiscard(); derr != nil {
			return derr
		}
	}
}
