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
	"encoding/binary"

	"github.com/go-mp3/streamreader/lameinfo"
)

// mpegCandidate is a recognized-but-not-yet-committed MPEG frame header.
// frameLength is 0 for an unresolved free-format candidate; the scanner
// fills it in once the next sync is located.
type mpegCandidate struct {
	offset      int64
	header      mpegHeader
	frameLength int
}

func (c *mpegCandidate) version() Version    { return c.header.version() }
func (c *mpegCandidate) layer() Layer        { return c.header.layer() }
func (c *mpegCandidate) sampleRate() int     { return c.header.sampleRate() }
func (c *mpegCandidate) channels() int       { return c.header.channels() }
func (c *mpegCandidate) bitRateIndex() int   { return c.header.bitrateIndex() }
func (c *mpegCandidate) bitRateKbps() int    { return c.header.bitRateKbps() }
func (c *mpegCandidate) sampleCount() int    { return c.header.samplesPerFrame() }
func (c *mpegCandidate) isFreeFormat() bool  { return c.header.isFreeFormat() }

// tryMpegCandidate recognizes a structurally valid MPEG header at off and,
// for a non-free-format frame, confirms it by checking that a second sync
// word, or an ID3v1 ("TAG") or ID3v2 ("ID3") tag marker, appears exactly
// frameLength bytes later (or that position is at or past end of stream).
// This is the "validate" step of the probe contract:
// try_sync is cheap (header bits only), validate looks further ahead to
// reject the false positives that raw syncword matching lets through on
// random data.
func tryMpegCandidate(src *frameSource, off int64) (*mpegCandidate, bool, error) {
	raw, n, err := src.read4(off)
	if err != nil {
		return nil, false, err
	}
	if n < 4 {
		return nil, false, nil
	}
	h := decodeMpegHeader(raw[0], raw[1], raw[2], raw[3])
	if !h.isStructurallyValid() {
		return nil, false, nil
	}

	cand := &mpegCandidate{offset: off, header: h}
	if h.isFreeFormat() {
		// Length unknown until the scanner locates the next sync; still a
		// valid candidate (format-mismatch guard is the scanner's job).
		return cand, true, nil
	}
	cand.frameLength = h.frameLength()
	if cand.frameLength < 4 {
		return nil, false, nil
	}

	nextRaw, n2, err := src.read4(off + int64(cand.frameLength))
	if err != nil {
		return nil, false, err
	}
	if n2 < 4 {
		eof, known := src.eofOffset()
		if known && off+int64(cand.frameLength) >= eof {
			return cand, true, nil
		}
		return nil, false, nil
	}
	next := decodeMpegHeader(nextRaw[0], nextRaw[1], nextRaw[2], nextRaw[3])
	if !next.hasValidSync() {
		// A frame may also be followed directly by an ID3v1 or ID3v2 tag.
		marker := string(nextRaw[:3])
		if marker != "TAG" && marker != "ID3" {
			return nil, false, nil
		}
	}
	return cand, true, nil
}

// parseVBR attempts to read the candidate's first-frame payload and parse a
// Xing/Info or VBRI side-info tag out of it, per §4.2's parse_vbr().
func parseVBR(src *frameSource, cand *mpegCandidate) (*VBRInfo, bool, error) {
	if cand.frameLength <= 0 {
		return nil, false, nil
	}
	buf := make([]byte, cand.frameLength)
	n, err := src.readAt(cand.offset, buf)
	if err != nil {
		return nil, false, err
	}
	buf = buf[:n]

	if info, err := lameinfo.Parse(buf); err == nil {
		vbr := &VBRInfo{
			SampleRate: cand.sampleRate(),
			Channels:   cand.channels(),
		}
		if info.HasFrameCount() {
			vbr.FrameCount = info.FrameCount
			vbr.StreamSampleCount = int64(info.FrameCount) * int64(cand.sampleCount())
		}
		if info.HasByteCount() {
			vbr.ByteCount = info.ByteCount
		}
		if info.HasLAMEInfo() {
			vbr.EncoderDelay = info.EncoderDelay
			vbr.EncoderPadding = info.EncoderPadding
		}
		return vbr, true, nil
	}

	if vi, err := lameinfo.ParseVBRI(buf); err == nil {
		vbr := &VBRInfo{
			SampleRate: cand.sampleRate(),
			Channels:   cand.channels(),
			FrameCount: vi.FrameCount,
			ByteCount:  vi.ByteCount,
		}
		vbr.StreamSampleCount = int64(vi.FrameCount) * int64(cand.sampleCount())
		return vbr, true, nil
	}

	return nil, false, nil
}

const (
	id3v2HeaderLen = 10
	id3v1Len       = 128
)

// tryID3v2 recognizes an "ID3" prefix and decodes its syncsafe size field.
func tryID3v2(src *frameSource, off int64) (*TagFrame, bool, error) {
	hdr := make([]byte, id3v2HeaderLen)
	n, err := src.readAt(off, hdr)
	if err != nil {
		return nil, false, err
	}
	if n < id3v2HeaderLen {
		return nil, false, nil
	}
	if hdr[0] != 'I' || hdr[1] != 'D' || hdr[2] != '3' {
		return nil, false, nil
	}
	// Syncsafe 28-bit size: 4 bytes, top bit of each clear, 7 bits each.
	if hdr[6]&0x80 != 0 || hdr[7]&0x80 != 0 || hdr[8]&0x80 != 0 || hdr[9]&0x80 != 0 {
		return nil, false, nil
	}
	size := uint32(hdr[6])<<21 | uint32(hdr[7])<<14 | uint32(hdr[8])<<7 | uint32(hdr[9])
	return &TagFrame{Kind: TagID3v2, Offset: off, Length: id3v2HeaderLen + int(size)}, true, nil
}

// tryID3v1 recognizes a fixed-length 128-byte "TAG" trailer.
func tryID3v1(src *frameSource, off int64) (*TagFrame, bool, error) {
	hdr := make([]byte, 3)
	n, err := src.readAt(off, hdr)
	if err != nil {
		return nil, false, err
	}
	if n < 3 || hdr[0] != 'T' || hdr[1] != 'A' || hdr[2] != 'G' {
		return nil, false, nil
	}
	return &TagFrame{Kind: TagID3v1, Offset: off, Length: id3v1Len}, true, nil
}

// tryRIFF recognizes a "RIFF"...."WAVE" container and walks its chunks to
// find the "data" subchunk, returning a tag whose Length covers only the
// container framing (the data subchunk's own header); scanning resumes
// directly on the raw MPEG bytes that follow.
func tryRIFF(src *frameSource, off int64) (*TagFrame, bool, error) {
	hdr := make([]byte, 12)
	n, err := src.readAt(off, hdr)
	if err != nil {
		return nil, false, err
	}
	if n < 12 {
		return nil, false, nil
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" {
		return nil, false, nil
	}

	pos := off + 12
	for i := 0; i < 64; i++ { // bounded chunk walk; a conforming file has few
		chunkHdr := make([]byte, 8)
		n, err := src.readAt(pos, chunkHdr)
		if err != nil {
			return nil, false, err
		}
		if n < 8 {
			return nil, false, nil
		}
		id := string(chunkHdr[0:4])
		size := binary.LittleEndian.Uint32(chunkHdr[4:8])
		if id == "data" {
			length := int(pos+8-off) + 0
			return &TagFrame{Kind: TagRIFF, Offset: off, Length: length}, true, nil
		}
		pos += 8 + int64(size)
		if size%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}
	return nil, false, nil
}
