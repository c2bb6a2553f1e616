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

// mpegHeader is the 32-bit big-endian MPEG audio frame header, decoded from
// the 11-bit syncword plus the 21 bits that follow it. Unlike a decoder's
// frame header (which only needs to accept the one layer it can decode),
// this header accepts every MPEG version/layer combination: the catalog
// must admit Layer I/II/III frames side by side (see the format-mismatch
// guard, which only fires while a free-format frame is unresolved).
type mpegHeader uint32

// Version identifies the MPEG revision.
type Version int

const (
	VersionReserved Version = iota
	Version2_5
	Version2
	Version1
)

// Layer identifies the MPEG audio layer.
type Layer int

const (
	LayerReserved Layer = iota
	LayerIII
	LayerII
	LayerI
)

// ChannelMode identifies the channel layout.
type ChannelMode int

const (
	ChannelStereo ChannelMode = iota
	ChannelJointStereo
	ChannelDualChannel
	ChannelMono
)

// decodeMpegHeader builds an mpegHeader from four big-endian bytes.
func decodeMpegHeader(b0, b1, b2, b3 byte) mpegHeader {
	return mpegHeader(uint32(b0)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3))
}

func (h mpegHeader) syncWord() uint32 {
	return uint32(h) >> 21
}

// hasValidSync reports whether the top 11 bits are all set, the minimum bar
// for a candidate to be worth validating further.
func (h mpegHeader) hasValidSync() bool {
	return h.syncWord() == 0x7FF
}

func (h mpegHeader) versionBits() uint32 {
	return (uint32(h) >> 19) & 0x3
}

func (h mpegHeader) layerBits() uint32 {
	return (uint32(h) >> 17) & 0x3
}

func (h mpegHeader) version() Version {
	switch h.versionBits() {
	case 0:
		return Version2_5
	case 2:
		return Version2
	case 3:
		return Version1
	default:
		return VersionReserved
	}
}

func (h mpegHeader) layer() Layer {
	switch h.layerBits() {
	case 1:
		return LayerIII
	case 2:
		return LayerII
	case 3:
		return LayerI
	default:
		return LayerReserved
	}
}

func (h mpegHeader) protectionBit() uint32 {
	return (uint32(h) >> 16) & 0x1
}

func (h mpegHeader) bitrateIndex() int {
	return int((uint32(h) >> 12) & 0xF)
}

func (h mpegHeader) sampleRateIndex() int {
	return int((uint32(h) >> 10) & 0x3)
}

func (h mpegHeader) padding() int {
	return int((uint32(h) >> 9) & 0x1)
}

func (h mpegHeader) channelModeBits() ChannelMode {
	return ChannelMode((uint32(h) >> 6) & 0x3)
}

func (h mpegHeader) channels() int {
	if h.channelModeBits() == ChannelMono {
		return 1
	}
	return 2
}

// bitrateTableKbps[version raw 2-bit value][layer raw 2-bit value][index].
// Index 0 and 15 are reserved/free-format markers; the free-format slot (0)
// is handled specially by the scanner, never looked up here for a length.
var bitrateTableKbps = [4][4][16]int{
	// version = 0 (MPEG2.5)
	{
		{}, // layer = 0 (reserved)
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},      // layer III
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},      // layer II
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0}, // layer I
	},
	{}, // version = 1 (reserved)
	// version = 2 (MPEG2)
	{
		{},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},
	},
	// version = 3 (MPEG1)
	{
		{},
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},
	},
}

var sampleRateTable = [4][4]int{
	{11025, 12000, 8000, 0}, // MPEG2.5
	{0, 0, 0, 0},            // reserved
	{22050, 24000, 16000, 0}, // MPEG2
	{44100, 48000, 32000, 0}, // MPEG1
}

// bitRateKbps returns the nominal bitrate in kbps, or 0 for a free-format
// or reserved header.
func (h mpegHeader) bitRateKbps() int {
	return bitrateTableKbps[h.versionBits()][h.layerBits()][h.bitrateIndex()]
}

func (h mpegHeader) sampleRate() int {
	return sampleRateTable[h.versionBits()][h.sampleRateIndex()]
}

// samplesPerFrame returns the number of samples per channel this frame
// produces, per ISO/IEC 11172-3 Table 3-B.2.
func (h mpegHeader) samplesPerFrame() int {
	switch h.layer() {
	case LayerI:
		return 384
	case LayerII:
		return 1152
	case LayerIII:
		if h.version() == Version1 {
			return 1152
		}
		return 576
	default:
		return 0
	}
}

// isStructurallyValid rejects reserved version/layer/sample-rate/bitrate
// combinations without requiring a known bitrate (free-format headers have
// bitrateIndex() == 0 and are still structurally valid).
func (h mpegHeader) isStructurallyValid() bool {
	if !h.hasValidSync() {
		return false
	}
	if h.version() == VersionReserved || h.layer() == LayerReserved {
		return false
	}
	if h.sampleRate() == 0 {
		return false
	}
	idx := h.bitrateIndex()
	if idx == 15 {
		return false
	}
	if idx != 0 && h.bitRateKbps() == 0 {
		return false
	}
	return true
}

// isFreeFormat reports whether the frame's length must be recovered from
// the position of the next sync rather than computed from the header.
func (h mpegHeader) isFreeFormat() bool {
	return h.bitrateIndex() == 0
}

// frameLength computes the byte length of the frame (sync through end of
// frame, inclusive), given the header's declared bitrate. It must not be
// called for a free-format header; the scanner resolves that length from
// the next sync position instead (see scanner.go).
func (h mpegHeader) frameLength() int {
	br := h.bitRateKbps() * 1000
	sr := h.sampleRate()
	if br == 0 || sr == 0 {
		return 0
	}
	pad := h.padding()
	switch h.layer() {
	case LayerI:
		return (12*br/sr + pad) * 4
	case LayerII:
		return 144*br/sr + pad
	case LayerIII:
		if h.version() == Version1 {
			return 144*br/sr + pad
		}
		return 72*br/sr + pad
	default:
		return 0
	}
}

// sideInfoSize returns the number of bytes of side information that follow
// the 4-byte header (plus 2 more if protectionBit()==0, handled by callers
// that need to skip the CRC word). Only meaningful for Layer III, where the
// Xing/Info/LAME tag sits immediately after the side info.
func (h mpegHeader) sideInfoSize() int {
	mono := h.channels() == 1
	if h.version() == Version1 {
		if mono {
			return 17
		}
		return 32
	}
	if mono {
		return 9
	}
	return 17
}
