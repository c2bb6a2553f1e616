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

// VBRInfo is the side info carried by a Xing/Info/VBRI/LAME header frame:
// a silent first frame that is metadata, not audio. When present it takes
// precedence over the catalog-derived stream metadata (SampleCount,
// SampleRate, Channels).
type VBRInfo struct {
	StreamSampleCount int64
	SampleRate        int
	Channels          int

	// FrameCount and ByteCount are as reported by the Xing/VBRI table,
	// 0 if the encoder did not set the corresponding flag.
	FrameCount uint32
	ByteCount  uint32

	// EncoderDelay and EncoderPadding carry LAME gapless-playback info when
	// present (0 otherwise); interpreting them is a decoder concern, this
	// core only threads them through.
	EncoderDelay   uint16
	EncoderPadding uint16
}
