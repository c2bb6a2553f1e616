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

// TagKind identifies which container wrapper a TagFrame describes.
type TagKind int

const (
	TagID3v2 TagKind = iota
	TagID3v1
	TagRIFF
)

// TagFrame is a non-audio prefix or mid-stream wrapper: an ID3v2 tag, an
// ID3v1 trailer, or a RIFF container header. Only framing (offset, length)
// matters here; tag field parsing is a collaborator's concern, not this
// package's.
type TagFrame struct {
	Kind   TagKind
	Offset int64
	Length int
}
