package winbuf

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// seqBytes returns a buffer where byte i has value byte(i), handy for
// asserting that reads land on the right absolute offsets.
func seqBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

// forwardOnlyReader wraps a bytes.Reader but hides io.Seeker, modeling a
// network-style source that can only be read forward.
type forwardOnlyReader struct {
	r *bytes.Reader
}

func (f *forwardOnlyReader) Read(p []byte) (int, error) { return f.r.Read(p) }

func TestRead_SeekableByteIdentical(t *testing.T) {
	want := seqBytes(5000)
	buf := New(bytes.NewReader(want))

	for _, off := range []int64{0, 17, 4096, 4990} {
		n := 10
		if int(off)+n > len(want) {
			n = len(want) - int(off)
		}
		dst := make([]byte, n)
		got, err := buf.Read(off, dst)
		if err != nil {
			t.Fatalf("Read(%d) error = %v", off, err)
		}
		if got != n {
			t.Fatalf("Read(%d) n = %d, want %d", off, got, n)
		}
		if !bytes.Equal(dst, want[off:int(off)+n]) {
			t.Errorf("Read(%d) = %v, want %v", off, dst, want[off:int(off)+n])
		}
	}
}

func TestRead_ForwardOnlySequential(t *testing.T) {
	want := seqBytes(2000)
	buf := New(&forwardOnlyReader{r: bytes.NewReader(want)})

	if buf.CanSeek() {
		t.Fatal("CanSeek() = true, want false for a forward-only source")
	}

	dst := make([]byte, 500)
	if _, err := buf.Read(0, dst); err != nil {
		t.Fatalf("Read(0) error = %v", err)
	}
	if !bytes.Equal(dst, want[0:500]) {
		t.Errorf("first 500 bytes mismatch")
	}

	if err := buf.DiscardThrough(500); err != nil {
		t.Fatalf("DiscardThrough(500) error = %v", err)
	}

	dst2 := make([]byte, 500)
	if _, err := buf.Read(500, dst2); err != nil {
		t.Fatalf("Read(500) error = %v", err)
	}
	if !bytes.Equal(dst2, want[500:1000]) {
		t.Errorf("second 500 bytes mismatch")
	}
}

func TestRead_BackwardOnForwardOnlyFails(t *testing.T) {
	want := seqBytes(2000)
	buf := New(&forwardOnlyReader{r: bytes.NewReader(want)})

	dst := make([]byte, 100)
	if _, err := buf.Read(1000, dst); err != nil {
		t.Fatalf("Read(1000) error = %v", err)
	}
	if err := buf.DiscardThrough(1000); err != nil {
		t.Fatalf("DiscardThrough(1000) error = %v", err)
	}

	if _, err := buf.Read(0, dst); !errors.Is(err, ErrBackwardSeek) {
		t.Errorf("Read(0) after discard error = %v, want ErrBackwardSeek", err)
	}
}

func TestRead_BackwardOnSeekableRewinds(t *testing.T) {
	want := seqBytes(2000)
	buf := New(bytes.NewReader(want))

	dst := make([]byte, 100)
	if _, err := buf.Read(1500, dst); err != nil {
		t.Fatalf("Read(1500) error = %v", err)
	}
	if err := buf.DiscardThrough(1500); err != nil {
		t.Fatalf("DiscardThrough(1500) error = %v", err)
	}

	if _, err := buf.Read(0, dst); err != nil {
		t.Fatalf("Read(0) after forward discard on seekable source error = %v", err)
	}
	if !bytes.Equal(dst, want[0:100]) {
		t.Errorf("rewound read mismatch: got %v, want %v", dst, want[0:100])
	}
}

func TestRead_ShortAtEOF(t *testing.T) {
	want := seqBytes(100)
	buf := New(bytes.NewReader(want))

	dst := make([]byte, 200)
	n, err := buf.Read(0, dst)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n != 100 {
		t.Fatalf("Read() n = %d, want 100", n)
	}

	off, known := buf.EOFOffset()
	if !known || off != 100 {
		t.Errorf("EOFOffset() = (%d, %v), want (100, true)", off, known)
	}
}

func TestRead_PastEOFReturnsZero(t *testing.T) {
	want := seqBytes(100)
	buf := New(bytes.NewReader(want))

	dst := make([]byte, 100)
	if _, err := buf.Read(0, dst); err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	n, err := buf.Read(100, dst[:10])
	if err != nil {
		t.Fatalf("Read(100) error = %v", err)
	}
	if n != 0 {
		t.Errorf("Read(100) n = %d, want 0", n)
	}
}

func TestRead_GrowsPastInitialCapacity(t *testing.T) {
	want := seqBytes(20000)
	buf := New(bytes.NewReader(want))

	dst := make([]byte, 12000)
	n, err := buf.Read(0, dst)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n != 12000 {
		t.Fatalf("Read() n = %d, want 12000", n)
	}
	if !bytes.Equal(dst, want[:12000]) {
		t.Error("grown read mismatch")
	}
}

func TestReadByte(t *testing.T) {
	want := seqBytes(10)
	buf := New(bytes.NewReader(want))

	b, err := buf.ReadByte(7)
	if err != nil {
		t.Fatalf("ReadByte(7) error = %v", err)
	}
	if b != 7 {
		t.Errorf("ReadByte(7) = %d, want 7", b)
	}
}

type erroringReader struct{ err error }

func (e *erroringReader) Read(p []byte) (int, error) { return 0, e.err }

func TestRead_PropagatesSourceError(t *testing.T) {
	boom := errors.New("boom")
	buf := New(&forwardOnlyReader{r: bytes.NewReader(nil)})
	buf.r = &erroringReader{err: boom}

	dst := make([]byte, 10)
	_, err := buf.Read(0, dst)
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("Read() error = %v, want *SourceError", err)
	}
	if !errors.Is(se.Err, boom) {
		t.Errorf("wrapped error = %v, want %v", se.Err, boom)
	}
}

// chunkyReader hands back at most chunkSize bytes per Read call, the way a
// real streaming source behaves, instead of filling the destination in one
// shot the way bytes.Reader does.
type chunkyReader struct {
	r         *bytes.Reader
	chunkSize int
}

func (c *chunkyReader) Read(p []byte) (int, error) {
	if len(p) > c.chunkSize {
		p = p[:c.chunkSize]
	}
	return c.r.Read(p)
}

// TestDiscardThrough_DrainsGapOnForwardOnlySource guards against the
// watermark committing past bytes the source never actually produced: a
// probe that classifies a tag from its header and then discards through
// the tag's declared end, well beyond anything chunkyReader has handed
// back yet, must still see the source's physical position land exactly on
// the discarded offset.
func TestDiscardThrough_DrainsGapOnForwardOnlySource(t *testing.T) {
	want := seqBytes(5000)
	buf := New(&chunkyReader{r: bytes.NewReader(want), chunkSize: 16})

	dst := make([]byte, 4)
	if _, err := buf.Read(0, dst); err != nil {
		t.Fatalf("Read(0) error = %v", err)
	}

	if err := buf.DiscardThrough(3000); err != nil {
		t.Fatalf("DiscardThrough(3000) error = %v", err)
	}

	got := make([]byte, 50)
	if _, err := buf.Read(3000, got); err != nil {
		t.Fatalf("Read(3000) error = %v", err)
	}
	if !bytes.Equal(got, want[3000:3050]) {
		t.Errorf("Read(3000) after discarding an unread gap = %v, want %v", got, want[3000:3050])
	}
}

// TestRead_FillsGapBeyondCurrentEnd covers a single Read call landing past
// everything resident so far, without any intervening DiscardThrough — the
// shape of the MPEG candidate probe's next-sync validation, which checks
// the four bytes at the far end of the frame a header just declared.
func TestRead_FillsGapBeyondCurrentEnd(t *testing.T) {
	want := seqBytes(2000)
	buf := New(&chunkyReader{r: bytes.NewReader(want), chunkSize: 8})

	dst := make([]byte, 4)
	if _, err := buf.Read(0, dst); err != nil {
		t.Fatalf("Read(0) error = %v", err)
	}

	got := make([]byte, 4)
	if _, err := buf.Read(1000, got); err != nil {
		t.Fatalf("Read(1000) error = %v", err)
	}
	if !bytes.Equal(got, want[1000:1004]) {
		t.Errorf("Read(1000) across an unfilled gap = %v, want %v", got, want[1000:1004])
	}
}

var _ io.Reader = (*forwardOnlyReader)(nil)
