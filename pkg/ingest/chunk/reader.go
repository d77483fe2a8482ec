package chunk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/NissanArmada/GazooRazoo/log"
)

// DefaultChunkSize is the window size used when no other size is configured
const DefaultChunkSize = 10 << 20

const bom = "\ufeff"

type (
	// ProgressFunc receives bytesConsumed/size after each chunk
	ProgressFunc func(fraction float64)
	Option       func(*Reader)

	// Reader reads a byte source in fixed size windows. Every pass starts at
	// offset 0, so a Reader can be consumed any number of times.
	Reader struct {
		src       io.ReaderAt
		size      int64
		chunkSize int
		progress  ProgressFunc
		l         *log.Logger
	}

	// File is a Reader backed by an open file
	File struct {
		*Reader
		f *os.File
	}
)

func WithChunkSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(r *Reader) {
		r.progress = fn
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Reader) {
		r.l = l
	}
}

func New(src io.ReaderAt, size int64, opts ...Option) *Reader {
	r := &Reader{
		src:       src,
		size:      size,
		chunkSize: DefaultChunkSize,
		l:         log.Default().Named("ingest.chunk"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func FromBytes(data []byte, opts ...Option) *Reader {
	return New(bytes.NewReader(data), int64(len(data)), opts...)
}

func FromString(data string, opts ...Option) *Reader {
	return New(strings.NewReader(data), int64(len(data)), opts...)
}

// OpenFile opens path for chunked reading. The caller must Close the result.
func OpenFile(path string, opts ...Option) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{Reader: New(f, fi.Size(), opts...), f: f}, nil
}

func (f *File) Close() error {
	return f.f.Close()
}

func (f *File) Name() string {
	return f.f.Name()
}

func (r *Reader) Size() int64 {
	return r.size
}

// WithProgress returns a copy of r reporting to fn
func (r *Reader) WithProgress(fn ProgressFunc) *Reader {
	c := *r
	c.progress = fn
	return &c
}

// Chunks calls fn with the decoded text of each window in file order. A
// multi-byte rune split by a window boundary is carried over to the next
// window, so text never contains a partial rune caused by the split.
func (r *Reader) Chunks(ctx context.Context, fn func(text string) error) error {
	buf := make([]byte, min(int64(r.chunkSize), max(r.size, 1)))
	var pending []byte
	var off int64
	leading := true
	for off < r.size {
		if err := ctx.Err(); err != nil {
			return err
		}
		want := min(int64(len(buf)), r.size-off)
		n, err := r.src.ReadAt(buf[:want], off)
		if err != nil && !(errors.Is(err, io.EOF) && int64(n) == want) {
			return fmt.Errorf("read chunk at offset %d: %w", off, err)
		}
		off += int64(n)

		data := append(pending, buf[:n]...)
		pending = nil
		if off < r.size {
			cut := incompleteTail(data)
			pending = append([]byte(nil), data[cut:]...)
			data = data[:cut]
		}
		text := string(data)
		if leading && text != "" {
			text = strings.TrimPrefix(text, bom)
			leading = false
		}
		r.l.Debug("chunk", log.Int64("offset", off), log.Int("bytes", n))
		if err := fn(text); err != nil {
			return err
		}
		if r.progress != nil {
			r.progress(float64(off) / float64(r.size))
		}
	}
	return nil
}

// incompleteTail returns the index where a trailing incomplete UTF-8 sequence
// starts, or len(b) if b ends on a rune boundary.
func incompleteTail(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if utf8.FullRune(b[i:]) {
				return len(b)
			}
			return i
		}
	}
	return len(b)
}

// Lines calls fn for each line of the source in file order. "\r\n", "\n" and
// "\r" terminate lines, the terminator is not part of the line. A final line
// without terminator is emitted too.
func (r *Reader) Lines(ctx context.Context, fn func(line string) error) error {
	var carry string
	err := r.Chunks(ctx, func(text string) error {
		rest, err := splitLines(carry+text, false, fn)
		carry = rest
		return err
	})
	if err != nil {
		return err
	}
	if carry != "" {
		_, err = splitLines(carry, true, fn)
	}
	return err
}

// splitLines emits all terminated lines of buf and returns the unterminated
// rest. A trailing '\r' is kept in the rest unless final is set, since the
// next chunk may start with the matching '\n'.
func splitLines(buf string, final bool, fn func(string) error) (string, error) {
	start := 0
	for {
		i := strings.IndexAny(buf[start:], "\r\n")
		if i < 0 {
			break
		}
		end := start + i
		next := end + 1
		if buf[end] == '\r' {
			switch {
			case next == len(buf) && !final:
				return buf[start:], nil
			case next < len(buf) && buf[next] == '\n':
				next++
			}
		}
		if err := fn(buf[start:end]); err != nil {
			return "", err
		}
		start = next
	}
	rest := buf[start:]
	if final && rest != "" {
		return "", fn(rest)
	}
	return rest, nil
}
