package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"
)

const (
	// HeaderSize is the length of the big-endian frame length prefix.
	HeaderSize = 4

	// DefaultMaxFrameSize bounds a single payload unless configured otherwise.
	DefaultMaxFrameSize = 64 << 10
)

var (
	ErrShortFrame    = errors.New("connection closed mid-frame")
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	ErrInvalidUTF8   = errors.New("frame payload is not valid UTF-8")
	ErrTrailingBytes = errors.New("trailing bytes after frame")
)

// FramingError marks a malformed or truncated frame. It is always fatal to
// the connection it was read from.
type FramingError struct {
	Err error
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("framing error: %v", e.Err)
}

func (e *FramingError) Unwrap() error {
	return e.Err
}

// IsFramingError reports whether err is a FramingError.
func IsFramingError(err error) bool {
	var fe *FramingError
	return errors.As(err, &fe)
}

// Pool of buffers so concurrent writers do not allocate per frame
var bufferPool = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

// EncodeFrame returns text with its length prefix.
func EncodeFrame(text string) []byte {
	out := make([]byte, HeaderSize+len(text))
	binary.BigEndian.PutUint32(out, uint32(len(text)))
	copy(out[HeaderSize:], text)
	return out
}

// WriteFrame writes text as a single frame with one Write call, so frames
// from different writers never interleave on a shared stream.
func WriteFrame(w io.Writer, text string) error {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(text)))
	buf.Write(header[:])
	buf.WriteString(text)

	_, err := w.Write(buf.Bytes())
	return err
}

// ReadFrame reads exactly one frame. A clean close before any header byte
// returns io.EOF; anything else that is incomplete or malformed returns a
// *FramingError.
func ReadFrame(r io.Reader, maxSize int) (string, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}

	var header [HeaderSize]byte
	n, err := io.ReadFull(r, header[:])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return "", &FramingError{Err: ErrShortFrame}
		}
		return "", err
	}

	size := binary.BigEndian.Uint32(header[:])
	if uint64(size) > uint64(maxSize) {
		return "", &FramingError{Err: fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, maxSize)}
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", &FramingError{Err: ErrShortFrame}
		}
		return "", err
	}
	if !utf8.Valid(payload) {
		return "", &FramingError{Err: ErrInvalidUTF8}
	}
	return string(payload), nil
}

// DecodeFrame decodes a buffer that must hold exactly one frame.
func DecodeFrame(data []byte, maxSize int) (string, error) {
	r := bytes.NewReader(data)
	text, err := ReadFrame(r, maxSize)
	if errors.Is(err, io.EOF) {
		return "", &FramingError{Err: ErrShortFrame}
	}
	if err != nil {
		return "", err
	}
	if r.Len() > 0 {
		return "", &FramingError{Err: ErrTrailingBytes}
	}
	return text, nil
}
