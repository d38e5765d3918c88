package audio

import (
	"errors"
	"fmt"
)

var (
	ErrDecode = errors.New("audio decode failed")
	ErrRender = errors.New("audio render failed")

	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrTruncated         = errors.New("truncated audio data")
	ErrFFmpegDisabled    = errors.New("ffmpeg fallback disabled")
)

// DecodeError reports audio bytes that could not be turned into samples.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

// RenderError reports a failed overlay, distortion or encode step.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() []error {
	return []error{ErrRender, e.Err}
}

func decodeErr(format string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Format: format, Err: err}
}

func renderErr(op string, err error) error {
	return &RenderError{Op: op, Err: err}
}
