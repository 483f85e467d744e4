// Package codec turns JSON-serializable values into compact, URL-friendly
// tokens and back. A token is the value's JSON text, zlib-compressed, then
// base64 encoded. Tokens are deterministic for equal input and never contain
// ':' so two of them can be joined into a slug.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Alphabet names the base64 variant used for tokens.
type Alphabet string

const (
	// AlphabetStandard is RFC 4648 base64 with padding. '+', '/' and '=' must
	// be percent-encoded in query strings.
	AlphabetStandard Alphabet = "standard"
	// AlphabetURL is the RFC 4648 URL-safe alphabet with padding.
	AlphabetURL Alphabet = "url"
)

// DefaultLevel is the compression level used when none is configured.
const DefaultLevel = zlib.BestCompression

// DefaultMaxDecodedSize bounds the inflated JSON a single token may expand to.
const DefaultMaxDecodedSize = 1 << 20

// Decode stages reported by DecodeError.
const (
	StageBase64  = "base64"
	StageInflate = "inflate"
	StageJSON    = "json"
	StageSlug    = "slug"
)

// Sentinel causes wrapped by DecodeError.
var (
	// ErrEmptyToken indicates an empty string was passed to Decode.
	ErrEmptyToken = errors.New("empty token")
	// ErrTooLarge indicates the inflated payload exceeded the configured limit.
	ErrTooLarge = errors.New("decoded payload too large")
	// ErrNotSlug indicates a slug had no ':' separator.
	ErrNotSlug = errors.New("not a title:payload slug")
	// ErrTrailingData indicates bytes followed the end of the zlib stream.
	ErrTrailingData = errors.New("trailing data after compressed stream")
)

// DecodeError reports a token that could not be turned back into a value.
// It is always safe for callers to recover from by falling back to an empty
// document.
type DecodeError struct {
	Stage string
	Err   error
}

// Error implements error.
func (e *DecodeError) Error() string {
	return "codec: decode " + e.Stage + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a value JSON cannot represent (channels, functions,
// NaN, cyclic structures).
type EncodeError struct {
	Err error
}

// Error implements error.
func (e *EncodeError) Error() string {
	return "codec: encode: " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *EncodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Codec encodes and decodes tokens. The zero value is not usable; construct
// one with New. A Codec holds no mutable state and is safe for concurrent use.
type Codec struct {
	level      int
	alphabet   Alphabet
	enc        *base64.Encoding
	maxDecoded int64
}

// Option configures a Codec.
type Option func(*Codec)

// WithLevel sets the zlib compression level (zlib.HuffmanOnly..BestCompression).
func WithLevel(level int) Option {
	return func(c *Codec) { c.level = level }
}

// WithAlphabet selects the base64 alphabet.
func WithAlphabet(a Alphabet) Option {
	return func(c *Codec) { c.alphabet = a }
}

// WithMaxDecodedSize bounds how many bytes a token may inflate to. Values
// below one keep the default.
func WithMaxDecodedSize(n int64) Option {
	return func(c *Codec) {
		if n > 0 {
			c.maxDecoded = n
		}
	}
}

// New returns a Codec with the given options applied over the defaults.
func New(opts ...Option) (*Codec, error) {
	c := &Codec{
		level:      DefaultLevel,
		alphabet:   AlphabetStandard,
		maxDecoded: DefaultMaxDecodedSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	enc, err := encodingFor(c.alphabet)
	if err != nil {
		return nil, err
	}
	c.enc = enc
	if c.level < zlib.HuffmanOnly || c.level > zlib.BestCompression {
		return nil, fmt.Errorf("codec: invalid compression level %d", c.level)
	}
	return c, nil
}

// Default returns a Codec using the standard alphabet and default limits.
func Default() *Codec {
	return &Codec{
		level:      DefaultLevel,
		alphabet:   AlphabetStandard,
		enc:        base64.StdEncoding,
		maxDecoded: DefaultMaxDecodedSize,
	}
}

// ParseAlphabet validates an alphabet name from configuration.
func ParseAlphabet(s string) (Alphabet, error) {
	a := Alphabet(s)
	if _, err := encodingFor(a); err != nil {
		return "", err
	}
	return a, nil
}

func encodingFor(a Alphabet) (*base64.Encoding, error) {
	switch a {
	case AlphabetStandard, "":
		return base64.StdEncoding, nil
	case AlphabetURL:
		return base64.URLEncoding, nil
	}
	return nil, fmt.Errorf("codec: unknown alphabet %q", a)
}

// Alphabet returns the base64 alphabet this codec writes.
func (c *Codec) Alphabet() Alphabet { return c.alphabet }

// Encode serializes v to JSON, compresses it and returns the base64 token.
// '<', '>' and '&' are written as-is rather than \u-escaped. v is never
// modified. A json.RawMessage is compacted and encoded with its key order
// intact.
func (c *Codec) Encode(v any) (string, error) {
	raw, err := marshal(v)
	if err != nil {
		return "", &EncodeError{Err: err}
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return "", &EncodeError{Err: err}
	}
	if _, err := zw.Write(raw); err != nil {
		return "", &EncodeError{Err: err}
	}
	if err := zw.Close(); err != nil {
		return "", &EncodeError{Err: err}
	}
	return c.enc.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode, unmarshaling the token's JSON into v. Every failure
// caused by the token itself is a *DecodeError; a nil or non-pointer v is
// reported as a plain error.
func (c *Codec) Decode(token string, v any) error {
	raw, err := c.inflate(token)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		var invalid *json.InvalidUnmarshalError
		if errors.As(err, &invalid) {
			return fmt.Errorf("codec: %w", err)
		}
		return &DecodeError{Stage: StageJSON, Err: err}
	}
	return nil
}

// DecodeRaw returns the token's JSON text, checked for validity. Unlike
// DecodeValue it keeps object keys in the order they were encoded.
func (c *Codec) DecodeRaw(token string) (json.RawMessage, error) {
	raw, err := c.inflate(token)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		var v any
		err := json.Unmarshal(raw, &v)
		if err == nil {
			err = errors.New("invalid JSON")
		}
		return nil, &DecodeError{Stage: StageJSON, Err: err}
	}
	return json.RawMessage(raw), nil
}

// DecodeValue decodes a token into generic JSON values: map[string]any,
// []any, string, float64, bool or nil.
func (c *Codec) DecodeValue(token string) (any, error) {
	var v any
	if err := c.Decode(token, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Codec) inflate(token string) ([]byte, error) {
	if token == "" {
		return nil, &DecodeError{Stage: StageBase64, Err: ErrEmptyToken}
	}
	compressed, err := c.enc.DecodeString(token)
	if err != nil {
		return nil, &DecodeError{Stage: StageBase64, Err: err}
	}

	br := bytes.NewReader(compressed)
	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, &DecodeError{Stage: StageInflate, Err: err}
	}
	defer zr.Close()

	raw, err := io.ReadAll(io.LimitReader(zr, c.maxDecoded+1))
	if err != nil {
		return nil, &DecodeError{Stage: StageInflate, Err: err}
	}
	if int64(len(raw)) > c.maxDecoded {
		return nil, &DecodeError{Stage: StageInflate, Err: fmt.Errorf("%w: limit %d bytes", ErrTooLarge, c.maxDecoded)}
	}
	if br.Len() != 0 {
		return nil, &DecodeError{Stage: StageInflate, Err: fmt.Errorf("%w: %d bytes", ErrTrailingData, br.Len())}
	}
	return raw, nil
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Encode encodes v with the default codec.
func Encode(v any) (string, error) { return Default().Encode(v) }

// Decode decodes token into v with the default codec.
func Decode(token string, v any) error { return Default().Decode(token, v) }

// DecodeRaw returns token's JSON text with the default codec.
func DecodeRaw(token string) (json.RawMessage, error) { return Default().DecodeRaw(token) }

// DecodeValue decodes token into generic JSON values with the default codec.
func DecodeValue(token string) (any, error) { return Default().DecodeValue(token) }
