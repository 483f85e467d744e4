package codec

import "strings"

// SlugSeparator joins a title token and a payload token. No base64 alphabet
// contains it, so the first occurrence always marks the boundary.
const SlugSeparator = ":"

// EncodeSlug returns Encode(title) + ":" + Encode(payload).
func (c *Codec) EncodeSlug(title string, payload any) (string, error) {
	t, err := c.Encode(title)
	if err != nil {
		return "", err
	}
	p, err := c.Encode(payload)
	if err != nil {
		return "", err
	}
	return JoinSlug(t, p), nil
}

// JoinSlug joins an already encoded title token and payload token.
func JoinSlug(titleToken, payloadToken string) string {
	return titleToken + SlugSeparator + payloadToken
}

// SplitSlug splits raw on its first separator. ok is false when raw holds no
// separator, meaning it is not a self-contained slug.
func SplitSlug(raw string) (titleToken, payloadToken string, ok bool) {
	return strings.Cut(raw, SlugSeparator)
}

// IsSlug reports whether raw has the title:payload shape.
func IsSlug(raw string) bool {
	return strings.Contains(raw, SlugSeparator)
}

// DecodeSlug splits raw, decodes the payload token into payload and returns
// the decoded title.
func (c *Codec) DecodeSlug(raw string, payload any) (string, error) {
	titleToken, payloadToken, ok := SplitSlug(raw)
	if !ok {
		return "", &DecodeError{Stage: StageSlug, Err: ErrNotSlug}
	}
	var title string
	if err := c.Decode(titleToken, &title); err != nil {
		return "", err
	}
	if err := c.Decode(payloadToken, payload); err != nil {
		return "", err
	}
	return title, nil
}
