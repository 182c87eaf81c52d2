// Package supermemory wraps the external long-term memory provider. The
// provider is optional: every caller must treat an unavailable client the
// same as a clean no-result.
package supermemory

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrUnavailable is returned when the memory subsystem is disabled,
// misconfigured, or its client library could not be constructed.
var ErrUnavailable = errors.New("memory provider unavailable")

// Result is the single internal shape for a retrieved memory. External
// response shapes are normalized into it at the adapter boundary; nothing
// downstream branches on provider shape.
type Result struct {
	Content string `json:"content"`
	Score   float64
}

// Profile holds the provider's structured user profile.
type Profile struct {
	Static  string `json:"static"`
	Dynamic string `json:"dynamic"`
}

// Provider is the memory backend contract. Scope is an opaque container tag
// partitioning the store (see memtag).
type Provider interface {
	Add(ctx context.Context, content, scope string) error
	Search(ctx context.Context, query, scope string, limit int) ([]Result, error)
	Profile(ctx context.Context, scope, query string) (Profile, error)
}

// UnmarshalJSON accepts both result shapes the provider is known to return:
// a flat object with a "content" field, or an object nesting the text under
// "memory".
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw struct {
		Content string          `json:"content"`
		Memory  json.RawMessage `json:"memory"`
		Score   float64         `json:"score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Content = raw.Content
	r.Score = raw.Score

	if r.Content == "" && len(raw.Memory) > 0 {
		// "memory" may be a bare string or an object carrying "content".
		var s string
		if err := json.Unmarshal(raw.Memory, &s); err == nil {
			r.Content = s
			return nil
		}
		var nested struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(raw.Memory, &nested); err == nil {
			r.Content = nested.Content
		}
	}
	return nil
}

// UnmarshalJSON accepts both profile shapes: static/dynamic nested under a
// "profile" key, or flat at the top level.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw struct {
		Static  string `json:"static"`
		Dynamic string `json:"dynamic"`
		Profile *struct {
			Static  string `json:"static"`
			Dynamic string `json:"dynamic"`
		} `json:"profile"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Profile != nil {
		p.Static = raw.Profile.Static
		p.Dynamic = raw.Profile.Dynamic
		return nil
	}
	p.Static = raw.Static
	p.Dynamic = raw.Dynamic
	return nil
}
