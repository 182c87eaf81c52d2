package memtag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubResolver struct {
	id  string
	err error
}

func (s *stubResolver) SecondaryID(_ context.Context, _ string) (string, error) {
	return s.id, s.err
}

func TestDeriverFormats(t *testing.T) {
	d := NewDeriver("default", nil)
	ctx := context.Background()

	assert.Equal(t, "default_user_usr-1", d.User(ctx, "usr-1"))
	assert.Equal(t, "default_user_usr-1_conv_conv-9", d.Conversation(ctx, "usr-1", "conv-9"))
	assert.Equal(t, "default_user_usr-1_prefs", d.Preferences(ctx, "usr-1"))
	assert.Equal(t, "default_role_7", d.Role("7"))
}

func TestDeriverIsDeterministic(t *testing.T) {
	d := NewDeriver("prod", &stubResolver{id: "abc-123"})
	ctx := context.Background()

	first := d.Conversation(ctx, "usr-1", "conv-2")
	second := d.Conversation(ctx, "usr-1", "conv-2")
	assert.Equal(t, first, second)
}

func TestDeriverPrefersSecondaryID(t *testing.T) {
	d := NewDeriver("default", &stubResolver{id: "sec-uuid"})

	assert.Equal(t, "default_user_sec-uuid", d.User(context.Background(), "usr-1"))
}

func TestDeriverFallsBackOnResolverError(t *testing.T) {
	d := NewDeriver("default", &stubResolver{err: errors.New("db down")})

	// Resolution failures fall back to the primary ID without surfacing.
	assert.Equal(t, "default_user_usr-1", d.User(context.Background(), "usr-1"))
}

func TestDeriverFallsBackOnEmptySecondaryID(t *testing.T) {
	d := NewDeriver("default", &stubResolver{id: ""})

	assert.Equal(t, "default_user_usr-1", d.User(context.Background(), "usr-1"))
}
