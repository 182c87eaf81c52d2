package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/persona_chatbot/internal/persistence"
	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

func newTestLogger() logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:  logger.DebugLevel,
		Output: io.Discard,
	})
}

type fakeUserStore struct {
	existing map[string]bool
	created  []string
	getErr   error
}

func (f *fakeUserStore) GetByPublicID(_ context.Context, publicID string) (*persistence.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.existing[publicID] {
		return &persistence.User{PublicID: publicID}, nil
	}
	return nil, persistence.ErrNotFound
}

func (f *fakeUserStore) CreateUser(_ context.Context, publicID, username string) (*persistence.User, error) {
	f.created = append(f.created, publicID)
	return &persistence.User{PublicID: publicID, Username: username}, nil
}

func TestSeedUsersProvisionsConfiguredIdentities(t *testing.T) {
	store := &fakeUserStore{existing: map[string]bool{}}

	err := seedUsers(context.Background(),
		[]string{"tok1:usr-1", "tok2:usr-2"}, store, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"usr-1", "usr-2"}, store.created)
}

func TestSeedUsersSkipsExisting(t *testing.T) {
	store := &fakeUserStore{existing: map[string]bool{"usr-1": true}}

	err := seedUsers(context.Background(),
		[]string{"tok1:usr-1", "tok2:usr-2"}, store, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"usr-2"}, store.created)
}

func TestSeedUsersDeduplicatesAndSkipsMalformed(t *testing.T) {
	store := &fakeUserStore{existing: map[string]bool{}}

	err := seedUsers(context.Background(),
		[]string{"tok1:usr-1", "tok2:usr-1", "noseparator", ":usr-3", "tok4:"},
		store, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"usr-1"}, store.created)
}

func TestSeedUsersFailsOnLookupError(t *testing.T) {
	store := &fakeUserStore{getErr: errors.New("connection refused")}

	err := seedUsers(context.Background(), []string{"tok1:usr-1"}, store, newTestLogger())
	assert.Error(t, err)
	assert.Empty(t, store.created)
}
