package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, "", KindOf(nil))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("message 1: %w", ErrNotFound)))
	assert.Equal(t, KindForbidden, KindOf(fmt.Errorf("a: %w", fmt.Errorf("b: %w", ErrForbidden))))
	assert.Equal(t, KindUploadFailed, KindOf(fmt.Errorf("%w: x.png: %w", ErrUploadFailed, errors.New("disk"))))
	assert.Equal(t, KindConflict, KindOf(ErrConflict))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestParseReactionType(t *testing.T) {
	for _, in := range []string{"LIKE", "love", " Haha ", "WOW", "sad", "ANGRY"} {
		_, err := ParseReactionType(in)
		assert.NoError(t, err, in)
	}
	got, err := ParseReactionType("love")
	require.NoError(t, err)
	assert.Equal(t, ReactionLove, got)

	_, err = ParseReactionType("MEH")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ParseReactionType("")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDisplayNameAndParticipants(t *testing.T) {
	assert.Equal(t, "Alice Doe", (&User{Username: "alice", FullName: "Alice Doe"}).DisplayName())
	assert.Equal(t, "alice", (&User{Username: "alice", FullName: "  "}).DisplayName())

	c := &Conversation{Participants: []*User{{ID: 1}, {ID: 2}}}
	assert.True(t, c.HasParticipant(2))
	assert.False(t, c.HasParticipant(3))
}
