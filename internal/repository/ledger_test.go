package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

func TestDecodeComments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "Empty column", raw: "", want: 0},
		{name: "Empty array", raw: "[]", want: 0},
		{name: "JSON null", raw: "null", want: 0},
		{name: "Free text", raw: "nice place", want: 0},
		{name: "Wrong shape", raw: `{"id":1}`, want: 0},
		{name: "Two comments", raw: `[{"id":2,"content":"b"},{"id":1,"content":"a"}]`, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeComments(tt.raw)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestEncodeNilIsEmptyArray(t *testing.T) {
	s, err := EncodeComments(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)
}

func TestPrependCommentNewestFirst(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	list, first := prependComment(nil, "first", t0)
	list, second := prependComment(list, "second", t0.Add(time.Second))

	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Nil(t, list[0].EditedAt)
}

func TestNextCommentIDStepsPastCollisions(t *testing.T) {
	now := time.UnixMilli(1_000)
	list := []models.Comment{{ID: 1_000}, {ID: 1_001}}

	assert.EqualValues(t, 1_002, nextCommentID(list, now))
	assert.EqualValues(t, 5_000, nextCommentID(list, time.UnixMilli(5_000)))
}

func TestEditCommentStampsEditedAt(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	edited := created.Add(time.Hour)
	list := []models.Comment{{ID: 1, Content: "old", CreatedAt: created}}

	list, c, err := editComment(list, 1, "new", edited)

	require.NoError(t, err)
	assert.Equal(t, "new", c.Content)
	require.NotNil(t, list[0].EditedAt)
	assert.True(t, list[0].EditedAt.Equal(edited))
	assert.True(t, list[0].CreatedAt.Equal(created))

	_, _, err = editComment(list, 2, "x", edited)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestDeleteComment(t *testing.T) {
	list := []models.Comment{{ID: 3}, {ID: 2}, {ID: 1}}

	next, err := deleteComment(list, 2)
	require.NoError(t, err)
	assert.Equal(t, []models.Comment{{ID: 3}, {ID: 1}}, next)

	_, err = deleteComment(next, 2)
	assert.ErrorIs(t, err, ErrCommentNotFound)

	only, err := deleteComment([]models.Comment{{ID: 1}}, 1)
	require.NoError(t, err)
	assert.NotNil(t, only)
	assert.Empty(t, only)
}
