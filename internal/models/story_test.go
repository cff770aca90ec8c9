package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

func TestNewTextItem(t *testing.T) {
	item, err := NewTextItem("hello", created)
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, KindText, item.Kind)
	assert.Equal(t, "hello", item.Text)
	assert.Empty(t, item.MediaURI)
	assert.Equal(t, created.Add(24*time.Hour), item.ExpiresAt)

	_, err = NewTextItem("", created)
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestNewMediaItem(t *testing.T) {
	item, err := NewMediaItem(KindVideo, "file:///clip.mp4", created)
	require.NoError(t, err)
	assert.Equal(t, KindVideo, item.Kind)
	assert.Empty(t, item.Text)

	_, err = NewMediaItem(KindText, "file:///clip.mp4", created)
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = NewMediaItem(KindImage, "", created)
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestStoryItem_Validate(t *testing.T) {
	valid := StoryItem{ID: "i1", Kind: KindImage, MediaURI: "file:///a.png", CreatedAt: created, ExpiresAt: created.Add(ItemTTL)}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*StoryItem)
	}{
		{"unknown kind", func(i *StoryItem) { i.Kind = "audio" }},
		{"media item with text", func(i *StoryItem) { i.Text = "caption" }},
		{"text item with media", func(i *StoryItem) { i.Kind = KindText; i.Text = "hi" }},
		{"short expiry", func(i *StoryItem) { i.ExpiresAt = created.Add(time.Hour) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := valid
			tt.mutate(&item)
			assert.ErrorIs(t, item.Validate(), ErrInvalidItem)
		})
	}
}

func TestStoryItem_Expired(t *testing.T) {
	item, err := NewTextItem("hello", created)
	require.NoError(t, err)

	assert.False(t, item.Expired(created.Add(23*time.Hour)))
	assert.True(t, item.Expired(created.Add(ItemTTL)), "expired exactly at the boundary")
	assert.True(t, item.Expired(created.Add(25*time.Hour)))
}

func TestStoryItem_Label(t *testing.T) {
	item, err := NewTextItem("hello", created)
	require.NoError(t, err)

	assert.Equal(t, "Just now", item.Label(created.Add(30*time.Second)))
	assert.Equal(t, "3 hours ago", item.Label(created.Add(3*time.Hour)))
}

func TestParseItemKind(t *testing.T) {
	k, err := ParseItemKind("image")
	require.NoError(t, err)
	assert.Equal(t, KindImage, k)

	_, err = ParseItemKind("gif")
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestOnlineStatus_Status(t *testing.T) {
	assert.Equal(t, StatusOnline, (&OnlineStatus{IsOnline: true}).Status())
	assert.Equal(t, StatusOffline, (&OnlineStatus{}).Status())
}
