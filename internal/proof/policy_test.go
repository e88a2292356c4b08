package proof

import (
	"testing"

	"givebox/internal/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(map[string]interface{}{
		"allowText":  true,
		"allowPhoto": false,
		"maxTextLen": float64(100),
	})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, *p.AllowText)
	assert.False(t, *p.AllowPhoto)
	assert.Equal(t, 100, *p.MaxTextLen)
}

func TestParsePolicy_Nil(t *testing.T) {
	p, err := ParsePolicy(nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestParsePolicy_NegativeLength(t *testing.T) {
	_, err := ParsePolicy(map[string]interface{}{"maxTextLen": float64(-1)})
	assert.Error(t, err)
}

func TestPolicy_ValidateText(t *testing.T) {
	// Nil policy accepts everything
	var nilPolicy *Policy
	assert.NoError(t, nilPolicy.ValidateText("anything"))

	no := false
	maxLen := 5
	p := &Policy{AllowText: &no}
	assert.Error(t, p.ValidateText("hi"))

	p = &Policy{MaxTextLen: &maxLen}
	assert.NoError(t, p.ValidateText("12345"))
	assert.Error(t, p.ValidateText("123456"))
}

func TestPolicy_ValidatePhoto(t *testing.T) {
	var nilPolicy *Policy
	assert.NoError(t, nilPolicy.ValidatePhoto())

	no := false
	p := &Policy{AllowPhoto: &no}
	assert.Error(t, p.ValidatePhoto())
}

func TestLargestPhoto(t *testing.T) {
	_, ok := LargestPhoto(nil)
	assert.False(t, ok)

	fileID, ok := LargestPhoto([]telegram.PhotoSize{
		{FileID: "small", Width: 90, Height: 90},
		{FileID: "large", Width: 800, Height: 600},
		{FileID: "medium", Width: 320, Height: 240},
	})
	require.True(t, ok)
	assert.Equal(t, "large", fileID)
}
