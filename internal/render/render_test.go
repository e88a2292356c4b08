package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Substitution(t *testing.T) {
	out, err := Render("Hi {name}, here is your code:\n{content}", Vars{
		Content: "CODE-A",
		Name:    "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi Alice, here is your code:\nCODE-A", out)
}

func TestRender_NoPlaceholders(t *testing.T) {
	out, err := Render("Welcome aboard!", Vars{})
	require.NoError(t, err)
	assert.Equal(t, "Welcome aboard!", out)
}

func TestRender_EscapedBraces(t *testing.T) {
	out, err := Render("use {{braces}} and {name}", Vars{Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "use {braces} and Bob", out)
}

func TestRender_UnknownVariableDegrades(t *testing.T) {
	tmpl := "Hello {username}, enjoy {content}"
	out, err := Render(tmpl, Vars{Content: "x"})
	assert.Error(t, err)
	// The raw template survives so the payload is not lost
	assert.Contains(t, out, tmpl)
	assert.Contains(t, out, "template error")
	assert.Contains(t, out, "username")
}

func TestRender_UnterminatedPlaceholderDegrades(t *testing.T) {
	out, err := Render("broken {content", Vars{Content: "x"})
	assert.Error(t, err)
	assert.Contains(t, out, "template error")
	assert.NotEmpty(t, out)
}

func TestRender_StrayClosingBraceDegrades(t *testing.T) {
	out, err := Render("oops } here", Vars{})
	assert.Error(t, err)
	assert.NotEmpty(t, out)
}

func TestRender_NeverEmpty(t *testing.T) {
	for _, tmpl := range []string{"", "   ", "{content}", "{nope}"} {
		out, _ := Render(tmpl, Vars{})
		assert.NotEmpty(t, strings.TrimSpace(out), "template %q", tmpl)
	}
}
