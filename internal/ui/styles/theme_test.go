// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewThemeHasSenderBubbles(t *testing.T) {
	theme := NewTheme()
	for sender := range SenderColors {
		out := theme.Bubble(sender).Render("hello")
		assert.Contains(t, out, "hello", sender)
	}
	assert.Contains(t, theme.Bubble("martian").Render("x"), "x")
}

func TestStatusHelpersIncludeIndicators(t *testing.T) {
	tests := []struct {
		render func(string) string
		want   string
	}{
		{RenderSuccess, StatusIndicators.Success},
		{RenderError, StatusIndicators.Error},
		{RenderWarning, StatusIndicators.Warning},
		{RenderInfo, StatusIndicators.Info},
	}
	for _, tt := range tests {
		out := tt.render("msg")
		assert.True(t, strings.Contains(out, tt.want), out)
		assert.Contains(t, out, "msg")
	}
}
