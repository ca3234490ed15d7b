// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"strings"
	"testing"
)

func TestIconRender_ContainsGlyph(t *testing.T) {
	cases := []struct {
		icon  Icon
		glyph string
	}{
		{IconSuccess, "✓"},
		{IconWarning, "⚠"},
		{IconError, "✗"},
		{IconPending, "○"},
		{IconArrow, "→"},
		{IconDoc, "▤"},
		{IconKey, "⚿"},
	}
	for _, tc := range cases {
		if got := tc.icon.Render(); !strings.Contains(got, tc.glyph) {
			t.Errorf("Icon %q rendered as %q, missing glyph", tc.icon, got)
		}
	}
}

func TestIconRender_UnstyledIconsPassThrough(t *testing.T) {
	// Icons without a semantic color render as their bare glyph
	if got := IconBullet.Render(); got != "•" {
		t.Errorf("IconBullet.Render() = %q, want bare glyph", got)
	}
}
