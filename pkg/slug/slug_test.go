// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/academia/pkg/slug"
)

func TestFrom(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Web Development", "web-development"},
		{"  Wéb   Development ", "web-development"},
		{"Data & AI", "data-ai"},
		{"Uncategorized", "uncategorized"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, slug.From(tt.in), tt.in)
	}
}
