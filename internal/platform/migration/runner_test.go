// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/academia", "pgx5://u:p@db:5432/academia"},
		{"postgresql://u:p@db/academia?sslmode=disable", "pgx5://u:p@db/academia?sslmode=disable"},
		{"pgx5://db/academia", "pgx5://db/academia"},
		{"host=db dbname=academia", "host=db dbname=academia"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, toPgx5DSN(tt.in), tt.in)
	}
}

func TestRunnerDown_RejectsNonPositiveSteps(t *testing.T) {
	runner := NewRunner("postgres://localhost/academia", "./data/migrations", nil)
	assert.Error(t, runner.Down(0))
}
