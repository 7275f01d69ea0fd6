package ui_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bamsammich/rsniff/internal/ui"
)

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want string
		in   int64
	}{
		{want: "0 B", in: 0},
		{want: "512 B", in: 512},
		{want: "1.0 KiB", in: 1024},
		{want: "1.5 MiB", in: 1024 * 1024 * 3 / 2},
		{want: "-1.0 KiB", in: -1024},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ui.FormatBytes(tt.in))
		})
	}
}
