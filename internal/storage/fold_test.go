package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Grilled Chicken", "grilled chicken"},
		{"Crème Brûlée", "creme brulee"},
		{"Weißwurst", "weisswurst"},
		{"  Ben & Jerry's -- Cookie   Dough ", "ben jerry s cookie dough"},
		{"Café-au-lait 2%", "cafe au lait 2"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FoldName(tt.in))
		})
	}
}
