package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"web-framework-react", "web-framework-react"},
		{"Web Framework React", "web-framework-react"},
		{"React_Product!!Stack", "react-product-stack"},
		{"  trimmed  ", "trimmed"},
		{"already-ok-123", "already-ok-123"},
		{"___", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.input))
		})
	}
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("web-framework-react"))
	assert.True(t, ValidName("web/react"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName("Web-Framework"))
	assert.False(t, ValidName("web framework"))
	assert.False(t, ValidName("web//react"))
}
