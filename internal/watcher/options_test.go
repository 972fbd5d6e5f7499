package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptions_Defaults(t *testing.T) {
	opts := Options{}
	opts.setDefaults()

	assert.Equal(t, BackendAuto, opts.Backend)
	assert.Equal(t, DefaultBufferSize, opts.BufferSize)
	assert.False(t, opts.IgnoreHidden, "hidden files are watched unless asked otherwise")
	assert.Contains(t, opts.IgnorePatterns, ".DS_Store", "Should ignore .DS_Store by default")
	assert.Contains(t, opts.IgnorePatterns, "*.tmp", "Should ignore *.tmp by default")
}

func TestOptions_CustomValues(t *testing.T) {
	opts := Options{
		Backend:        BackendFsnotify,
		IgnoreHidden:   true,
		BufferSize:     8,
		IgnorePatterns: []string{"*.bak"},
	}
	opts.setDefaults()

	assert.Equal(t, BackendFsnotify, opts.Backend)
	assert.True(t, opts.IgnoreHidden)
	assert.Equal(t, 8, opts.BufferSize)
	assert.Equal(t, []string{"*.bak"}, opts.IgnorePatterns, "Custom patterns should be preserved")
}

func TestOptions_EmptyPatternsDisableDefaults(t *testing.T) {
	opts := Options{IgnorePatterns: []string{}}
	opts.setDefaults()

	assert.Empty(t, opts.IgnorePatterns)
	assert.False(t, opts.shouldIgnore("/path/file.tmp"))
}

func TestOptions_ShouldIgnore(t *testing.T) {
	opts := Options{
		IgnoreHidden:   true,
		IgnorePatterns: []string{"*.tmp", ".DS_Store", "~*"},
	}
	opts.setDefaults()

	tests := []struct {
		name   string
		path   string
		expect bool
	}{
		{"hidden file", "/path/.hidden.pdf", true},
		{"hidden directory", "/path/.git/report.pdf", true},
		{"DS_Store", "/path/.DS_Store", true},
		{"tmp file", "/path/file.tmp", true},
		{"office lock file", "/path/~report.pdf", true},
		{"normal file", "/path/report.pdf", false},
		{"current dir", "./report.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, opts.shouldIgnore(tt.path))
		})
	}
}
