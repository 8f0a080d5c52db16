package netstash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownloadable(t *testing.T) {
	downloadable := []string{
		"application/zip",
		"application/pdf",
		"application/octet-stream",
		"application/msword",
		"application/vnd.ms-excel",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"video/mp4",
		"audio/mpeg",
		"image/png",
		"image/jpeg; quality=0.9",
		"Application/ZIP",
	}
	for _, ct := range downloadable {
		assert.True(t, Downloadable(ct), ct)
	}

	ordinary := []string{
		"application/json",
		"application/json; charset=utf-8",
		"text/html",
		"text/plain",
		"application/xml",
		"",
	}
	for _, ct := range ordinary {
		assert.False(t, Downloadable(ct), ct)
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "report.pdf", FileName("https://api.example.com/files/report.pdf"))
	assert.Equal(t, "archive.zip", FileName("https://api.example.com/a/b/archive.zip?token=abc"))
	assert.Equal(t, "plain-key", FileName("plain-key"))

	// Keys without a usable trailing segment get a stable hashed name.
	hashed := FileName("https://api.example.com/")
	assert.NotEmpty(t, hashed)
	assert.NotContains(t, hashed, "/")
	assert.Equal(t, hashed, FileName("https://api.example.com/"))
	assert.NotEqual(t, hashed, FileName("https://other.example.com/"))
}
