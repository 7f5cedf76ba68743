// Package object stores uploaded resumes and report exports by key.
package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"unicode"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// Store persists blobs under slash-separated keys. Put replaces any existing object.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

const maxNameRunes = 128

// CleanKey normalizes key and rejects empty, absolute and escaping keys.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// SafeName turns a client file name into a single key segment. Separators and
// control characters become underscores; long names are cut keeping the extension.
func SafeName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidKey
	}
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "", ErrInvalidKey
	}

	runes := []rune(name)
	if len(runes) <= maxNameRunes {
		return name, nil
	}
	ext := []rune(path.Ext(name))
	if len(ext) >= maxNameRunes {
		ext = nil
	}
	return string(runes[:maxNameRunes-len(ext)]) + string(ext), nil
}

// UploadKey places an upload under namespace/id so it sits beside its report.
func UploadKey(namespace, id, fileName string) (string, error) {
	name, err := SafeName(fileName)
	if err != nil {
		return "", err
	}
	return CleanKey(path.Join(namespace, id, name))
}
