package object

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"docrisk-backend/internal/shared/util"
)

// NewKey returns "<hash(namespace)>/<uuid>_<name>" for a sanitized fileName.
func NewKey(namespace, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(util.HashKey(namespace), uuid.NewString()+"_"+name), nil
}

// CheckKey rejects empty keys, absolute keys and keys with a ".." segment.
func CheckKey(storageKey string) error {
	clean := strings.TrimSpace(storageKey)
	if clean == "" || strings.HasPrefix(clean, "/") {
		return ErrInvalidKey
	}
	for _, seg := range strings.Split(clean, "/") {
		if seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".txt":  "text/plain; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",
}

// Sniff peeks at the head of r and returns the content type with a reader that
// replays the full stream. The extension wins over content sniffing because
// DOCX and PPTX sniff as plain zip archives.
func Sniff(fileName string, r io.Reader) (string, io.Reader, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read head: %w", err)
	}
	body := io.MultiReader(bytes.NewReader(head[:n]), r)
	ext := strings.ToLower(path.Ext(fileName))
	if t, ok := documentTypes[ext]; ok {
		return t, body, nil
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t, body, nil
	}
	return http.DetectContentType(head[:n]), body, nil
}
