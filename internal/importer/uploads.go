package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var ErrUploadNotFound = errors.New("upload not found or expired")

// Uploads keeps uploaded files on disk between the upload form and the
// mapping form. Each upload lives in its own directory named by a token.
type Uploads struct {
	dir string
}

func NewUploads(dir string) (*Uploads, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Uploads{dir: dir}, nil
}

// Save stores data under a new token. Only the base name of filename is kept.
func (u *Uploads) Save(filename string, data []byte) (string, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return "", fmt.Errorf("invalid file name %q", filename)
	}

	token := uuid.NewString()
	dir := filepath.Join(u.dir, token)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}
	return token, nil
}

// Open returns the name and content of the upload behind token.
func (u *Uploads) Open(token string) (string, []byte, error) {
	dir, err := u.path(token)
	if err != nil {
		return "", nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || entries[0].IsDir() {
		return "", nil, ErrUploadNotFound
	}

	name := entries[0].Name()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", nil, err
	}
	return name, data, nil
}

func (u *Uploads) Remove(token string) error {
	dir, err := u.path(token)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

func (u *Uploads) path(token string) (string, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return "", ErrUploadNotFound
	}
	return filepath.Join(u.dir, id.String()), nil
}
