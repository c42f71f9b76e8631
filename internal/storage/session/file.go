package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/domain/auth"
)

// Keys of the session document, matching the browser local storage slots.
const (
	keyToken       = "accessToken"
	keyLegacyToken = "authToken"
	keyUserID      = "userId"
	keySeller      = "seller"
)

var _ auth.Store = (*File)(nil)

// File stores the session as a small JSON document on disk, readable only by
// the owner. Writes replace the file atomically.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a File store at path. The file is created on first Set.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the location of the session file.
func (f *File) Path() string { return f.path }

// Get reads the session. A missing file is an empty session. When
// "accessToken" is absent the legacy "authToken" slot is used.
func (f *File) Get(_ context.Context) (auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return auth.Session{}, nil
	}
	if err != nil {
		return auth.Session{}, errors.Wrap(err, "read session file")
	}
	if len(data) == 0 {
		return auth.Session{}, nil
	}

	var (
		s      auth.Session
		legacy string
	)
	err = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case keyToken:
			s.Token, err = d.Str()
		case keyLegacyToken:
			legacy, err = d.Str()
		case keyUserID:
			s.UserID, err = d.Str()
		case keySeller:
			s.Seller, err = d.Bool()
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return auth.Session{}, errors.Wrapf(err, "decode session file %s", f.path)
	}
	if s.Token == "" {
		s.Token = legacy
	}
	return s, nil
}

// Set writes the session, creating parent directories as needed.
func (f *File) Set(_ context.Context, s auth.Session) error {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field(keyToken, func(e *jx.Encoder) { e.Str(s.Token) })
		e.Field(keyUserID, func(e *jx.Encoder) { e.Str(s.UserID) })
		e.Field(keySeller, func(e *jx.Encoder) { e.Bool(s.Seller) })
	})

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "create session dir")
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(e.Bytes()); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write session")
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod session")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close session")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrap(err, "replace session file")
	}
	return nil
}

// Clear removes the session file.
func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove session file")
	}
	return nil
}
