// Package credentials owns the single persisted (network name, secret) pair.
package credentials

import (
	"errors"

	"github.com/muurk/wifistat/internal/codec"
	"github.com/muurk/wifistat/internal/logging"
	"github.com/muurk/wifistat/internal/storage"
	"go.uber.org/zap"
)

// DefaultPath is where the record lives on the device storage.
const DefaultPath = "/config.json"

// Record field names. The portal form uses the same names.
const (
	FieldNetworkName = "networkName"
	FieldSecret      = "secret"
)

// Credentials identify the network the device joins as a client.
type Credentials struct {
	NetworkName string
	Secret      string
}

// Valid reports whether both fields are non-empty.
func (c Credentials) Valid() bool {
	return c.NetworkName != "" && c.Secret != ""
}

// Store persists Credentials through a byte storage and a codec.
// Storage I/O is never retried.
type Store struct {
	fs    storage.Storage
	codec codec.Codec
	path  string
}

// NewStore returns a store writing DefaultPath with c.
func NewStore(fs storage.Storage, c codec.Codec) *Store {
	if c == nil {
		c = codec.JSON{}
	}
	return &Store{fs: fs, codec: c, path: DefaultPath}
}

// Path returns the storage path of the record.
func (s *Store) Path() string { return s.path }

// Load reads the record. A missing record is ErrNotFound, an undecodable
// one or one lacking a field is ErrCorrupt.
func (s *Store) Load() (Credentials, error) {
	data, err := s.fs.Read(s.path)
	if err != nil {
		return Credentials{}, s.ioError("load", err)
	}

	m, err := s.codec.Decode(data)
	if err != nil {
		logging.Warn("Credential record does not decode", zap.String("path", s.path), zap.Error(err))
		return Credentials{}, &StoreError{Kind: KindCorrupt, Op: "load", Err: err}
	}

	c := Credentials{NetworkName: m[FieldNetworkName], Secret: m[FieldSecret]}
	if !c.Valid() {
		logging.Warn("Credential record is incomplete", zap.String("path", s.path))
		return Credentials{}, &StoreError{Kind: KindCorrupt, Op: "load", Err: errors.New("missing networkName or secret")}
	}
	return c, nil
}

// Save replaces any prior record. Records with an empty field are refused
// so a partial record is never persisted.
func (s *Store) Save(c Credentials) error {
	if !c.Valid() {
		return &StoreError{Kind: KindInvalid, Op: "save", Err: errors.New("networkName and secret must be non-empty")}
	}

	data, err := s.codec.Encode(map[string]string{
		FieldNetworkName: c.NetworkName,
		FieldSecret:      c.Secret,
	})
	if err != nil {
		return &StoreError{Kind: KindIO, Op: "save", Err: err}
	}

	if err := s.fs.Write(s.path, data); err != nil {
		return s.ioError("save", err)
	}
	logging.Info("Credentials saved", zap.String("ssid", c.NetworkName))
	return nil
}

// Erase removes the record. Erasing a missing record succeeds.
func (s *Store) Erase() error {
	err := s.fs.Delete(s.path)
	if err == nil {
		logging.Info("Credentials erased")
		return nil
	}
	if errors.Is(err, storage.ErrNotExist) {
		return nil
	}
	return s.ioError("erase", err)
}

func (s *Store) ioError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotExist):
		return &StoreError{Kind: KindNotFound, Op: op}
	case errors.Is(err, storage.ErrUnavailable):
		return &StoreError{Kind: KindUnavailable, Op: op, Err: err}
	default:
		logging.Warn("Credential storage failed", zap.String("op", op), zap.Error(err))
		return &StoreError{Kind: KindIO, Op: op, Err: err}
	}
}
