// Package cipher seals the documents of password protected databases with
// XChaCha20-Poly1305, using a key derived from the password with Argon2id.
package cipher

import (
	"bytes"
	"context"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Metadata keys written to the engine's reserved area.
const (
	MetaKDF      = "kdf"
	MetaVerifier = "verifier"
)

const (
	saltSize  = 16
	keySize   = chacha20poly1305.KeySize
	kdfHeader = 9
)

var verifierText = []byte("dbexplorer password verifier")

// ErrCiphertext is returned when sealed data is too short or fails
// authentication.
var ErrCiphertext = errors.New("cannot open sealed data")

// Params are the Argon2id parameters stored with a protected database.
type Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	Salt    []byte
}

// MarshalBinary encodes the parameters for the metadata area.
func (p Params) MarshalBinary() ([]byte, error) {
	b := make([]byte, kdfHeader, kdfHeader+len(p.Salt))
	binary.BigEndian.PutUint32(b[0:4], p.Time)
	binary.BigEndian.PutUint32(b[4:8], p.Memory)
	b[8] = p.Threads
	return append(b, p.Salt...), nil
}

// UnmarshalBinary decodes parameters written by MarshalBinary.
func (p *Params) UnmarshalBinary(b []byte) error {
	if len(b) < kdfHeader+saltSize {
		return fmt.Errorf("invalid key derivation record of %d bytes", len(b))
	}
	p.Time = binary.BigEndian.Uint32(b[0:4])
	p.Memory = binary.BigEndian.Uint32(b[4:8])
	p.Threads = b[8]
	p.Salt = bytes.Clone(b[kdfHeader:])
	return nil
}

// Cipher implements [domain.Cipher].
type Cipher struct {
	aead   cipher.AEAD
	reader io.Reader
}

// NewCipher derives the key for password and returns a cipher using it.
func NewCipher(password string, p Params, options ...Option) (domain.Cipher, error) {
	key := argon2.IDKey([]byte(password), p.Salt, p.Time, p.Memory, p.Threads, keySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	cfg := newConfig(options)
	return &Cipher{aead: aead, reader: cfg.reader}, nil
}

// Seal implements [domain.Cipher]. The random nonce is prepended to the
// result.
func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(c.reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open implements [domain.Cipher].
func (c *Cipher) Open(sealed []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(sealed) < n+c.aead.Overhead() {
		return nil, ErrCiphertext
	}
	plain, err := c.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCiphertext, err)
	}
	return plain, nil
}

// MetaStore is the part of [domain.Engine] that holds the key derivation
// record and the password verifier.
type MetaStore interface {
	Meta(context.Context, string) ([]byte, error)
	SetMeta(context.Context, string, []byte) error
}

// Protect sets up password protection on an empty database and returns the
// cipher for its documents.
func Protect(ctx context.Context, m MetaStore, password string, options ...Option) (domain.Cipher, error) {
	cfg := newConfig(options)
	p := cfg.params
	p.Salt = make([]byte, saltSize)
	if _, err := io.ReadFull(cfg.reader, p.Salt); err != nil {
		return nil, err
	}

	c, err := NewCipher(password, p, options...)
	if err != nil {
		return nil, err
	}
	verifier, err := c.Seal(verifierText)
	if err != nil {
		return nil, err
	}
	record, _ := p.MarshalBinary()
	if err := m.SetMeta(ctx, MetaKDF, record); err != nil {
		return nil, err
	}
	if err := m.SetMeta(ctx, MetaVerifier, verifier); err != nil {
		return nil, err
	}
	return c, nil
}

// Unlock returns the cipher of a protected database, or nil when the
// database has no password. A wrong or missing password fails with
// [domain.ErrWrongPassword].
func Unlock(ctx context.Context, m MetaStore, password string, options ...Option) (domain.Cipher, error) {
	record, err := m.Meta(ctx, MetaKDF)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	if password == "" {
		return nil, domain.ErrWrongPassword
	}

	var p Params
	if err := p.UnmarshalBinary(record); err != nil {
		return nil, err
	}
	verifier, err := m.Meta(ctx, MetaVerifier)
	if err != nil {
		return nil, err
	}

	c, err := NewCipher(password, p, options...)
	if err != nil {
		return nil, err
	}
	plain, err := c.Open(verifier)
	if err != nil || !bytes.Equal(plain, verifierText) {
		return nil, domain.ErrWrongPassword
	}
	return c, nil
}

// DefaultParams returns the Argon2id cost used for new databases.
func DefaultParams() Params {
	return Params{Time: 1, Memory: 64 * 1024, Threads: 4}
}
