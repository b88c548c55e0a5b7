package cipher

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

type metaMap map[string][]byte

func (m metaMap) Meta(_ context.Context, k string) ([]byte, error) {
	return m[k], nil
}

func (m metaMap) SetMeta(_ context.Context, k string, v []byte) error {
	m[k] = v
	return nil
}

type failingMeta struct{}

func (failingMeta) Meta(context.Context, string) ([]byte, error) {
	return nil, errors.New("meta failed")
}

func (failingMeta) SetMeta(context.Context, string, []byte) error {
	return errors.New("meta failed")
}

type CipherTestSuite struct {
	suite.Suite
	ctx  context.Context
	cost Option
}

func (s *CipherTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.cost = WithParams(Params{Time: 1, Memory: 64, Threads: 1})
}

func (s *CipherTestSuite) TestSealOpen() {
	m := metaMap{}
	c, err := Protect(s.ctx, m, "secret", s.cost)
	s.Require().NoError(err)

	sealed, err := c.Seal([]byte("document"))
	s.NoError(err)
	s.NotContains(string(sealed), "document")

	plain, err := c.Open(sealed)
	s.NoError(err)
	s.Equal([]byte("document"), plain)

	// nonces are random
	again, err := c.Seal([]byte("document"))
	s.NoError(err)
	s.NotEqual(sealed, again)

	sealed[len(sealed)-1] ^= 1
	_, err = c.Open(sealed)
	s.ErrorIs(err, ErrCiphertext)

	_, err = c.Open([]byte("short"))
	s.ErrorIs(err, ErrCiphertext)
}

func (s *CipherTestSuite) TestUnlock() {
	m := metaMap{}
	c, err := Protect(s.ctx, m, "secret", s.cost)
	s.Require().NoError(err)
	s.Contains(m, MetaKDF)
	s.Contains(m, MetaVerifier)

	sealed, err := c.Seal([]byte("document"))
	s.Require().NoError(err)

	unlocked, err := Unlock(s.ctx, m, "secret")
	s.Require().NoError(err)
	plain, err := unlocked.Open(sealed)
	s.NoError(err)
	s.Equal([]byte("document"), plain)

	_, err = Unlock(s.ctx, m, "wrong")
	s.ErrorIs(err, domain.ErrWrongPassword)

	_, err = Unlock(s.ctx, m, "")
	s.ErrorIs(err, domain.ErrWrongPassword)
}

func (s *CipherTestSuite) TestUnlockUnprotected() {
	c, err := Unlock(s.ctx, metaMap{}, "anything")
	s.NoError(err)
	s.Nil(c)
}

func (s *CipherTestSuite) TestMetaErrors() {
	_, err := Protect(s.ctx, failingMeta{}, "secret", s.cost)
	s.EqualError(err, "meta failed")

	_, err = Unlock(s.ctx, failingMeta{}, "secret")
	s.EqualError(err, "meta failed")

	_, err = Unlock(s.ctx, metaMap{MetaKDF: []byte{1, 2}}, "secret")
	s.Error(err)
}

func (s *CipherTestSuite) TestParams() {
	p := Params{Time: 3, Memory: 1024, Threads: 2, Salt: bytes.Repeat([]byte{7}, saltSize)}
	b, err := p.MarshalBinary()
	s.NoError(err)

	var got Params
	s.NoError(got.UnmarshalBinary(b))
	s.Equal(p, got)
}

func (s *CipherTestSuite) TestReaderError() {
	_, err := Protect(s.ctx, metaMap{}, "secret", s.cost, WithReader(bytes.NewReader(nil)))
	s.Error(err)
}

func TestCipherTestSuite(t *testing.T) {
	suite.Run(t, new(CipherTestSuite))
}
