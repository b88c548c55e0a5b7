package projector

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/converter"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

type ProjectorTestSuite struct {
	suite.Suite
	conv domain.Converter
	proj domain.Projector
	docs []*domain.Document
}

func (s *ProjectorTestSuite) SetupTest() {
	s.conv = converter.NewConverter()
	s.proj = NewProjector()
	s.docs = []*domain.Document{
		s.parse(`{"_id": 1, "name": "ana", "age": 30, "address": {"city": "Recife", "zip": "50000"}}`),
		s.parse(`{"_id": 2, "name": "bia", "items": [{"sku": "a", "qty": 1}, {"sku": "b", "qty": 2}, 7]}`),
	}
}

func (s *ProjectorTestSuite) parse(text string) *domain.Document {
	d, err := s.conv.Parse(text)
	s.Require().NoError(err)
	return d
}

func (s *ProjectorTestSuite) project(proj map[string]uint8) []string {
	res, err := s.proj.Project(s.docs, proj)
	s.Require().NoError(err)
	texts := make([]string, len(res))
	for n, doc := range res {
		texts[n], err = s.conv.Marshal(doc, false)
		s.Require().NoError(err)
	}
	return texts
}

func (s *ProjectorTestSuite) TestEmptyProjection() {
	res, err := s.proj.Project(s.docs, nil)
	s.NoError(err)
	s.Equal(s.docs, res)
}

func (s *ProjectorTestSuite) TestKeep() {
	s.Equal([]string{
		`{"_id":1,"name":"ana","age":30}`,
		`{"_id":2,"name":"bia"}`,
	}, s.project(map[string]uint8{"age": 1, "name": 1}))

	s.Equal([]string{
		`{"address":{"city":"Recife"}}`,
		`{}`,
	}, s.project(map[string]uint8{"address.city": 1, "_id": 0}))

	s.Equal([]string{
		`{"_id":1}`,
		`{"_id":2,"items":[{"sku":"a"},{"sku":"b"}]}`,
	}, s.project(map[string]uint8{"items.sku": 1}))

	s.Equal([]string{
		`{"_id":1,"address":{"city":"Recife","zip":"50000"}}`,
		`{"_id":2}`,
	}, s.project(map[string]uint8{"address.city": 1, "address": 1}))
}

func (s *ProjectorTestSuite) TestOmit() {
	s.Equal([]string{
		`{"_id":1,"name":"ana","address":{"zip":"50000"}}`,
		`{"_id":2,"name":"bia","items":[{"sku":"a"},{"sku":"b"},7]}`,
	}, s.project(map[string]uint8{"age": 0, "address.city": 0, "items.qty": 0}))

	s.Equal([]string{
		`{"name":"ana","age":30,"address":{"city":"Recife","zip":"50000"}}`,
		`{"name":"bia","items":[{"sku":"a","qty":1},{"sku":"b","qty":2},7]}`,
	}, s.project(map[string]uint8{"_id": 0}))
}

func (s *ProjectorTestSuite) TestSourceIsKept() {
	s.project(map[string]uint8{"address.city": 0})
	text, err := s.conv.Marshal(s.docs[0], false)
	s.Require().NoError(err)
	s.Contains(text, "Recife")
}

func (s *ProjectorTestSuite) TestErrors() {
	_, err := s.proj.Project(s.docs, map[string]uint8{"name": 1, "age": 0})
	s.ErrorIs(err, ErrMixOmitType)

	_, err = s.proj.Project(s.docs, map[string]uint8{"": 1})
	s.ErrorIs(err, ErrEmptyField)
}

func TestProjectorTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectorTestSuite))
}
