package timegetter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type TimeGetterTestSuite struct {
	suite.Suite
}

func (s *TimeGetterTestSuite) TestGetTime() {
	before := time.Now()
	result := NewTimeGetter().GetTime()
	after := time.Now()

	s.False(result.Before(before))
	s.False(result.After(after))
}

func (s *TimeGetterTestSuite) TestFixed() {
	t := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	tg := NewFixedTimeGetter(t)
	s.Equal(t, tg.GetTime())
	time.Sleep(time.Millisecond)
	s.Equal(t, tg.GetTime())
}

func TestTimeGetterTestSuite(t *testing.T) {
	suite.Run(t, new(TimeGetterTestSuite))
}
