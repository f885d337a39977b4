package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/nwestbury/digitduel/internal/dependencies/mocks"
	"github.com/nwestbury/digitduel/internal/model"
	"github.com/nwestbury/digitduel/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	var err error
	s.service, err = New(Config{
		AdminKey:   "sekrit",
		RateLimit:  3,
		RateWindow: time.Minute,
	}, s.clock, testutil.NopLogger())
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestCorrectKey() {
	s.NoError(s.service.Verify("1.2.3.4", "sekrit"))
}

func (s *ServiceSuite) TestMissingKey() {
	s.ErrorIs(s.service.Verify("1.2.3.4", ""), model.ErrAdminKeyMissing)
}

func (s *ServiceSuite) TestWrongKey() {
	s.ErrorIs(s.service.Verify("1.2.3.4", "nope"), model.ErrAdminKeyWrong)
}

func (s *ServiceSuite) TestRateLimitAfterRepeatedFailures() {
	for i := 0; i < 3; i++ {
		s.ErrorIs(s.service.Verify("1.2.3.4", "nope"), model.ErrAdminKeyWrong)
	}
	// Even a correct key is refused once the window is exhausted
	s.ErrorIs(s.service.Verify("1.2.3.4", "sekrit"), model.ErrRateLimited)

	// Separate caller unaffected
	s.NoError(s.service.Verify("5.6.7.8", "sekrit"))
}

func (s *ServiceSuite) TestRateLimitRecoversAfterWindow() {
	for i := 0; i < 4; i++ {
		_ = s.service.Verify("1.2.3.4", "nope")
	}
	s.ErrorIs(s.service.Verify("1.2.3.4", "sekrit"), model.ErrRateLimited)

	s.clock.Advance(time.Minute)
	s.NoError(s.service.Verify("1.2.3.4", "sekrit"))
}
