package service

import (
	"context"
	"testing"
	"time"

	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type CertificationServiceTestSuite struct {
	suite.Suite
	ctx   context.Context
	scope model.ScopeID
	repo  repository.ProgressRepository
	svc   CertificationService
	now   time.Time
}

func (s *CertificationServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.scope = model.ScopeID("user:cert")
	repo, locker := newMemoryRepo()
	s.repo = repo
	s.svc = NewCertificationService(repo, locker, testBank(60), testEngineConfig())
	s.now = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
}

func TestCertificationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CertificationServiceTestSuite))
}

// submit は開始と提出をまとめて行います。
func (s *CertificationServiceTestSuite) submit(correct, total int, elapsed time.Duration) (*model.AttemptResult, error) {
	handle, err := s.svc.StartAttempt(s.ctx, s.scope, s.now)
	if err != nil {
		return nil, err
	}
	return s.svc.SubmitAttempt(s.ctx, s.scope, handle.ID, correct, total, elapsed, s.now)
}

func (s *CertificationServiceTestSuite) TestStartAttempt() {
	handle, err := s.svc.StartAttempt(s.ctx, s.scope, s.now)
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, handle.ID)
	s.Equal(50, handle.QuestionCount)
	s.Len(handle.Questions, 50)
	s.True(s.now.Equal(handle.StartedAt))

	status, err := s.svc.GetStatus(s.ctx, s.scope)
	s.Require().NoError(err)
	s.Equal(model.StateInProgress, status.State)
	s.Equal(3, status.AttemptsRemaining, "開始だけでは回数を消費しない")
}

func (s *CertificationServiceTestSuite) TestPassIssuesCertificate() {
	result, err := s.submit(43, 50, 30*time.Minute)
	s.Require().NoError(err)
	s.Equal(86, result.Score)
	s.True(result.Passed)
	s.False(result.TimedOut)
	s.Equal(model.StatePassed, result.State)
	s.Require().NotNil(result.Certificate)
	s.Regexp(`^CSA-[0-9A-Z]+-[0-9A-F]{6}$`, result.Certificate.ID)
	s.True(s.now.Equal(result.Certificate.IssueDate))
	s.True(s.now.AddDate(2, 0, 0).Equal(result.Certificate.ExpiryDate))
	s.Require().NotNil(result.XP)
	s.Equal(500, result.XP.XPGained)

	p, err := s.repo.LoadProgress(s.ctx, s.scope)
	s.Require().NoError(err)
	s.Equal(500, p.XPTotal)

	status, err := s.svc.GetStatus(s.ctx, s.scope)
	s.Require().NoError(err)
	s.True(status.IsCertified)
	s.False(status.CanRetake)
	s.Len(status.Attempts, 1)
}

func (s *CertificationServiceTestSuite) TestAlreadyCertified() {
	_, err := s.submit(50, 50, time.Minute)
	s.Require().NoError(err)

	_, err = s.svc.StartAttempt(s.ctx, s.scope, s.now.Add(time.Hour))
	s.ErrorIs(err, model.ErrAlreadyCertified)

	// 認定証は変わらない
	status, err := s.svc.GetStatus(s.ctx, s.scope)
	s.Require().NoError(err)
	s.Len(status.Attempts, 1)
	s.True(s.now.AddDate(2, 0, 0).Equal(status.Certificate.ExpiryDate))
}

func (s *CertificationServiceTestSuite) TestAttemptCap() {
	for i := 0; i < 3; i++ {
		result, err := s.submit(10, 50, time.Minute)
		s.Require().NoError(err)
		s.False(result.Passed)
		s.Equal(2-i, result.AttemptsRemaining)
	}

	status, err := s.svc.GetStatus(s.ctx, s.scope)
	s.Require().NoError(err)
	s.Equal(model.StateMaxAttemptsReached, status.State)
	s.False(status.CanRetake)
	s.Equal(0, status.AttemptsRemaining)

	_, err = s.svc.StartAttempt(s.ctx, s.scope, s.now)
	s.ErrorIs(err, model.ErrMaxAttemptsExceeded)

	status, err = s.svc.GetStatus(s.ctx, s.scope)
	s.Require().NoError(err)
	s.Len(status.Attempts, 3)
}

func (s *CertificationServiceTestSuite) TestFailThenRetake() {
	result, err := s.submit(39, 50, time.Minute)
	s.Require().NoError(err)
	s.Equal(78, result.Score)
	s.False(result.Passed)
	s.Equal(model.StateFailed, result.State)
	s.Nil(result.Certificate)
	s.Nil(result.XP)

	status, err := s.svc.GetStatus(s.ctx, s.scope)
	s.Require().NoError(err)
	s.True(status.CanRetake)

	result, err = s.submit(40, 50, time.Minute)
	s.Require().NoError(err)
	s.Equal(80, result.Score)
	s.True(result.Passed)
}

func (s *CertificationServiceTestSuite) TestDoubleSubmit() {
	handle, err := s.svc.StartAttempt(s.ctx, s.scope, s.now)
	s.Require().NoError(err)

	_, err = s.svc.SubmitAttempt(s.ctx, s.scope, handle.ID, 10, 50, time.Minute, s.now)
	s.Require().NoError(err)
	_, err = s.svc.SubmitAttempt(s.ctx, s.scope, handle.ID, 50, 50, time.Minute, s.now)
	s.ErrorIs(err, model.ErrAttemptNotActive)

	status, err := s.svc.GetStatus(s.ctx, s.scope)
	s.Require().NoError(err)
	s.Len(status.Attempts, 1)
	s.False(status.IsCertified)
}

func (s *CertificationServiceTestSuite) TestRestartReplacesHandle() {
	first, err := s.svc.StartAttempt(s.ctx, s.scope, s.now)
	s.Require().NoError(err)
	second, err := s.svc.StartAttempt(s.ctx, s.scope, s.now.Add(time.Minute))
	s.Require().NoError(err)

	_, err = s.svc.SubmitAttempt(s.ctx, s.scope, first.ID, 50, 50, time.Minute, s.now)
	s.ErrorIs(err, model.ErrAttemptNotActive)

	result, err := s.svc.SubmitAttempt(s.ctx, s.scope, second.ID, 45, 50, time.Minute, s.now)
	s.Require().NoError(err)
	s.True(result.Passed)
	s.Equal(2, result.AttemptsRemaining)
}

func (s *CertificationServiceTestSuite) TestTimedOut() {
	result, err := s.submit(50, 50, 61*time.Minute)
	s.Require().NoError(err)
	s.True(result.TimedOut)
	s.False(result.Passed)
	s.Nil(result.Certificate)
	s.Equal(2, result.AttemptsRemaining)
}

func (s *CertificationServiceTestSuite) TestSubmitInvalidInput() {
	handle, err := s.svc.StartAttempt(s.ctx, s.scope, s.now)
	s.Require().NoError(err)

	_, err = s.svc.SubmitAttempt(s.ctx, s.scope, handle.ID, 51, 50, time.Minute, s.now)
	s.ErrorIs(err, model.ErrInvalidInput)
	_, err = s.svc.SubmitAttempt(s.ctx, s.scope, handle.ID, 10, 0, time.Minute, s.now)
	s.ErrorIs(err, model.ErrInvalidInput)
	_, err = s.svc.SubmitAttempt(s.ctx, s.scope, handle.ID, 10, 50, -time.Second, s.now)
	s.ErrorIs(err, model.ErrInvalidInput)

	// 不正な提出では受験は消費されない
	result, err := s.svc.SubmitAttempt(s.ctx, s.scope, handle.ID, 10, 50, time.Minute, s.now)
	s.Require().NoError(err)
	s.Equal(20, result.Score)
}

func (s *CertificationServiceTestSuite) TestGetStatus_NotAttempted() {
	status, err := s.svc.GetStatus(s.ctx, s.scope)
	s.Require().NoError(err)
	s.Equal(model.StateNotAttempted, status.State)
	s.True(status.CanRetake)
	s.Equal(3, status.MaxAttempts)
	s.Empty(status.Attempts)
}

func TestPercentScore(t *testing.T) {
	cases := map[[2]int]int{
		{43, 50}: 86,
		{40, 50}: 80,
		{2, 3}:   67,
		{1, 3}:   33,
		{0, 10}:  0,
		{10, 10}: 100,
	}
	for in, want := range cases {
		if got := percentScore(in[0], in[1]); got != want {
			t.Errorf("percentScore(%d, %d) = %d, want %d", in[0], in[1], got, want)
		}
	}
}
