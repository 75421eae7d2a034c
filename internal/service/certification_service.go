// internal/service/certification_service.go
package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go_cyber_aware/internal/config"
	"go_cyber_aware/internal/middleware"
	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/repository"

	"github.com/google/uuid"
)

const certificateIDPrefix = "CSA"

type CertificationService interface {
	StartAttempt(ctx context.Context, scope model.ScopeID, now time.Time) (*model.AttemptHandle, error)
	SubmitAttempt(ctx context.Context, scope model.ScopeID, handleID uuid.UUID, correct, total int, elapsed time.Duration, now time.Time) (*model.AttemptResult, error)
	GetStatus(ctx context.Context, scope model.ScopeID) (*model.CertificationStatus, error)
}

type certificationService struct {
	unit stateUnit
	bank []model.Question
	exam config.ExamConfig
}

func NewCertificationService(repo repository.ProgressRepository, locker repository.ScopeLocker, bank []model.Question, cfg config.EngineConfig) CertificationService {
	return &certificationService{
		unit: stateUnit{repo: repo, locker: locker},
		bank: bank,
		exam: cfg.Exam,
	}
}

func (s *certificationService) StartAttempt(ctx context.Context, scope model.ScopeID, now time.Time) (*model.AttemptHandle, error) {
	logger := middleware.GetLogger(ctx).With("scope", scope.String())

	var handle model.AttemptHandle
	err := s.unit.update(ctx, scope, true, func(st *scopeState) error {
		r := st.record
		if r.Certificate != nil {
			return model.ErrAlreadyCertified
		}
		if len(r.Attempts) >= s.exam.MaxAttempts {
			return model.ErrMaxAttemptsExceeded
		}
		if r.ActiveAttempt != nil {
			logger.Info("Replacing unsubmitted attempt", "attempt_id", r.ActiveAttempt.ID)
		}

		count := s.exam.QuestionCount
		if count > len(s.bank) {
			count = len(s.bank)
		}
		handle = model.AttemptHandle{
			ID:            uuid.New(),
			StartedAt:     now,
			QuestionCount: count,
		}
		active := handle
		r.ActiveAttempt = &active
		st.markRecord()
		return nil
	})
	if err != nil {
		logger.Warn("Failed to start certification attempt", "error", err)
		return nil, err
	}

	handle.Questions = randomSample(s.bank, handle.QuestionCount)
	logger.Info("Certification attempt started", "attempt_id", handle.ID, "question_count", handle.QuestionCount)
	return &handle, nil
}

func (s *certificationService) SubmitAttempt(ctx context.Context, scope model.ScopeID, handleID uuid.UUID, correct, total int, elapsed time.Duration, now time.Time) (*model.AttemptResult, error) {
	logger := middleware.GetLogger(ctx).With("scope", scope.String(), "attempt_id", handleID)
	if err := model.ValidateScore(correct, total); err != nil {
		return nil, err
	}
	if elapsed < 0 {
		return nil, fmt.Errorf("%w: elapsed time must not be negative", model.ErrInvalidInput)
	}

	var result *model.AttemptResult
	err := s.unit.update(ctx, scope, true, func(st *scopeState) error {
		r := st.record
		if r.ActiveAttempt == nil || r.ActiveAttempt.ID != handleID {
			return model.ErrAttemptNotActive
		}
		if r.Certificate != nil {
			return model.ErrAlreadyCertified
		}
		if len(r.Attempts) >= s.exam.MaxAttempts {
			return model.ErrMaxAttemptsExceeded
		}

		score := percentScore(correct, total)
		timedOut := s.exam.TimeLimit > 0 && elapsed > s.exam.TimeLimit
		attempt := model.Attempt{
			Timestamp: now,
			Score:     score,
			Passed:    !timedOut && score >= s.exam.PassingScore,
			TimedOut:  timedOut,
		}
		r.Attempts = append(r.Attempts, attempt)
		r.ActiveAttempt = nil
		st.markRecord()

		result = &model.AttemptResult{
			Attempt:  attempt,
			Score:    score,
			Passed:   attempt.Passed,
			TimedOut: timedOut,
		}
		if attempt.Passed {
			r.Certificate = s.issueCertificate(score, now)
			result.Certificate = r.Certificate
			if s.exam.PassBonusXP > 0 {
				result.XP = applyXP(st.progress, s.exam.PassBonusXP)
				st.markProgress()
			}
		}
		result.State = r.State(s.exam.MaxAttempts)
		result.AttemptsRemaining = r.AttemptsRemaining(s.exam.MaxAttempts)
		return nil
	})
	if err != nil {
		logger.Warn("Failed to submit certification attempt", "error", err)
		return nil, err
	}

	logger.Info("Certification attempt submitted",
		"score", result.Score,
		"passed", result.Passed,
		"timed_out", result.TimedOut,
		"attempts_remaining", result.AttemptsRemaining,
	)
	return result, nil
}

func (s *certificationService) GetStatus(ctx context.Context, scope model.ScopeID) (*model.CertificationStatus, error) {
	r, err := s.unit.repo.LoadCertification(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &model.CertificationStatus{
		State:             r.State(s.exam.MaxAttempts),
		IsCertified:       r.Certificate != nil,
		Certificate:       r.Certificate,
		Attempts:          r.Attempts,
		CanRetake:         r.Certificate == nil && len(r.Attempts) < s.exam.MaxAttempts,
		AttemptsRemaining: r.AttemptsRemaining(s.exam.MaxAttempts),
		MaxAttempts:       s.exam.MaxAttempts,
	}, nil
}

// issueCertificate は認定証を発行します。有効期限は発行時に確定します。
func (s *certificationService) issueCertificate(score int, now time.Time) *model.Certificate {
	return &model.Certificate{
		ID:         certificateID(now),
		Score:      score,
		IssueDate:  now,
		ExpiryDate: now.AddDate(s.exam.ValidityYears, 0, 0),
	}
}

// certificateID は CSA-<base36のミリ秒>-<ランダム6文字> 形式の ID を返します。
func certificateID(now time.Time) string {
	stamp := strconv.FormatInt(now.UnixMilli(), 36)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return strings.ToUpper(certificateIDPrefix + "-" + stamp + "-" + random)
}

// percentScore は正答率を 0〜100 の整数に丸めます。
func percentScore(correct, total int) int {
	return int(math.Round(float64(correct) / float64(total) * 100))
}
