package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/models"
	apperrors "github.com/akrammlh02/elearning-backend/pkg/errors"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmissionResult struct {
	IsCorrect                  bool     `json:"isCorrect"`
	Feedback                   string   `json:"feedback"`
	Problems                   []string `json:"problems,omitempty"`
	Stdout                     string   `json:"stdout,omitempty"`
	AttemptsCount              int      `json:"attemptsCount"`
	NextLessonID               *string  `json:"nextLessonId,omitempty"`
	NextLessonMembershipLocked *bool    `json:"nextLessonMembershipLocked,omitempty"`
	CertificateIssued          bool     `json:"certificateIssued"`
}

// Grader runs the submission pipeline for interactive lessons. A nil Oracle
// sends every submission to the local validators.
type Grader struct {
	Oracle Oracle
}

func NewGrader(oracle Oracle) *Grader {
	return &Grader{Oracle: oracle}
}

// Submit grades code for an interactive lesson, records the attempt and, on a
// correct answer, runs MarkComplete. Oracle failures never surface here: the
// lesson's validation type decides instead.
func (g *Grader) Submit(ctx context.Context, db *gorm.DB, learner *Learner, lessonID, pathID, code string) (SubmissionResult, error) {
	var result SubmissionResult
	if learner == nil {
		return result, apperrors.Unauthorized("Login required to submit code")
	}
	if strings.TrimSpace(code) == "" {
		return result, apperrors.BadRequest("Code is required")
	}

	var lesson models.Lesson
	if err := db.WithContext(ctx).First(&lesson, "id = ?", lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, apperrors.NotFound("Lesson not found")
		}
		return result, fmt.Errorf("load lesson: %w", err)
	}
	if !lesson.IsInteractive() {
		return result, apperrors.BadRequest("This lesson has no coding challenge")
	}

	verdict := g.grade(ctx, lesson, code)

	count, err := recordAttempt(ctx, db, learner.ID, lesson.ID, code, verdict)
	if err != nil {
		return result, err
	}

	result.IsCorrect = verdict.IsCorrect
	result.Feedback = verdict.Feedback
	result.Problems = verdict.Problems
	result.Stdout = verdict.Stdout
	result.AttemptsCount = count

	if !verdict.IsCorrect {
		return result, nil
	}

	completion, err := MarkComplete(ctx, db, learner, lesson.ID, pathID)
	if err != nil {
		return result, err
	}
	result.CertificateIssued = completion.CertificateIssued
	if completion.NextLesson != nil {
		id := completion.NextLesson.ID
		locked := completion.NextLessonMembershipLocked
		result.NextLessonID = &id
		result.NextLessonMembershipLocked = &locked
	}
	return result, nil
}

func (g *Grader) grade(ctx context.Context, lesson models.Lesson, code string) Verdict {
	if g.Oracle == nil {
		return FallbackVerdict(lesson, code)
	}

	req := GradeRequest{
		ProgrammingLanguage: lesson.ProgrammingLanguage,
		ChallengeText:       lesson.ChallengeEn,
		SubmittedCode:       code,
		ReferenceSolution:   lesson.ReferenceSolution,
		ExpectedOutput:      lesson.ExpectedOutput,
	}
	if lesson.ChallengeEn == "" {
		req.ChallengeText = lesson.ChallengeAr
	}
	if len(lesson.TestCases) > 0 && json.Valid(lesson.TestCases) {
		req.TestCases = json.RawMessage(lesson.TestCases)
	}

	v, err := g.Oracle.Grade(ctx, req)
	if err != nil {
		logger.Warn().Err(err).
			Str("lesson_id", lesson.ID).
			Str("validation_type", string(lesson.ValidationType)).
			Msg("Grading oracle failed, using local validator")
		return FallbackVerdict(lesson, code)
	}
	return v
}

const (
	feedbackCorrect   = "Well done! Your solution is correct."
	feedbackIncorrect = "Not quite yet. Compare your code with the challenge and try again."
	feedbackNoKey     = "This challenge cannot be checked automatically right now. Please try again later."
)

// FallbackVerdict is the deterministic local check used when the oracle is
// unavailable. It always returns a verdict.
func FallbackVerdict(lesson models.Lesson, code string) Verdict {
	vt := lesson.ValidationType
	if vt == "" {
		vt = models.ValidationContains
	}
	v := Verdict{GradedBy: "fallback:" + string(vt)}

	var target string
	if vt == models.ValidationExactMatch {
		target = lesson.ReferenceSolution
	} else {
		target = lesson.ExpectedOutput
	}
	if strings.TrimSpace(target) == "" {
		v.Feedback = feedbackNoKey
		return v
	}

	switch vt {
	case models.ValidationExactMatch:
		v.IsCorrect = normalizeWhitespace(code) == normalizeWhitespace(target)
	case models.ValidationOutputMatch:
		v.IsCorrect = strings.Contains(code, target)
	case models.ValidationRegexMatch:
		re, err := regexp.Compile(target)
		if err != nil {
			logger.Warn().Err(err).Str("lesson_id", lesson.ID).Msg("Invalid validation pattern")
		} else {
			v.IsCorrect = re.MatchString(code)
		}
	default:
		v.IsCorrect = strings.Contains(code, target)
	}

	if v.IsCorrect {
		v.Feedback = feedbackCorrect
	} else {
		v.Feedback = feedbackIncorrect
	}
	return v
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// recordAttempt upserts the (client, lesson) attempt row, incrementing the
// counter on every call, and returns the new count.
func recordAttempt(ctx context.Context, db *gorm.DB, clientID, lessonID, code string, v Verdict) (int, error) {
	now := time.Now()
	attempt := models.CodeAttempt{
		ClientID:      clientID,
		LessonID:      lessonID,
		AttemptsCount: 1,
		LastCode:      code,
		LastCorrect:   v.IsCorrect,
		LastFeedback:  v.Feedback,
		GradedBy:      v.GradedBy,
	}
	updates := map[string]interface{}{
		"attempts_count": gorm.Expr("code_attempts.attempts_count + 1"),
		"last_code":      code,
		"last_correct":   v.IsCorrect,
		"last_feedback":  v.Feedback,
		"graded_by":      v.GradedBy,
		"updated_at":     now,
	}
	if v.IsCorrect {
		attempt.SolvedAt = &now
		updates["solved_at"] = gorm.Expr("COALESCE(code_attempts.solved_at, ?)", now)
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&attempt).Error
	if err != nil {
		return 0, fmt.Errorf("record attempt: %w", err)
	}

	var saved models.CodeAttempt
	if err := db.WithContext(ctx).
		Where("client_id = ? AND lesson_id = ?", clientID, lessonID).
		First(&saved).Error; err != nil {
		return 0, fmt.Errorf("reload attempt: %w", err)
	}
	return saved.AttemptsCount, nil
}
