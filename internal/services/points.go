package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sawtna-yabni/community-backend/internal/models"
	"github.com/sawtna-yabni/community-backend/internal/storage"
)

// ActionKind identifies a points-earning action
type ActionKind string

const (
	ActionReadArticle   ActionKind = "read_article"
	ActionCompleteGame  ActionKind = "complete_game"
	ActionVotePoll      ActionKind = "vote_poll"
	ActionAttendSession ActionKind = "attend_session"
	ActionPassSurvey    ActionKind = "pass_survey"
)

// Default reward per action kind, used when the admin configured nothing
var defaultRewards = map[ActionKind]int{
	ActionReadArticle:   5,
	ActionCompleteGame:  15,
	ActionVotePoll:      5,
	ActionAttendSession: 20,
	ActionPassSurvey:    10,
}

// SurveyPassThreshold is the minimum percentage that earns the survey reward
const SurveyPassThreshold = 70

// RewardAmount returns the admin-configured reward when it is set (> 0),
// otherwise the fixed default for the action kind.
func RewardAmount(kind ActionKind, configured int) int {
	if configured > 0 {
		return configured
	}
	return defaultRewards[kind]
}

// SurveyScoreResult is the outcome of scoring a survey submission
type SurveyScoreResult struct {
	CorrectAnswers int  `json:"correct_answers"`
	TotalQuestions int  `json:"total_questions"`
	Percentage     int  `json:"percentage"`
	Passed         bool `json:"passed"`
	Points         int  `json:"points"`
}

// SurveyScore computes whether the submission passed and the points
// earned. The pass check runs on the exact ratio; the percentage is
// rounded to the nearest integer for display only, so a 69.6% score
// shows 70 but does not pass. A zero-question survey scores 0 and
// never passes.
func SurveyScore(correct, total int) SurveyScoreResult {
	if total == 0 {
		return SurveyScoreResult{}
	}
	percentage := int(math.Round(float64(correct) / float64(total) * 100))
	passed := correct*100 >= SurveyPassThreshold*total
	points := 0
	if passed {
		points = defaultRewards[ActionPassSurvey]
	}
	return SurveyScoreResult{
		CorrectAnswers: correct,
		TotalQuestions: total,
		Percentage:     percentage,
		Passed:         passed,
		Points:         points,
	}
}

// PointsService awards points for completed actions and answers
// leaderboard queries. Idempotency rests on the storage layer's unique
// constraints, not on the pre-checks here: those exist only to return a
// friendly error without paying for a failed insert.
type PointsService struct {
	store storage.Store
}

// NewPointsService creates a new points service
func NewPointsService(store storage.Store) *PointsService {
	return &PointsService{store: store}
}

// AwardArticleRead credits the user for reading an article, once
func (s *PointsService) AwardArticleRead(userID, articleID string) (int, error) {
	if _, err := s.store.GetArticle(articleID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, ErrTargetNotFound
		}
		return 0, fmt.Errorf("failed to load article: %w", err)
	}

	if _, err := s.store.GetArticleRead(userID, articleID); err == nil {
		return 0, ErrAlreadyCompleted
	}

	points := RewardAmount(ActionReadArticle, 0)
	read := &models.ArticleRead{
		UserID:       userID,
		ArticleID:    articleID,
		PointsEarned: points,
	}
	if err := s.store.AwardArticleRead(read); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return 0, ErrAlreadyCompleted
		}
		return 0, fmt.Errorf("failed to award article read: %w", err)
	}
	return points, nil
}

// AwardGameCompletion credits the user for completing a game, once
func (s *PointsService) AwardGameCompletion(userID, gameID string) (int, error) {
	game, err := s.store.GetGame(gameID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, ErrTargetNotFound
		}
		return 0, fmt.Errorf("failed to load game: %w", err)
	}

	if _, err := s.store.GetUserGame(userID, gameID); err == nil {
		return 0, ErrAlreadyCompleted
	}

	points := RewardAmount(ActionCompleteGame, game.PointsReward)
	now := time.Now()
	record := &models.UserGame{
		UserID:       userID,
		GameID:       gameID,
		Completed:    true,
		PointsEarned: points,
		CompletedAt:  &now,
	}
	if err := s.store.AwardGameCompletion(record); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return 0, ErrAlreadyCompleted
		}
		return 0, fmt.Errorf("failed to award game completion: %w", err)
	}
	return points, nil
}

// AwardPollVote records the user's vote and credits the reward, once
func (s *PointsService) AwardPollVote(userID, pollID, optionID string) (int, error) {
	poll, err := s.store.GetPoll(pollID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, ErrTargetNotFound
		}
		return 0, fmt.Errorf("failed to load poll: %w", err)
	}

	if !pollHasOption(poll.Options, optionID) {
		return 0, ErrTargetNotFound
	}

	if _, err := s.store.GetPollVote(pollID, userID); err == nil {
		return 0, ErrAlreadyCompleted
	}

	points := RewardAmount(ActionVotePoll, poll.PointsReward)
	vote := &models.PollVote{
		PollID:       pollID,
		UserID:       userID,
		OptionID:     optionID,
		PointsEarned: points,
	}
	if err := s.store.AwardPollVote(vote); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return 0, ErrAlreadyCompleted
		}
		return 0, fmt.Errorf("failed to award poll vote: %w", err)
	}
	return points, nil
}

func pollHasOption(options []models.PollOption, optionID string) bool {
	for _, option := range options {
		if option.ID == optionID {
			return true
		}
	}
	return false
}

// AwardSessionPollVote records a vote in a live session poll, once
func (s *PointsService) AwardSessionPollVote(userID, pollID, optionID string) (int, error) {
	poll, err := s.store.GetSessionPoll(pollID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, ErrTargetNotFound
		}
		return 0, fmt.Errorf("failed to load session poll: %w", err)
	}

	validOption := false
	for _, option := range poll.Options {
		if option.ID == optionID {
			validOption = true
			break
		}
	}
	if !validOption {
		return 0, ErrTargetNotFound
	}

	if _, err := s.store.GetSessionPollVote(pollID, userID); err == nil {
		return 0, ErrAlreadyCompleted
	}

	points := RewardAmount(ActionVotePoll, 0)
	vote := &models.SessionPollVote{
		PollID:       pollID,
		UserID:       userID,
		OptionID:     optionID,
		PointsEarned: points,
	}
	if err := s.store.AwardSessionPollVote(vote); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return 0, ErrAlreadyCompleted
		}
		return 0, fmt.Errorf("failed to award session poll vote: %w", err)
	}
	return points, nil
}

// RegisterForSession signs a user up for a session without crediting
// points; attendance points come later via MarkAttendance.
func (s *PointsService) RegisterForSession(userID, sessionID string) error {
	if _, err := s.store.GetSession(sessionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTargetNotFound
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	att := &models.SessionAttendance{
		SessionID: sessionID,
		UserID:    userID,
		Attended:  false,
	}
	if err := s.store.CreateAttendance(att); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return ErrAlreadyCompleted
		}
		return fmt.Errorf("failed to register for session: %w", err)
	}
	return nil
}

// MarkAttendance credits the user for attending a session, once. A prior
// registration row flips to attended in place; otherwise a fresh attended
// row is inserted.
func (s *PointsService) MarkAttendance(userID, sessionID string) (int, error) {
	session, err := s.store.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, ErrTargetNotFound
		}
		return 0, fmt.Errorf("failed to load session: %w", err)
	}

	points := RewardAmount(ActionAttendSession, session.PointsReward)

	existing, err := s.store.GetAttendance(sessionID, userID)
	if err == nil {
		if existing.Attended {
			return 0, ErrAlreadyCompleted
		}
		update := &models.SessionAttendance{
			ID:           existing.ID,
			SessionID:    sessionID,
			UserID:       userID,
			PointsEarned: points,
		}
		if err := s.store.MarkAttended(update); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return 0, ErrAlreadyCompleted
			}
			return 0, fmt.Errorf("failed to mark attendance: %w", err)
		}
		return points, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("failed to check attendance: %w", err)
	}

	att := &models.SessionAttendance{
		SessionID:    sessionID,
		UserID:       userID,
		Attended:     true,
		PointsEarned: points,
	}
	if err := s.store.AwardAttendance(att); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return 0, ErrAlreadyCompleted
		}
		return 0, fmt.Errorf("failed to award attendance: %w", err)
	}
	return points, nil
}

// AnswerSubmission is one answer in a survey submission
type AnswerSubmission struct {
	QuestionID string `json:"question_id" validate:"required"`
	OptionID   string `json:"option_id" validate:"required"`
}

// SubmitSurvey scores a survey submission, records the answers, and
// credits the pass reward when the score clears the threshold. A user
// can submit each survey only once.
func (s *PointsService) SubmitSurvey(userID, surveyID string, submissions []AnswerSubmission) (*SurveyScoreResult, error) {
	survey, err := s.store.GetSurvey(surveyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}

	previous, err := s.store.GetUserAnswers(userID, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check previous answers: %w", err)
	}
	if len(previous) > 0 {
		return nil, ErrAlreadyCompleted
	}

	questionIDs := make(map[string]bool, len(survey.Questions))
	for _, question := range survey.Questions {
		questionIDs[question.ID] = true
	}

	correct := 0
	answers := make([]*models.UserAnswer, 0, len(submissions))
	for _, submission := range submissions {
		if !questionIDs[submission.QuestionID] {
			continue
		}
		option, err := s.store.GetOption(submission.OptionID)
		if err != nil || option.QuestionID != submission.QuestionID {
			continue
		}
		answers = append(answers, &models.UserAnswer{
			UserID:     userID,
			QuestionID: submission.QuestionID,
			OptionID:   submission.OptionID,
			IsCorrect:  option.IsCorrect,
		})
		if option.IsCorrect {
			correct++
		}
	}

	result := SurveyScore(correct, len(survey.Questions))
	if err := s.store.AwardSurvey(userID, answers, result.Points); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrAlreadyCompleted
		}
		return nil, fmt.Errorf("failed to record survey submission: %w", err)
	}
	return &result, nil
}

// LeaderboardEntry is one row of the public leaderboard
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Points      int       `json:"points"`
	MemberSince time.Time `json:"member_since"`
}

// Leaderboard returns the top users by points. Rank is the 1-based
// position in the ordering (points DESC, signup time ASC, id ASC), so
// tied users occupy distinct sequential ranks.
func (s *PointsService) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	users, err := s.store.GetTopUsers(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, user := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:        i + 1,
			UserID:      user.ID,
			Name:        user.Name,
			Points:      user.Points,
			MemberSince: user.CreatedAt,
		})
	}
	return entries, nil
}

// UserRankResult is a single user's standing
type UserRankResult struct {
	Rank   int    `json:"rank"`
	Points int    `json:"points"`
	Name   string `json:"name"`
}

// UserRank returns 1 + the number of users with strictly more points.
// Tied users share a rank here, which differs from Leaderboard's
// sequential numbering; both behaviors are kept deliberately.
func (s *PointsService) UserRank(userID string) (*UserRankResult, error) {
	user, err := s.store.GetUser(userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	higher, err := s.store.CountUsersWithMorePoints(user.Points)
	if err != nil {
		return nil, fmt.Errorf("failed to compute rank: %w", err)
	}
	return &UserRankResult{
		Rank:   int(higher) + 1,
		Points: user.Points,
		Name:   user.Name,
	}, nil
}
