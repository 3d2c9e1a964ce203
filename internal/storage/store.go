package storage

import (
	"errors"

	"github.com/sawtna-yabni/community-backend/internal/models"
)

// Sentinel errors returned by every Store implementation. Services match on
// these instead of driver-specific error values.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Store defines the interface for storage operations
type Store interface {
	// User operations
	CreateUser(user *models.User) (*models.User, error)
	GetUser(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByPhone(phone string) (*models.User, error)
	GetAllUsers() ([]*models.User, error)
	UpdateUser(user *models.User) error
	DeleteUser(id string) error

	// Leaderboard queries
	GetTopUsers(limit int) ([]*models.User, error)
	CountUsersWithMorePoints(points int) (int64, error)

	// OTP operations
	CreateOTP(otp *models.OTP) (*models.OTP, error)
	GetLatestOTP(phone string) (*models.OTP, error)
	GetActiveOTP(phone string) (*models.OTP, error)
	UpdateOTP(otp *models.OTP) error
	DeleteOTP(id string) error
	DeleteUnverifiedOTPs(phone string) error
	DeleteExpiredOTPs() error

	// Category operations
	CreateCategory(category *models.Category) (*models.Category, error)
	GetCategory(id string) (*models.Category, error)
	GetAllCategories() ([]*models.Category, error)
	UpdateCategory(category *models.Category) error
	DeleteCategory(id string) error

	// Article operations
	CreateArticle(article *models.Article) (*models.Article, error)
	GetArticle(id string) (*models.Article, error)
	GetAllArticles(categoryID string) ([]*models.Article, error)
	UpdateArticle(article *models.Article) error
	DeleteArticle(id string) error
	GetArticleRead(userID, articleID string) (*models.ArticleRead, error)

	// Survey operations
	CreateSurvey(survey *models.Survey) (*models.Survey, error)
	GetSurvey(id string) (*models.Survey, error)
	GetSurveyByArticle(articleID string) (*models.Survey, error)
	DeleteSurvey(id string) error
	GetOption(id string) (*models.Option, error)
	GetUserAnswers(userID, surveyID string) ([]*models.UserAnswer, error)

	// Game operations
	CreateGame(game *models.Game) (*models.Game, error)
	GetGame(id string) (*models.Game, error)
	GetAllGames() ([]*models.Game, error)
	UpdateGame(game *models.Game) error
	DeleteGame(id string) error
	GetUserGame(userID, gameID string) (*models.UserGame, error)
	GetUserGames(userID string) ([]*models.UserGame, error)

	// Poll operations
	CreatePoll(poll *models.Poll) (*models.Poll, error)
	GetPoll(id string) (*models.Poll, error)
	GetAllPolls() ([]*models.Poll, error)
	UpdatePoll(poll *models.Poll) error
	DeletePoll(id string) error
	GetPollVote(pollID, userID string) (*models.PollVote, error)
	GetPollVotes(pollID string) ([]*models.PollVote, error)
	CountPollVotes(pollID string) (int64, error)

	// Discussion session operations
	CreateSession(session *models.DiscussionSession) (*models.DiscussionSession, error)
	GetSession(id string) (*models.DiscussionSession, error)
	GetAllSessions() ([]*models.DiscussionSession, error)
	UpdateSession(session *models.DiscussionSession) error
	DeleteSession(id string) error
	GetAttendance(sessionID, userID string) (*models.SessionAttendance, error)
	GetSessionAttendees(sessionID string) ([]*models.SessionAttendance, error)
	CreateAttendance(att *models.SessionAttendance) error

	// Session poll operations
	CreateSessionPoll(poll *models.SessionPoll) (*models.SessionPoll, error)
	GetSessionPoll(id string) (*models.SessionPoll, error)
	GetSessionPolls(sessionID string) ([]*models.SessionPoll, error)
	UpdateSessionPoll(poll *models.SessionPoll) error
	GetSessionPollVote(pollID, userID string) (*models.SessionPollVote, error)
	GetSessionPollVotes(pollID string) ([]*models.SessionPollVote, error)

	// Award operations. Each runs as a single transaction: insert the
	// completion record AND credit the user's balance by the record's
	// PointsEarned. The composite unique index on the record table is the
	// authoritative double-credit guard; ErrDuplicate signals a violation.
	AwardArticleRead(read *models.ArticleRead) error
	AwardGameCompletion(game *models.UserGame) error
	AwardPollVote(vote *models.PollVote) error
	AwardSessionPollVote(vote *models.SessionPollVote) error
	AwardAttendance(att *models.SessionAttendance) error
	MarkAttended(att *models.SessionAttendance) error
	AwardSurvey(userID string, answers []*models.UserAnswer, points int) error
}
