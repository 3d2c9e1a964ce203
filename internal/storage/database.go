package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sawtna-yabni/community-backend/internal/models"
)

// DatabaseStore implements Store on top of PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// translateErr maps GORM errors to the store sentinels. Requires the
// connection to be opened with TranslateError so unique-constraint
// violations surface as gorm.ErrDuplicatedKey.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// deleteByID removes one row and reports ErrNotFound when nothing matched,
// since GORM treats a zero-row delete as success
func (d *DatabaseStore) deleteByID(model interface{}, id string) error {
	res := d.db.Delete(model, "id = ?", id)
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== User operations ====================

func (d *DatabaseStore) CreateUser(user *models.User) (*models.User, error) {
	if err := d.db.Create(user).Error; err != nil {
		return nil, translateErr(err)
	}
	return user, nil
}

func (d *DatabaseStore) GetUser(id string) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (d *DatabaseStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, "email = ?", email).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (d *DatabaseStore) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, "phone_number = ?", phone).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (d *DatabaseStore) GetAllUsers() ([]*models.User, error) {
	var users []*models.User
	if err := d.db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, translateErr(err)
	}
	return users, nil
}

func (d *DatabaseStore) UpdateUser(user *models.User) error {
	return translateErr(d.db.Save(user).Error)
}

func (d *DatabaseStore) DeleteUser(id string) error {
	return d.deleteByID(&models.User{}, id)
}

// ==================== Leaderboard queries ====================

// GetTopUsers orders by points descending; ties break on signup time then
// id so the ordering stays deterministic.
func (d *DatabaseStore) GetTopUsers(limit int) ([]*models.User, error) {
	var users []*models.User
	err := d.db.Order("points DESC, created_at ASC, id ASC").Limit(limit).Find(&users).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return users, nil
}

func (d *DatabaseStore) CountUsersWithMorePoints(points int) (int64, error) {
	var count int64
	err := d.db.Model(&models.User{}).Where("points > ?", points).Count(&count).Error
	return count, translateErr(err)
}

// ==================== OTP operations ====================

func (d *DatabaseStore) CreateOTP(otp *models.OTP) (*models.OTP, error) {
	if err := d.db.Create(otp).Error; err != nil {
		return nil, translateErr(err)
	}
	return otp, nil
}

// GetLatestOTP returns the most recent challenge for a number in any state
func (d *DatabaseStore) GetLatestOTP(phone string) (*models.OTP, error) {
	var otp models.OTP
	err := d.db.Where("phone_number = ?", phone).Order("created_at DESC").First(&otp).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &otp, nil
}

// GetActiveOTP returns the most recent unverified challenge for a number
func (d *DatabaseStore) GetActiveOTP(phone string) (*models.OTP, error) {
	var otp models.OTP
	err := d.db.Where("phone_number = ? AND verified = false", phone).
		Order("created_at DESC").First(&otp).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &otp, nil
}

func (d *DatabaseStore) UpdateOTP(otp *models.OTP) error {
	return translateErr(d.db.Save(otp).Error)
}

func (d *DatabaseStore) DeleteOTP(id string) error {
	return d.deleteByID(&models.OTP{}, id)
}

func (d *DatabaseStore) DeleteUnverifiedOTPs(phone string) error {
	return translateErr(d.db.Where("phone_number = ? AND verified = false", phone).
		Delete(&models.OTP{}).Error)
}

func (d *DatabaseStore) DeleteExpiredOTPs() error {
	return translateErr(d.db.Where("expires_at < ?", time.Now()).Delete(&models.OTP{}).Error)
}

// ==================== Category operations ====================

func (d *DatabaseStore) CreateCategory(category *models.Category) (*models.Category, error) {
	if err := d.db.Create(category).Error; err != nil {
		return nil, translateErr(err)
	}
	return category, nil
}

func (d *DatabaseStore) GetCategory(id string) (*models.Category, error) {
	var category models.Category
	if err := d.db.First(&category, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &category, nil
}

func (d *DatabaseStore) GetAllCategories() ([]*models.Category, error) {
	var categories []*models.Category
	if err := d.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, translateErr(err)
	}
	return categories, nil
}

func (d *DatabaseStore) UpdateCategory(category *models.Category) error {
	return translateErr(d.db.Save(category).Error)
}

func (d *DatabaseStore) DeleteCategory(id string) error {
	return d.deleteByID(&models.Category{}, id)
}

// ==================== Article operations ====================

func (d *DatabaseStore) CreateArticle(article *models.Article) (*models.Article, error) {
	if err := d.db.Create(article).Error; err != nil {
		return nil, translateErr(err)
	}
	return article, nil
}

func (d *DatabaseStore) GetArticle(id string) (*models.Article, error) {
	var article models.Article
	err := d.db.Preload("Category").Preload("Survey").First(&article, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &article, nil
}

func (d *DatabaseStore) GetAllArticles(categoryID string) ([]*models.Article, error) {
	var articles []*models.Article
	query := d.db.Preload("Category").Order("created_at DESC")
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if err := query.Find(&articles).Error; err != nil {
		return nil, translateErr(err)
	}
	return articles, nil
}

func (d *DatabaseStore) UpdateArticle(article *models.Article) error {
	return translateErr(d.db.Save(article).Error)
}

func (d *DatabaseStore) DeleteArticle(id string) error {
	return d.deleteByID(&models.Article{}, id)
}

func (d *DatabaseStore) GetArticleRead(userID, articleID string) (*models.ArticleRead, error) {
	var read models.ArticleRead
	err := d.db.Where("user_id = ? AND article_id = ?", userID, articleID).First(&read).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &read, nil
}

// ==================== Survey operations ====================

func (d *DatabaseStore) CreateSurvey(survey *models.Survey) (*models.Survey, error) {
	if err := d.db.Create(survey).Error; err != nil {
		return nil, translateErr(err)
	}
	return survey, nil
}

func (d *DatabaseStore) GetSurvey(id string) (*models.Survey, error) {
	var survey models.Survey
	err := d.db.Preload("Questions.Options").First(&survey, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &survey, nil
}

func (d *DatabaseStore) GetSurveyByArticle(articleID string) (*models.Survey, error) {
	var survey models.Survey
	err := d.db.Preload("Questions.Options").First(&survey, "article_id = ?", articleID).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &survey, nil
}

func (d *DatabaseStore) DeleteSurvey(id string) error {
	return d.deleteByID(&models.Survey{}, id)
}

func (d *DatabaseStore) GetOption(id string) (*models.Option, error) {
	var option models.Option
	if err := d.db.First(&option, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &option, nil
}

func (d *DatabaseStore) GetUserAnswers(userID, surveyID string) ([]*models.UserAnswer, error) {
	var answers []*models.UserAnswer
	err := d.db.Joins("JOIN questions ON questions.id = user_answers.question_id").
		Where("user_answers.user_id = ? AND questions.survey_id = ?", userID, surveyID).
		Find(&answers).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return answers, nil
}

// ==================== Game operations ====================

func (d *DatabaseStore) CreateGame(game *models.Game) (*models.Game, error) {
	if err := d.db.Create(game).Error; err != nil {
		return nil, translateErr(err)
	}
	return game, nil
}

func (d *DatabaseStore) GetGame(id string) (*models.Game, error) {
	var game models.Game
	if err := d.db.First(&game, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &game, nil
}

func (d *DatabaseStore) GetAllGames() ([]*models.Game, error) {
	var games []*models.Game
	if err := d.db.Order("created_at DESC").Find(&games).Error; err != nil {
		return nil, translateErr(err)
	}
	return games, nil
}

func (d *DatabaseStore) UpdateGame(game *models.Game) error {
	return translateErr(d.db.Save(game).Error)
}

func (d *DatabaseStore) DeleteGame(id string) error {
	return d.deleteByID(&models.Game{}, id)
}

func (d *DatabaseStore) GetUserGame(userID, gameID string) (*models.UserGame, error) {
	var ug models.UserGame
	err := d.db.Where("user_id = ? AND game_id = ?", userID, gameID).First(&ug).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &ug, nil
}

func (d *DatabaseStore) GetUserGames(userID string) ([]*models.UserGame, error) {
	var games []*models.UserGame
	err := d.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&games).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return games, nil
}

// ==================== Poll operations ====================

func (d *DatabaseStore) CreatePoll(poll *models.Poll) (*models.Poll, error) {
	if err := d.db.Create(poll).Error; err != nil {
		return nil, translateErr(err)
	}
	return poll, nil
}

func (d *DatabaseStore) GetPoll(id string) (*models.Poll, error) {
	var poll models.Poll
	err := d.db.Preload("Options").First(&poll, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &poll, nil
}

func (d *DatabaseStore) GetAllPolls() ([]*models.Poll, error) {
	var polls []*models.Poll
	if err := d.db.Preload("Options").Order("created_at DESC").Find(&polls).Error; err != nil {
		return nil, translateErr(err)
	}
	return polls, nil
}

func (d *DatabaseStore) UpdatePoll(poll *models.Poll) error {
	return translateErr(d.db.Save(poll).Error)
}

func (d *DatabaseStore) DeletePoll(id string) error {
	return d.deleteByID(&models.Poll{}, id)
}

func (d *DatabaseStore) GetPollVote(pollID, userID string) (*models.PollVote, error) {
	var vote models.PollVote
	err := d.db.Where("poll_id = ? AND user_id = ?", pollID, userID).First(&vote).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &vote, nil
}

func (d *DatabaseStore) GetPollVotes(pollID string) ([]*models.PollVote, error) {
	var votes []*models.PollVote
	if err := d.db.Where("poll_id = ?", pollID).Find(&votes).Error; err != nil {
		return nil, translateErr(err)
	}
	return votes, nil
}

func (d *DatabaseStore) CountPollVotes(pollID string) (int64, error) {
	var count int64
	err := d.db.Model(&models.PollVote{}).Where("poll_id = ?", pollID).Count(&count).Error
	return count, translateErr(err)
}

// ==================== Discussion session operations ====================

func (d *DatabaseStore) CreateSession(session *models.DiscussionSession) (*models.DiscussionSession, error) {
	if err := d.db.Create(session).Error; err != nil {
		return nil, translateErr(err)
	}
	return session, nil
}

func (d *DatabaseStore) GetSession(id string) (*models.DiscussionSession, error) {
	var session models.DiscussionSession
	err := d.db.Preload("Polls.Options").First(&session, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &session, nil
}

func (d *DatabaseStore) GetAllSessions() ([]*models.DiscussionSession, error) {
	var sessions []*models.DiscussionSession
	if err := d.db.Order("date_time DESC").Find(&sessions).Error; err != nil {
		return nil, translateErr(err)
	}
	return sessions, nil
}

func (d *DatabaseStore) UpdateSession(session *models.DiscussionSession) error {
	return translateErr(d.db.Save(session).Error)
}

func (d *DatabaseStore) DeleteSession(id string) error {
	return d.deleteByID(&models.DiscussionSession{}, id)
}

func (d *DatabaseStore) GetAttendance(sessionID, userID string) (*models.SessionAttendance, error) {
	var att models.SessionAttendance
	err := d.db.Where("session_id = ? AND user_id = ?", sessionID, userID).First(&att).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &att, nil
}

func (d *DatabaseStore) GetSessionAttendees(sessionID string) ([]*models.SessionAttendance, error) {
	var attendees []*models.SessionAttendance
	err := d.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&attendees).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return attendees, nil
}

// CreateAttendance registers a user for a session without crediting points
func (d *DatabaseStore) CreateAttendance(att *models.SessionAttendance) error {
	return translateErr(d.db.Create(att).Error)
}

// ==================== Session poll operations ====================

func (d *DatabaseStore) CreateSessionPoll(poll *models.SessionPoll) (*models.SessionPoll, error) {
	if err := d.db.Create(poll).Error; err != nil {
		return nil, translateErr(err)
	}
	return poll, nil
}

func (d *DatabaseStore) GetSessionPoll(id string) (*models.SessionPoll, error) {
	var poll models.SessionPoll
	err := d.db.Preload("Options").First(&poll, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &poll, nil
}

func (d *DatabaseStore) GetSessionPolls(sessionID string) ([]*models.SessionPoll, error) {
	var polls []*models.SessionPoll
	err := d.db.Preload("Options").Where("session_id = ?", sessionID).
		Order("created_at ASC").Find(&polls).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return polls, nil
}

func (d *DatabaseStore) UpdateSessionPoll(poll *models.SessionPoll) error {
	return translateErr(d.db.Save(poll).Error)
}

func (d *DatabaseStore) GetSessionPollVote(pollID, userID string) (*models.SessionPollVote, error) {
	var vote models.SessionPollVote
	err := d.db.Where("poll_id = ? AND user_id = ?", pollID, userID).First(&vote).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &vote, nil
}

func (d *DatabaseStore) GetSessionPollVotes(pollID string) ([]*models.SessionPollVote, error) {
	var votes []*models.SessionPollVote
	if err := d.db.Where("poll_id = ?", pollID).Find(&votes).Error; err != nil {
		return nil, translateErr(err)
	}
	return votes, nil
}

// ==================== Award operations ====================

// awardTx inserts a completion record and credits the user inside one
// transaction. A unique-index violation on the record aborts the whole
// transaction, so the balance can never be credited twice.
func (d *DatabaseStore) awardTx(record interface{}, userID string, points int) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return creditUser(tx, userID, points)
	})
	return translateErr(err)
}

// creditUser increments the balance with a relative update, never a
// read-modify-write.
func creditUser(tx *gorm.DB, userID string, points int) error {
	if points <= 0 {
		return nil
	}
	res := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", points))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (d *DatabaseStore) AwardArticleRead(read *models.ArticleRead) error {
	return d.awardTx(read, read.UserID, read.PointsEarned)
}

func (d *DatabaseStore) AwardGameCompletion(game *models.UserGame) error {
	return d.awardTx(game, game.UserID, game.PointsEarned)
}

func (d *DatabaseStore) AwardPollVote(vote *models.PollVote) error {
	return d.awardTx(vote, vote.UserID, vote.PointsEarned)
}

func (d *DatabaseStore) AwardSessionPollVote(vote *models.SessionPollVote) error {
	return d.awardTx(vote, vote.UserID, vote.PointsEarned)
}

func (d *DatabaseStore) AwardAttendance(att *models.SessionAttendance) error {
	return d.awardTx(att, att.UserID, att.PointsEarned)
}

// MarkAttended flips a pre-registered attendance row to attended and
// credits the points, in one transaction. The guarded update keeps two
// concurrent attend calls from both crediting: only the one that flips
// the row proceeds.
func (d *DatabaseStore) MarkAttended(att *models.SessionAttendance) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.SessionAttendance{}).
			Where("id = ? AND attended = false", att.ID).
			Updates(map[string]interface{}{
				"attended":      true,
				"points_earned": att.PointsEarned,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrDuplicatedKey
		}
		return creditUser(tx, att.UserID, att.PointsEarned)
	})
	return translateErr(err)
}

// AwardSurvey stores the submitted answers and credits the pass reward (0
// when failed) in one transaction. The unique index on (user, question)
// rejects a repeat submission.
func (d *DatabaseStore) AwardSurvey(userID string, answers []*models.UserAnswer, points int) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		for _, answer := range answers {
			if err := tx.Create(answer).Error; err != nil {
				return err
			}
		}
		return creditUser(tx, userID, points)
	})
	return translateErr(err)
}
