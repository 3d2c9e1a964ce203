package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sawtna-yabni/community-backend/internal/models"
)

// MemoryStore holds all data in memory. It mirrors the database store's
// semantics (unique constraints raise ErrDuplicate, awards apply
// atomically) so services and tests behave the same against either.
type MemoryStore struct {
	mu sync.RWMutex

	users            map[string]*models.User
	otps             map[string]*models.OTP
	categories       map[string]*models.Category
	articles         map[string]*models.Article
	articleReads     map[string]*models.ArticleRead
	surveys          map[string]*models.Survey
	options          map[string]*models.Option
	userAnswers      map[string]*models.UserAnswer
	games            map[string]*models.Game
	userGames        map[string]*models.UserGame
	polls            map[string]*models.Poll
	pollVotes        map[string]*models.PollVote
	sessions         map[string]*models.DiscussionSession
	attendances      map[string]*models.SessionAttendance
	sessionPolls     map[string]*models.SessionPoll
	sessionPollVotes map[string]*models.SessionPollVote
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:            make(map[string]*models.User),
		otps:             make(map[string]*models.OTP),
		categories:       make(map[string]*models.Category),
		articles:         make(map[string]*models.Article),
		articleReads:     make(map[string]*models.ArticleRead),
		surveys:          make(map[string]*models.Survey),
		options:          make(map[string]*models.Option),
		userAnswers:      make(map[string]*models.UserAnswer),
		games:            make(map[string]*models.Game),
		userGames:        make(map[string]*models.UserGame),
		polls:            make(map[string]*models.Poll),
		pollVotes:        make(map[string]*models.PollVote),
		sessions:         make(map[string]*models.DiscussionSession),
		attendances:      make(map[string]*models.SessionAttendance),
		sessionPolls:     make(map[string]*models.SessionPoll),
		sessionPollVotes: make(map[string]*models.SessionPollVote),
	}
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func ensureTime(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}

// ==================== User operations ====================

func (m *MemoryStore) CreateUser(user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if user.Email != nil && existing.Email != nil && *existing.Email == *user.Email {
			return nil, ErrDuplicate
		}
		if user.PhoneNumber != nil && existing.PhoneNumber != nil && *existing.PhoneNumber == *user.PhoneNumber {
			return nil, ErrDuplicate
		}
	}

	ensureID(&user.ID)
	ensureTime(&user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryStore) GetUser(id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, ErrNotFound
	}
	return user, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Email != nil && *user.Email == email {
			return user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserByPhone(phone string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.PhoneNumber != nil && *user.PhoneNumber == phone {
			return user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetAllUsers() ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*models.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (m *MemoryStore) UpdateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.ID]; !exists {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStore) DeleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[id]; !exists {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// ==================== Leaderboard queries ====================

func (m *MemoryStore) GetTopUsers(limit int) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*models.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	// Same ordering as the database store: points DESC, signup time ASC, id ASC
	sort.Slice(users, func(i, j int) bool {
		if users[i].Points != users[j].Points {
			return users[i].Points > users[j].Points
		}
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (m *MemoryStore) CountUsersWithMorePoints(points int) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, user := range m.users {
		if user.Points > points {
			count++
		}
	}
	return count, nil
}

// ==================== OTP operations ====================

func (m *MemoryStore) CreateOTP(otp *models.OTP) (*models.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ensureID(&otp.ID)
	ensureTime(&otp.CreatedAt)
	m.otps[otp.ID] = otp
	return otp, nil
}

func (m *MemoryStore) GetLatestOTP(phone string) (*models.OTP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *models.OTP
	for _, otp := range m.otps {
		if otp.PhoneNumber != phone {
			continue
		}
		if latest == nil || otp.CreatedAt.After(latest.CreatedAt) {
			latest = otp
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (m *MemoryStore) GetActiveOTP(phone string) (*models.OTP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *models.OTP
	for _, otp := range m.otps {
		if otp.PhoneNumber != phone || otp.Verified {
			continue
		}
		if latest == nil || otp.CreatedAt.After(latest.CreatedAt) {
			latest = otp
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (m *MemoryStore) UpdateOTP(otp *models.OTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.otps[otp.ID]; !exists {
		return ErrNotFound
	}
	otp.UpdatedAt = time.Now()
	m.otps[otp.ID] = otp
	return nil
}

func (m *MemoryStore) DeleteOTP(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.otps[id]; !exists {
		return ErrNotFound
	}
	delete(m.otps, id)
	return nil
}

func (m *MemoryStore) DeleteUnverifiedOTPs(phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, otp := range m.otps {
		if otp.PhoneNumber == phone && !otp.Verified {
			delete(m.otps, id)
		}
	}
	return nil
}

func (m *MemoryStore) DeleteExpiredOTPs() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, otp := range m.otps {
		if otp.ExpiresAt.Before(now) {
			delete(m.otps, id)
		}
	}
	return nil
}

// ==================== Category operations ====================

func (m *MemoryStore) CreateCategory(category *models.Category) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.categories {
		if existing.Name == category.Name {
			return nil, ErrDuplicate
		}
	}
	ensureID(&category.ID)
	ensureTime(&category.CreatedAt)
	m.categories[category.ID] = category
	return category, nil
}

func (m *MemoryStore) GetCategory(id string) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	category, exists := m.categories[id]
	if !exists {
		return nil, ErrNotFound
	}
	return category, nil
}

func (m *MemoryStore) GetAllCategories() ([]*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	categories := make([]*models.Category, 0, len(m.categories))
	for _, category := range m.categories {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (m *MemoryStore) UpdateCategory(category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.categories[category.ID]; !exists {
		return ErrNotFound
	}
	m.categories[category.ID] = category
	return nil
}

func (m *MemoryStore) DeleteCategory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.categories[id]; !exists {
		return ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

// ==================== Article operations ====================

func (m *MemoryStore) CreateArticle(article *models.Article) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ensureID(&article.ID)
	ensureTime(&article.CreatedAt)
	m.articles[article.ID] = article
	return article, nil
}

func (m *MemoryStore) GetArticle(id string) (*models.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	article, exists := m.articles[id]
	if !exists {
		return nil, ErrNotFound
	}
	return article, nil
}

func (m *MemoryStore) GetAllArticles(categoryID string) ([]*models.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var articles []*models.Article
	for _, article := range m.articles {
		if categoryID != "" && article.CategoryID != categoryID {
			continue
		}
		articles = append(articles, article)
	}
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].CreatedAt.After(articles[j].CreatedAt)
	})
	return articles, nil
}

func (m *MemoryStore) UpdateArticle(article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.articles[article.ID]; !exists {
		return ErrNotFound
	}
	m.articles[article.ID] = article
	return nil
}

func (m *MemoryStore) DeleteArticle(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.articles[id]; !exists {
		return ErrNotFound
	}
	delete(m.articles, id)
	return nil
}

func (m *MemoryStore) GetArticleRead(userID, articleID string) (*models.ArticleRead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, read := range m.articleReads {
		if read.UserID == userID && read.ArticleID == articleID {
			return read, nil
		}
	}
	return nil, ErrNotFound
}

// ==================== Survey operations ====================

func (m *MemoryStore) CreateSurvey(survey *models.Survey) (*models.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.surveys {
		if existing.ArticleID == survey.ArticleID {
			return nil, ErrDuplicate
		}
	}
	ensureID(&survey.ID)
	ensureTime(&survey.CreatedAt)
	for qi := range survey.Questions {
		question := &survey.Questions[qi]
		ensureID(&question.ID)
		question.SurveyID = survey.ID
		for oi := range question.Options {
			option := &question.Options[oi]
			ensureID(&option.ID)
			option.QuestionID = question.ID
			m.options[option.ID] = option
		}
	}
	m.surveys[survey.ID] = survey
	return survey, nil
}

func (m *MemoryStore) GetSurvey(id string) (*models.Survey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	survey, exists := m.surveys[id]
	if !exists {
		return nil, ErrNotFound
	}
	return survey, nil
}

func (m *MemoryStore) GetSurveyByArticle(articleID string) (*models.Survey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, survey := range m.surveys {
		if survey.ArticleID == articleID {
			return survey, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) DeleteSurvey(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.surveys[id]; !exists {
		return ErrNotFound
	}
	delete(m.surveys, id)
	return nil
}

func (m *MemoryStore) GetOption(id string) (*models.Option, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	option, exists := m.options[id]
	if !exists {
		return nil, ErrNotFound
	}
	return option, nil
}

func (m *MemoryStore) GetUserAnswers(userID, surveyID string) ([]*models.UserAnswer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	questionIDs := make(map[string]bool)
	if survey, exists := m.surveys[surveyID]; exists {
		for _, question := range survey.Questions {
			questionIDs[question.ID] = true
		}
	}

	var answers []*models.UserAnswer
	for _, answer := range m.userAnswers {
		if answer.UserID == userID && questionIDs[answer.QuestionID] {
			answers = append(answers, answer)
		}
	}
	return answers, nil
}

// ==================== Game operations ====================

func (m *MemoryStore) CreateGame(game *models.Game) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ensureID(&game.ID)
	ensureTime(&game.CreatedAt)
	m.games[game.ID] = game
	return game, nil
}

func (m *MemoryStore) GetGame(id string) (*models.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	game, exists := m.games[id]
	if !exists {
		return nil, ErrNotFound
	}
	return game, nil
}

func (m *MemoryStore) GetAllGames() ([]*models.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	games := make([]*models.Game, 0, len(m.games))
	for _, game := range m.games {
		games = append(games, game)
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
	return games, nil
}

func (m *MemoryStore) UpdateGame(game *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.games[game.ID]; !exists {
		return ErrNotFound
	}
	m.games[game.ID] = game
	return nil
}

func (m *MemoryStore) DeleteGame(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.games[id]; !exists {
		return ErrNotFound
	}
	delete(m.games, id)
	return nil
}

func (m *MemoryStore) GetUserGame(userID, gameID string) (*models.UserGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ug := range m.userGames {
		if ug.UserID == userID && ug.GameID == gameID {
			return ug, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserGames(userID string) ([]*models.UserGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var games []*models.UserGame
	for _, ug := range m.userGames {
		if ug.UserID == userID {
			games = append(games, ug)
		}
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
	return games, nil
}

// ==================== Poll operations ====================

func (m *MemoryStore) CreatePoll(poll *models.Poll) (*models.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ensureID(&poll.ID)
	ensureTime(&poll.CreatedAt)
	for i := range poll.Options {
		ensureID(&poll.Options[i].ID)
		poll.Options[i].PollID = poll.ID
	}
	m.polls[poll.ID] = poll
	return poll, nil
}

func (m *MemoryStore) GetPoll(id string) (*models.Poll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	poll, exists := m.polls[id]
	if !exists {
		return nil, ErrNotFound
	}
	return poll, nil
}

func (m *MemoryStore) GetAllPolls() ([]*models.Poll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	polls := make([]*models.Poll, 0, len(m.polls))
	for _, poll := range m.polls {
		polls = append(polls, poll)
	}
	sort.Slice(polls, func(i, j int) bool {
		return polls[i].CreatedAt.After(polls[j].CreatedAt)
	})
	return polls, nil
}

func (m *MemoryStore) UpdatePoll(poll *models.Poll) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.polls[poll.ID]; !exists {
		return ErrNotFound
	}
	m.polls[poll.ID] = poll
	return nil
}

func (m *MemoryStore) DeletePoll(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.polls[id]; !exists {
		return ErrNotFound
	}
	delete(m.polls, id)
	return nil
}

func (m *MemoryStore) GetPollVote(pollID, userID string) (*models.PollVote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, vote := range m.pollVotes {
		if vote.PollID == pollID && vote.UserID == userID {
			return vote, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetPollVotes(pollID string) ([]*models.PollVote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var votes []*models.PollVote
	for _, vote := range m.pollVotes {
		if vote.PollID == pollID {
			votes = append(votes, vote)
		}
	}
	return votes, nil
}

func (m *MemoryStore) CountPollVotes(pollID string) (int64, error) {
	votes, _ := m.GetPollVotes(pollID)
	return int64(len(votes)), nil
}

// ==================== Discussion session operations ====================

func (m *MemoryStore) CreateSession(session *models.DiscussionSession) (*models.DiscussionSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ensureID(&session.ID)
	ensureTime(&session.CreatedAt)
	m.sessions[session.ID] = session
	return session, nil
}

func (m *MemoryStore) GetSession(id string) (*models.DiscussionSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}
	return session, nil
}

func (m *MemoryStore) GetAllSessions() ([]*models.DiscussionSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*models.DiscussionSession, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].DateTime.After(sessions[j].DateTime)
	})
	return sessions, nil
}

func (m *MemoryStore) UpdateSession(session *models.DiscussionSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; !exists {
		return ErrNotFound
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *MemoryStore) DeleteSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) GetAttendance(sessionID, userID string) (*models.SessionAttendance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.findAttendance(sessionID, userID)
}

func (m *MemoryStore) findAttendance(sessionID, userID string) (*models.SessionAttendance, error) {
	for _, att := range m.attendances {
		if att.SessionID == sessionID && att.UserID == userID {
			return att, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetSessionAttendees(sessionID string) ([]*models.SessionAttendance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var attendees []*models.SessionAttendance
	for _, att := range m.attendances {
		if att.SessionID == sessionID {
			attendees = append(attendees, att)
		}
	}
	sort.Slice(attendees, func(i, j int) bool {
		return attendees[i].CreatedAt.Before(attendees[j].CreatedAt)
	})
	return attendees, nil
}

func (m *MemoryStore) CreateAttendance(att *models.SessionAttendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.findAttendance(att.SessionID, att.UserID); err == nil {
		return ErrDuplicate
	}
	ensureID(&att.ID)
	ensureTime(&att.CreatedAt)
	m.attendances[att.ID] = att
	return nil
}

// ==================== Session poll operations ====================

func (m *MemoryStore) CreateSessionPoll(poll *models.SessionPoll) (*models.SessionPoll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ensureID(&poll.ID)
	ensureTime(&poll.CreatedAt)
	for i := range poll.Options {
		ensureID(&poll.Options[i].ID)
		poll.Options[i].PollID = poll.ID
	}
	m.sessionPolls[poll.ID] = poll
	return poll, nil
}

func (m *MemoryStore) GetSessionPoll(id string) (*models.SessionPoll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	poll, exists := m.sessionPolls[id]
	if !exists {
		return nil, ErrNotFound
	}
	return poll, nil
}

func (m *MemoryStore) GetSessionPolls(sessionID string) ([]*models.SessionPoll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var polls []*models.SessionPoll
	for _, poll := range m.sessionPolls {
		if poll.SessionID == sessionID {
			polls = append(polls, poll)
		}
	}
	sort.Slice(polls, func(i, j int) bool {
		return polls[i].CreatedAt.Before(polls[j].CreatedAt)
	})
	return polls, nil
}

func (m *MemoryStore) UpdateSessionPoll(poll *models.SessionPoll) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessionPolls[poll.ID]; !exists {
		return ErrNotFound
	}
	m.sessionPolls[poll.ID] = poll
	return nil
}

func (m *MemoryStore) GetSessionPollVote(pollID, userID string) (*models.SessionPollVote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, vote := range m.sessionPollVotes {
		if vote.PollID == pollID && vote.UserID == userID {
			return vote, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetSessionPollVotes(pollID string) ([]*models.SessionPollVote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var votes []*models.SessionPollVote
	for _, vote := range m.sessionPollVotes {
		if vote.PollID == pollID {
			votes = append(votes, vote)
		}
	}
	return votes, nil
}

// ==================== Award operations ====================

// creditLocked adds points to a user's balance. Caller must hold the lock.
func (m *MemoryStore) creditLocked(userID string, points int) error {
	user, exists := m.users[userID]
	if !exists {
		return ErrNotFound
	}
	user.Points += points
	return nil
}

func (m *MemoryStore) AwardArticleRead(read *models.ArticleRead) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.articleReads {
		if existing.UserID == read.UserID && existing.ArticleID == read.ArticleID {
			return ErrDuplicate
		}
	}
	if err := m.creditLocked(read.UserID, read.PointsEarned); err != nil {
		return err
	}
	ensureID(&read.ID)
	ensureTime(&read.CreatedAt)
	m.articleReads[read.ID] = read
	return nil
}

func (m *MemoryStore) AwardGameCompletion(game *models.UserGame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.userGames {
		if existing.UserID == game.UserID && existing.GameID == game.GameID {
			return ErrDuplicate
		}
	}
	if err := m.creditLocked(game.UserID, game.PointsEarned); err != nil {
		return err
	}
	ensureID(&game.ID)
	ensureTime(&game.CreatedAt)
	m.userGames[game.ID] = game
	return nil
}

func (m *MemoryStore) AwardPollVote(vote *models.PollVote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.pollVotes {
		if existing.PollID == vote.PollID && existing.UserID == vote.UserID {
			return ErrDuplicate
		}
	}
	if err := m.creditLocked(vote.UserID, vote.PointsEarned); err != nil {
		return err
	}
	ensureID(&vote.ID)
	ensureTime(&vote.CreatedAt)
	m.pollVotes[vote.ID] = vote
	return nil
}

func (m *MemoryStore) AwardSessionPollVote(vote *models.SessionPollVote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.sessionPollVotes {
		if existing.PollID == vote.PollID && existing.UserID == vote.UserID {
			return ErrDuplicate
		}
	}
	if err := m.creditLocked(vote.UserID, vote.PointsEarned); err != nil {
		return err
	}
	ensureID(&vote.ID)
	ensureTime(&vote.CreatedAt)
	m.sessionPollVotes[vote.ID] = vote
	return nil
}

func (m *MemoryStore) AwardAttendance(att *models.SessionAttendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.findAttendance(att.SessionID, att.UserID); err == nil {
		return ErrDuplicate
	}
	if err := m.creditLocked(att.UserID, att.PointsEarned); err != nil {
		return err
	}
	ensureID(&att.ID)
	ensureTime(&att.CreatedAt)
	m.attendances[att.ID] = att
	return nil
}

func (m *MemoryStore) MarkAttended(att *models.SessionAttendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.attendances[att.ID]
	if !exists {
		return ErrNotFound
	}
	if existing.Attended {
		return ErrDuplicate
	}
	if err := m.creditLocked(att.UserID, att.PointsEarned); err != nil {
		return err
	}
	existing.Attended = true
	existing.PointsEarned = att.PointsEarned
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) AwardSurvey(userID string, answers []*models.UserAnswer, points int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, answer := range answers {
		for _, existing := range m.userAnswers {
			if existing.UserID == answer.UserID && existing.QuestionID == answer.QuestionID {
				return ErrDuplicate
			}
		}
	}
	if err := m.creditLocked(userID, points); err != nil {
		return err
	}
	for _, answer := range answers {
		ensureID(&answer.ID)
		ensureTime(&answer.CreatedAt)
		m.userAnswers[answer.ID] = answer
	}
	return nil
}
