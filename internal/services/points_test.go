package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sawtna-yabni/community-backend/internal/models"
	"github.com/sawtna-yabni/community-backend/internal/storage"
)

func newTestUser(t *testing.T, store storage.Store, name string) *models.User {
	t.Helper()
	user, err := store.CreateUser(&models.User{Name: name, Password: "x"})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return user
}

func TestSurveyScore(t *testing.T) {
	tests := []struct {
		name       string
		correct    int
		total      int
		percentage int
		passed     bool
		points     int
	}{
		{"passing score", 7, 10, 70, true, 10},
		{"failing score", 6, 10, 60, false, 0},
		{"perfect score", 3, 3, 100, true, 10},
		{"rounds up past threshold", 2, 3, 67, false, 0},
		{"displays 70 but fails on exact ratio", 16, 23, 70, false, 0},
		{"just under threshold", 139, 200, 70, false, 0},
		{"exactly at threshold", 14, 20, 70, true, 10},
		{"empty survey", 0, 0, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SurveyScore(tt.correct, tt.total)
			if result.Percentage != tt.percentage {
				t.Errorf("percentage = %d, want %d", result.Percentage, tt.percentage)
			}
			if result.Passed != tt.passed {
				t.Errorf("passed = %v, want %v", result.Passed, tt.passed)
			}
			if result.Points != tt.points {
				t.Errorf("points = %d, want %d", result.Points, tt.points)
			}
		})
	}
}

func TestRewardAmount(t *testing.T) {
	if got := RewardAmount(ActionCompleteGame, 0); got != 15 {
		t.Errorf("default game reward = %d, want 15", got)
	}
	if got := RewardAmount(ActionCompleteGame, 25); got != 25 {
		t.Errorf("configured game reward = %d, want 25", got)
	}
	if got := RewardAmount(ActionReadArticle, 0); got != 5 {
		t.Errorf("default article reward = %d, want 5", got)
	}
	if got := RewardAmount(ActionAttendSession, 0); got != 20 {
		t.Errorf("default session reward = %d, want 20", got)
	}
}

func TestAwardArticleReadOnce(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)
	user := newTestUser(t, store, "Reader")
	article, _ := store.CreateArticle(&models.Article{Title: "T", Content: "C"})

	points, err := svc.AwardArticleRead(user.ID, article.ID)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if points != 5 {
		t.Errorf("points = %d, want 5", points)
	}

	if _, err := svc.AwardArticleRead(user.ID, article.ID); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("second read err = %v, want ErrAlreadyCompleted", err)
	}

	got, _ := store.GetUser(user.ID)
	if got.Points != 5 {
		t.Errorf("balance = %d, want 5", got.Points)
	}
}

func TestAwardArticleReadMissingArticle(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)
	user := newTestUser(t, store, "Reader")

	if _, err := svc.AwardArticleRead(user.ID, "nope"); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("err = %v, want ErrTargetNotFound", err)
	}
}

func TestAwardArticleReadConcurrent(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)
	user := newTestUser(t, store, "Racer")
	article, _ := store.CreateArticle(&models.Article{Title: "T", Content: "C"})

	const workers = 20
	var wg sync.WaitGroup
	var successes int64
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AwardArticleRead(user.ID, article.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	got, _ := store.GetUser(user.ID)
	if got.Points != 5 {
		t.Errorf("balance = %d, want 5 after %d concurrent attempts", got.Points, workers)
	}
}

func TestAwardGameCompletionUsesConfiguredReward(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)
	user := newTestUser(t, store, "Player")
	game, _ := store.CreateGame(&models.Game{Type: models.GameTypeQuiz, Title: "G", PointsReward: 30})

	points, err := svc.AwardGameCompletion(user.ID, game.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if points != 30 {
		t.Errorf("points = %d, want 30", points)
	}

	if _, err := svc.AwardGameCompletion(user.ID, game.ID); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("second completion err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestAwardPollVote(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)
	user := newTestUser(t, store, "Voter")
	poll, _ := store.CreatePoll(&models.Poll{
		Title:   "P",
		Options: []models.PollOption{{Text: "A"}, {Text: "B"}},
	})

	points, err := svc.AwardPollVote(user.ID, poll.ID, poll.Options[0].ID)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if points != 5 {
		t.Errorf("points = %d, want 5", points)
	}

	// Same poll again, even with the other option
	if _, err := svc.AwardPollVote(user.ID, poll.ID, poll.Options[1].ID); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("second vote err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestAwardPollVoteForeignOption(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)
	user := newTestUser(t, store, "Voter")
	poll, _ := store.CreatePoll(&models.Poll{Title: "P", Options: []models.PollOption{{Text: "A"}}})
	other, _ := store.CreatePoll(&models.Poll{Title: "Q", Options: []models.PollOption{{Text: "B"}}})

	if _, err := svc.AwardPollVote(user.ID, poll.ID, other.Options[0].ID); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("vote with foreign option err = %v, want ErrTargetNotFound", err)
	}
}

func TestMarkAttendanceAfterRegistration(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)
	user := newTestUser(t, store, "Attendee")
	session, _ := store.CreateSession(&models.DiscussionSession{Title: "S", DateTime: time.Now()})

	if err := svc.RegisterForSession(user.ID, session.ID); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Registration alone earns nothing
	got, _ := store.GetUser(user.ID)
	if got.Points != 0 {
		t.Errorf("balance after registration = %d, want 0", got.Points)
	}

	points, err := svc.MarkAttendance(user.ID, session.ID)
	if err != nil {
		t.Fatalf("attend: %v", err)
	}
	if points != 20 {
		t.Errorf("points = %d, want 20", points)
	}

	att, _ := store.GetAttendance(session.ID, user.ID)
	if !att.Attended {
		t.Error("attendance row not flipped to attended")
	}

	if _, err := svc.MarkAttendance(user.ID, session.ID); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("second attend err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestMarkAttendanceWithoutRegistration(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)
	user := newTestUser(t, store, "WalkIn")
	session, _ := store.CreateSession(&models.DiscussionSession{Title: "S", DateTime: time.Now(), PointsReward: 40})

	points, err := svc.MarkAttendance(user.ID, session.ID)
	if err != nil {
		t.Fatalf("attend: %v", err)
	}
	if points != 40 {
		t.Errorf("points = %d, want 40", points)
	}
}

func TestRegisterForSessionTwice(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)
	user := newTestUser(t, store, "Eager")
	session, _ := store.CreateSession(&models.DiscussionSession{Title: "S", DateTime: time.Now()})

	if err := svc.RegisterForSession(user.ID, session.ID); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.RegisterForSession(user.ID, session.ID); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("second register err = %v, want ErrAlreadyCompleted", err)
	}
}

func createQuiz(t *testing.T, store storage.Store) *models.Survey {
	t.Helper()
	article, _ := store.CreateArticle(&models.Article{Title: "T", Content: "C"})
	survey, err := store.CreateSurvey(&models.Survey{
		ArticleID: article.ID,
		Questions: []models.Question{
			{Text: "Q1", Options: []models.Option{{Text: "right", IsCorrect: true}, {Text: "wrong"}}},
			{Text: "Q2", Options: []models.Option{{Text: "right", IsCorrect: true}, {Text: "wrong"}}},
			{Text: "Q3", Options: []models.Option{{Text: "right", IsCorrect: true}, {Text: "wrong"}}},
		},
	})
	if err != nil {
		t.Fatalf("CreateSurvey: %v", err)
	}
	return survey
}

func TestSubmitSurveyPass(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)
	user := newTestUser(t, store, "Student")
	survey := createQuiz(t, store)

	var answers []AnswerSubmission
	for _, q := range survey.Questions {
		answers = append(answers, AnswerSubmission{QuestionID: q.ID, OptionID: q.Options[0].ID})
	}

	result, err := svc.SubmitSurvey(user.ID, survey.ID, answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Passed || result.Percentage != 100 || result.Points != 10 {
		t.Errorf("result = %+v, want passed with 100%% and 10 points", result)
	}

	got, _ := store.GetUser(user.ID)
	if got.Points != 10 {
		t.Errorf("balance = %d, want 10", got.Points)
	}
}

func TestSubmitSurveyFailEarnsNothing(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)
	user := newTestUser(t, store, "Student")
	survey := createQuiz(t, store)

	// 2 of 3 correct is 67%, below the threshold
	answers := []AnswerSubmission{
		{QuestionID: survey.Questions[0].ID, OptionID: survey.Questions[0].Options[0].ID},
		{QuestionID: survey.Questions[1].ID, OptionID: survey.Questions[1].Options[0].ID},
		{QuestionID: survey.Questions[2].ID, OptionID: survey.Questions[2].Options[1].ID},
	}

	result, err := svc.SubmitSurvey(user.ID, survey.ID, answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Passed || result.Points != 0 {
		t.Errorf("result = %+v, want failed with 0 points", result)
	}

	got, _ := store.GetUser(user.ID)
	if got.Points != 0 {
		t.Errorf("balance = %d, want 0", got.Points)
	}
}

func TestSubmitSurveyOnlyOnce(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)
	user := newTestUser(t, store, "Student")
	survey := createQuiz(t, store)

	answers := []AnswerSubmission{
		{QuestionID: survey.Questions[0].ID, OptionID: survey.Questions[0].Options[1].ID},
	}
	if _, err := svc.SubmitSurvey(user.ID, survey.ID, answers); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// A retry cannot improve the score
	if _, err := svc.SubmitSurvey(user.ID, survey.ID, answers); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("second submit err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestSubmitSurveyIgnoresMismatchedOption(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)
	user := newTestUser(t, store, "Cheater")
	survey := createQuiz(t, store)

	// Option belongs to Q1 but is submitted for Q2: skipped, not scored
	answers := []AnswerSubmission{
		{QuestionID: survey.Questions[1].ID, OptionID: survey.Questions[0].Options[0].ID},
	}
	result, err := svc.SubmitSurvey(user.ID, survey.ID, answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.CorrectAnswers != 0 {
		t.Errorf("correct = %d, want 0", result.CorrectAnswers)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)

	base := time.Now()
	for i, seed := range []struct {
		name   string
		points int
	}{
		{"Alice", 50},
		{"Bob", 50},
		{"Carol", 30},
	} {
		created := base.Add(time.Duration(i) * time.Second)
		if _, err := store.CreateUser(&models.User{Name: seed.name, Password: "x", Points: seed.points, CreatedAt: created}); err != nil {
			t.Fatalf("CreateUser(%s): %v", seed.name, err)
		}
	}

	entries, err := svc.Leaderboard(10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	// Ties break by signup time, ranks are sequential
	wantNames := []string{"Alice", "Bob", "Carol"}
	for i, want := range wantNames {
		if entries[i].Name != want {
			t.Errorf("entry %d = %s, want %s", i, entries[i].Name, want)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("entry %d rank = %d, want %d", i, entries[i].Rank, i+1)
		}
	}
}

func TestLeaderboardDefaultLimit(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)

	for i := 0; i < 15; i++ {
		newTestUser(t, store, "u")
	}

	entries, err := svc.Leaderboard(0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("entries = %d, want 10 with default limit", len(entries))
	}
}

func TestUserRankSharedForTies(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)

	top, _ := store.CreateUser(&models.User{Name: "Top", Password: "x", Points: 100})
	a, _ := store.CreateUser(&models.User{Name: "A", Password: "x", Points: 50})
	b, _ := store.CreateUser(&models.User{Name: "B", Password: "x", Points: 50})

	rank, err := svc.UserRank(top.ID)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if rank.Rank != 1 {
		t.Errorf("top rank = %d, want 1", rank.Rank)
	}

	for _, user := range []*models.User{a, b} {
		rank, err := svc.UserRank(user.ID)
		if err != nil {
			t.Fatalf("rank(%s): %v", user.Name, err)
		}
		if rank.Rank != 2 {
			t.Errorf("%s rank = %d, want 2 (tied)", user.Name, rank.Rank)
		}
	}
}

func TestUserRankUnknownUser(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPointsService(store)

	if _, err := svc.UserRank("missing"); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("err = %v, want ErrTargetNotFound", err)
	}
}
