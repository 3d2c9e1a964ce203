package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/sawtna-yabni/community-backend/internal/models"
)

func seedUser(t *testing.T, store *MemoryStore, name string, points int) *models.User {
	t.Helper()
	user, err := store.CreateUser(&models.User{Name: name, Password: "x", Points: points})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return user
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store := NewMemoryStore()
	email := "a@example.com"

	if _, err := store.CreateUser(&models.User{Name: "A", Email: &email, Password: "x"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := store.CreateUser(&models.User{Name: "B", Email: &email, Password: "x"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestCreateUserNilIdentifiersCoexist(t *testing.T) {
	store := NewMemoryStore()
	email := "a@example.com"
	phone := "+31612345678"

	// Email-only and phone-only accounts must not collide on the nil field
	if _, err := store.CreateUser(&models.User{Name: "A", Email: &email, Password: "x"}); err != nil {
		t.Fatalf("email user: %v", err)
	}
	if _, err := store.CreateUser(&models.User{Name: "B", PhoneNumber: &phone, Password: "x"}); err != nil {
		t.Fatalf("phone user: %v", err)
	}
}

func TestAwardArticleReadAtomic(t *testing.T) {
	store := NewMemoryStore()
	user := seedUser(t, store, "Reader", 0)

	read := &models.ArticleRead{UserID: user.ID, ArticleID: "article-1", PointsEarned: 5}
	if err := store.AwardArticleRead(read); err != nil {
		t.Fatalf("award: %v", err)
	}

	got, _ := store.GetUser(user.ID)
	if got.Points != 5 {
		t.Errorf("balance = %d, want 5", got.Points)
	}

	again := &models.ArticleRead{UserID: user.ID, ArticleID: "article-1", PointsEarned: 5}
	if err := store.AwardArticleRead(again); !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
	got, _ = store.GetUser(user.ID)
	if got.Points != 5 {
		t.Errorf("balance after duplicate = %d, want 5", got.Points)
	}
}

func TestAwardUnknownUserCreditsNothing(t *testing.T) {
	store := NewMemoryStore()

	read := &models.ArticleRead{UserID: "ghost", ArticleID: "article-1", PointsEarned: 5}
	if err := store.AwardArticleRead(read); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetArticleRead("ghost", "article-1"); !errors.Is(err, ErrNotFound) {
		t.Error("completion record created despite failed credit")
	}
}

func TestMarkAttendedFlipsOnce(t *testing.T) {
	store := NewMemoryStore()
	user := seedUser(t, store, "Attendee", 0)

	att := &models.SessionAttendance{SessionID: "s1", UserID: user.ID}
	if err := store.CreateAttendance(att); err != nil {
		t.Fatalf("register: %v", err)
	}

	update := &models.SessionAttendance{ID: att.ID, SessionID: "s1", UserID: user.ID, PointsEarned: 20}
	if err := store.MarkAttended(update); err != nil {
		t.Fatalf("mark: %v", err)
	}
	got, _ := store.GetUser(user.ID)
	if got.Points != 20 {
		t.Errorf("balance = %d, want 20", got.Points)
	}

	if err := store.MarkAttended(update); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second mark err = %v, want ErrDuplicate", err)
	}
	got, _ = store.GetUser(user.ID)
	if got.Points != 20 {
		t.Errorf("balance after second mark = %d, want 20", got.Points)
	}
}

func TestGetTopUsersTiebreak(t *testing.T) {
	store := NewMemoryStore()

	base := time.Now()
	later, _ := store.CreateUser(&models.User{Name: "Later", Password: "x", Points: 50, CreatedAt: base.Add(time.Minute)})
	earlier, _ := store.CreateUser(&models.User{Name: "Earlier", Password: "x", Points: 50, CreatedAt: base})
	top, _ := store.CreateUser(&models.User{Name: "Top", Password: "x", Points: 90, CreatedAt: base.Add(2 * time.Minute)})

	users, err := store.GetTopUsers(10)
	if err != nil {
		t.Fatalf("top users: %v", err)
	}
	wantOrder := []string{top.ID, earlier.ID, later.ID}
	for i, want := range wantOrder {
		if users[i].ID != want {
			t.Errorf("position %d = %s, want %s", i, users[i].Name, want)
		}
	}
}

func TestDeleteUnverifiedOTPsKeepsVerified(t *testing.T) {
	store := NewMemoryStore()
	phone := "+31612345678"

	verified := &models.OTP{PhoneNumber: phone, Code: "111111", Verified: true, ExpiresAt: time.Now().Add(time.Hour)}
	pending := &models.OTP{PhoneNumber: phone, Code: "222222", ExpiresAt: time.Now().Add(time.Hour)}
	store.CreateOTP(verified)
	store.CreateOTP(pending)

	if err := store.DeleteUnverifiedOTPs(phone); err != nil {
		t.Fatalf("delete: %v", err)
	}

	latest, err := store.GetLatestOTP(phone)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !latest.Verified {
		t.Error("unverified challenge survived")
	}
	if _, err := store.GetActiveOTP(phone); !errors.Is(err, ErrNotFound) {
		t.Error("active challenge remained after delete")
	}
}

func TestDeleteMissingRecordReturnsNotFound(t *testing.T) {
	store := NewMemoryStore()

	deletes := map[string]func(string) error{
		"user":     store.DeleteUser,
		"category": store.DeleteCategory,
		"article":  store.DeleteArticle,
		"survey":   store.DeleteSurvey,
		"game":     store.DeleteGame,
		"poll":     store.DeletePoll,
		"session":  store.DeleteSession,
		"otp":      store.DeleteOTP,
	}
	for name, del := range deletes {
		if err := del("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("delete missing %s err = %v, want ErrNotFound", name, err)
		}
	}

	game, _ := store.CreateGame(&models.Game{Type: models.GameTypeQuiz, Title: "G"})
	if err := store.DeleteGame(game.ID); err != nil {
		t.Fatalf("delete existing game: %v", err)
	}
	if err := store.DeleteGame(game.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestCreateSurveyOnePerArticle(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.CreateSurvey(&models.Survey{ArticleID: "a1"}); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := store.CreateSurvey(&models.Survey{ArticleID: "a1"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestCreateSurveyRegistersOptions(t *testing.T) {
	store := NewMemoryStore()

	survey, err := store.CreateSurvey(&models.Survey{
		ArticleID: "a1",
		Questions: []models.Question{
			{Text: "Q", Options: []models.Option{{Text: "right", IsCorrect: true}}},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	optionID := survey.Questions[0].Options[0].ID
	option, err := store.GetOption(optionID)
	if err != nil {
		t.Fatalf("get option: %v", err)
	}
	if option.QuestionID != survey.Questions[0].ID {
		t.Error("option not linked to its question")
	}
}
