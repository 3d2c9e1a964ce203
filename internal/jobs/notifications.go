package jobs

import (
	"log"
	"time"

	"github.com/sawtna-yabni/community-backend/internal/models"
	"github.com/sawtna-yabni/community-backend/internal/services"
	"github.com/sawtna-yabni/community-backend/internal/storage"
)

// perRecipientDelay spaces out WhatsApp sends so the fan-out never
// hammers the provider
const perRecipientDelay = 500 * time.Millisecond

// otpPurgeInterval is how often expired verification codes are swept
const otpPurgeInterval = 1 * time.Hour

// NotificationJob runs work that must never block a request: announcing
// new discussion sessions to every user, and purging expired OTP rows.
// Announcements go through a queue consumed by a single worker; a failed
// send to one recipient is logged and the fan-out continues.
type NotificationJob struct {
	store   storage.Store
	gateway services.Gateway

	announcements chan *models.DiscussionSession
	stop          chan struct{}
	isRunning     bool
}

// NewNotificationJob creates a new notification job
func NewNotificationJob(store storage.Store, gateway services.Gateway) *NotificationJob {
	return &NotificationJob{
		store:         store,
		gateway:       gateway,
		announcements: make(chan *models.DiscussionSession, 16),
		stop:          make(chan struct{}),
	}
}

// Start launches the worker goroutines
func (n *NotificationJob) Start() {
	if n.isRunning {
		log.Println("Notification jobs already running")
		return
	}
	n.isRunning = true
	log.Println("Starting notification jobs...")

	go n.runAnnouncements()
	go n.runOTPPurge()
}

// Stop halts the workers
func (n *NotificationJob) Stop() {
	if !n.isRunning {
		return
	}
	n.isRunning = false
	close(n.stop)
	log.Println("Stopping notification jobs...")
}

// AnnounceSession queues a fan-out to all users. Non-blocking: when the
// queue is full the announcement is dropped with a log line rather than
// stalling the admin request that triggered it.
func (n *NotificationJob) AnnounceSession(session *models.DiscussionSession) {
	select {
	case n.announcements <- session:
	default:
		log.Printf("⚠️  Announcement queue full, dropping session %s", session.ID)
	}
}

func (n *NotificationJob) runAnnouncements() {
	for {
		select {
		case <-n.stop:
			return
		case session := <-n.announcements:
			n.fanOut(session)
		}
	}
}

func (n *NotificationJob) fanOut(session *models.DiscussionSession) {
	users, err := n.store.GetAllUsers()
	if err != nil {
		log.Printf("❌ Announcement for session %s aborted: %v", session.ID, err)
		return
	}

	sent := 0
	for _, user := range users {
		if user.PhoneNumber == nil || !user.PhoneVerified {
			continue
		}
		if err := n.gateway.SendSessionInvite(*user.PhoneNumber, user.Name, session); err != nil {
			log.Printf("❌ Session invite to %s failed: %v", user.ID, err)
			continue
		}
		sent++
		time.Sleep(perRecipientDelay)
	}
	log.Printf("✅ Session %q announced to %d users", session.Title, sent)
}

func (n *NotificationJob) runOTPPurge() {
	ticker := time.NewTicker(otpPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.stop:
			return
		case <-ticker.C:
			if err := n.store.DeleteExpiredOTPs(); err != nil {
				log.Printf("❌ Expired OTP purge failed: %v", err)
			}
		}
	}
}
