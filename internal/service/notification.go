package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dune005/syfte/internal/metrics"
	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/notify"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/validation"
	"github.com/google/uuid"
)

var (
	ErrPushDisabled    = errors.New("push notifications are not configured")
	ErrNoSubscriptions = errors.New("no push subscriptions registered")
)

type SubscriptionKeys struct {
	P256dh string `json:"p256dh" validate:"required,max=255"`
	Auth   string `json:"auth" validate:"required,max=255"`
}

type SubscribeInput struct {
	Endpoint string           `json:"endpoint" validate:"required,url,max=500"`
	Keys     SubscriptionKeys `json:"keys"`
}

type PreferenceInput struct {
	Enabled  bool   `json:"enabled"`
	SendTime string `json:"send_time" validate:"required,hhmm"`
}

type NotificationService struct {
	subscriptions  repository.PushSubscriptionRepository
	preferences    repository.NotificationPreferenceRepository
	sender         notify.Sender
	calendar       *Calendar
	vapidPublicKey string
	appURL         string
}

// NewNotificationService accepts a nil sender when push is not configured.
func NewNotificationService(
	subscriptions repository.PushSubscriptionRepository,
	preferences repository.NotificationPreferenceRepository,
	sender notify.Sender,
	calendar *Calendar,
	vapidPublicKey string,
	appURL string,
) *NotificationService {
	return &NotificationService{
		subscriptions:  subscriptions,
		preferences:    preferences,
		sender:         sender,
		calendar:       calendar,
		vapidPublicKey: vapidPublicKey,
		appURL:         appURL,
	}
}

func (s *NotificationService) VAPIDPublicKey() (string, error) {
	if s.vapidPublicKey == "" {
		return "", ErrPushDisabled
	}
	return s.vapidPublicKey, nil
}

func (s *NotificationService) Subscribe(userID string, in SubscribeInput, userAgent string) (*model.PushSubscription, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if len(userAgent) > 255 {
		userAgent = userAgent[:255]
	}

	sub := &model.PushSubscription{
		ID:        uuid.New().String(),
		UserID:    userID,
		Endpoint:  in.Endpoint,
		P256dh:    in.Keys.P256dh,
		Auth:      in.Keys.Auth,
		UserAgent: userAgent,
		CreatedAt: time.Now().UTC(),
	}

	err := s.subscriptions.Upsert(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	slog.Info("push subscription saved", "user_id", userID)
	return sub, nil
}

func (s *NotificationService) Unsubscribe(userID, endpoint string) error {
	if endpoint == "" {
		return validation.FieldErrors{"endpoint": "is required"}
	}
	return s.subscriptions.Delete(userID, endpoint)
}

// Preferences returns the user's reminder settings, defaulting to
// disabled at 19:00.
func (s *NotificationService) Preferences(userID string) (*model.NotificationPreference, error) {
	pref, err := s.preferences.ByUserID(userID)
	if errors.Is(err, repository.ErrPreferenceNotFound) {
		return &model.NotificationPreference{
			UserID:   userID,
			Enabled:  false,
			SendTime: model.DefaultSendTime,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return pref, nil
}

func (s *NotificationService) UpdatePreferences(userID string, in PreferenceInput) (*model.NotificationPreference, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	pref, err := s.Preferences(userID)
	if err != nil {
		return nil, err
	}

	pref.Enabled = in.Enabled
	pref.SendTime = in.SendTime

	err = s.preferences.Save(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}

	return pref, nil
}

// SendTest pushes a test message to every subscription of the user.
func (s *NotificationService) SendTest(ctx context.Context, userID string) (int, error) {
	if s.sender == nil {
		return 0, ErrPushDisabled
	}

	subs, err := s.subscriptions.ByUserID(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return 0, ErrNoSubscriptions
	}

	return s.deliver(ctx, subs, notify.Message{
		Title: "Syfte",
		Body:  "Push notifications are working.",
		URL:   s.appURL,
		Tag:   "test",
	}), nil
}

// RunReminders sends the daily reminder to every user whose send time is
// the current minute in the app time zone. Users who already saved today
// are skipped. Returns the number of users reminded.
func (s *NotificationService) RunReminders(ctx context.Context) (int, error) {
	if s.sender == nil {
		return 0, ErrPushDisabled
	}

	now := s.calendar.Now()
	today := s.calendar.Day(now)
	sendTime := now.Format("15:04")

	targets, err := s.preferences.Due(sendTime, today)
	if err != nil {
		return 0, fmt.Errorf("failed to load due reminders: %w", err)
	}

	reminded := 0
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return reminded, err
		}

		if t.LastSavingDate != nil && *t.LastSavingDate == today {
			continue
		}

		subs, err := s.subscriptions.ByUserID(t.UserID)
		if err != nil {
			slog.Error("failed to load subscriptions", "error", err, "user_id", t.UserID)
			continue
		}
		if len(subs) == 0 {
			continue
		}

		if s.deliver(ctx, subs, reminderMessage(t, today, s.appURL)) > 0 {
			reminded++
			metrics.RemindersSent.Inc()
		}

		if err := s.preferences.MarkSent(t.UserID, today); err != nil {
			slog.Error("failed to mark reminder sent", "error", err, "user_id", t.UserID)
		}
	}

	if reminded > 0 {
		slog.Info("reminders sent", "count", reminded, "send_time", sendTime)
	}
	return reminded, nil
}

// deliver sends msg to every subscription, dropping those the push service
// reports as gone. Returns the number of successful deliveries.
func (s *NotificationService) deliver(ctx context.Context, subs []*model.PushSubscription, msg notify.Message) int {
	sent := 0
	for _, sub := range subs {
		err := s.sender.Send(ctx, sub, msg)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, notify.ErrGone):
			if delErr := s.subscriptions.DeleteEndpoint(sub.Endpoint); delErr != nil {
				slog.Error("failed to delete expired subscription", "error", delErr, "user_id", sub.UserID)
			} else {
				slog.Info("expired push subscription removed", "user_id", sub.UserID)
			}
		default:
			slog.Warn("push delivery failed", "error", err, "user_id", sub.UserID)
		}
	}
	return sent
}

func reminderMessage(t *model.ReminderTarget, today, appURL string) notify.Message {
	msg := notify.Message{
		Title: "Time to save",
		Body:  "Log your first saving today and start a streak.",
		URL:   appURL,
		Tag:   "daily-reminder",
	}

	if t.CurrentStreak > 0 && t.LastSavingDate != nil && *t.LastSavingDate == model.PreviousDay(today) {
		msg.Title = "Don't break your streak"
		msg.Body = fmt.Sprintf("Keep your %d-day streak: log a saving today.", t.CurrentStreak)
	}
	return msg
}
