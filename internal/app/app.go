package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dune005/syfte/internal/config"
	"github.com/Dune005/syfte/internal/db"
	"github.com/Dune005/syfte/internal/notify"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/service"
	"github.com/Dune005/syfte/internal/storage"
	"github.com/jmoiron/sqlx"
)

type App struct {
	Cfg                 *config.Config
	DB                  *sqlx.DB
	Calendar            *service.Calendar
	Scheduler           *notify.Scheduler
	AuthService         *service.AuthService
	UserService         *service.UserService
	EmailService        *service.EmailService
	FileService         *service.FileService
	GoalService         *service.GoalService
	SharingService      *service.SharingService
	ActionService       *service.ActionService
	SavingService       *service.SavingService
	StreakService       *service.StreakService
	AchievementService  *service.AchievementService
	FriendService       *service.FriendService
	NotificationService *service.NotificationService
	ExportService       *service.ExportService
	DashboardService    *service.DashboardService
}

// New connects to the database, applies pending migrations and wires
// every service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	fileStorage, err := newStorage(ctx, cfg)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	sender, err := newPushSender(cfg)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	calendar := service.NewCalendar(cfg.Location(), nil)
	return Wire(cfg, database, calendar, fileStorage, sender), nil
}

// Wire builds the services on top of an open database. Storage and sender
// may be nil, which disables avatars and push respectively.
func Wire(cfg *config.Config, database *sqlx.DB, calendar *service.Calendar, fileStorage storage.Storage, sender notify.Sender) *App {
	// Repositories
	userRepository := repository.NewUserRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	fileRepository := repository.NewFileRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	participantRepository := repository.NewParticipantRepository(database)
	actionRepository := repository.NewActionRepository(database)
	savingRepository := repository.NewSavingRepository(database)
	streakRepository := repository.NewStreakRepository(database)
	achievementRepository := repository.NewAchievementRepository(database)
	friendshipRepository := repository.NewFriendshipRepository(database)
	subscriptionRepository := repository.NewPushSubscriptionRepository(database)
	preferenceRepository := repository.NewNotificationPreferenceRepository(database)

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	fileService := service.NewFileService(fileRepository, fileStorage)
	authService := service.NewAuthService(
		userRepository,
		tokenRepository,
		emailService,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
		cfg.TokenPasswordResetExpiry,
	)
	userService := service.NewUserService(userRepository, friendshipRepository, fileService, emailService)
	achievementService := service.NewAchievementService(achievementRepository, participantRepository, friendshipRepository, calendar)
	streakService := service.NewStreakService(database, streakRepository, calendar)
	goalService := service.NewGoalService(goalRepository, participantRepository, savingRepository, achievementService, cfg.MaxActiveGoals)
	sharingService := service.NewSharingService(database, goalRepository, participantRepository, friendshipRepository, achievementService)
	actionService := service.NewActionService(actionRepository, cfg.MaxCustomActions)
	savingService := service.NewSavingService(
		database,
		savingRepository,
		goalRepository,
		participantRepository,
		actionService,
		streakService,
		achievementService,
		calendar,
	)
	friendService := service.NewFriendService(
		database,
		userRepository,
		friendshipRepository,
		participantRepository,
		goalRepository,
		savingRepository,
		achievementService,
		emailService,
		calendar,
	)
	notificationService := service.NewNotificationService(
		subscriptionRepository,
		preferenceRepository,
		sender,
		calendar,
		cfg.VAPIDPublicKey,
		cfg.AppURL,
	)
	exportService := service.NewExportService(
		userRepository,
		goalRepository,
		savingRepository,
		actionRepository,
		achievementRepository,
		streakService,
		calendar,
		cfg.AppName,
	)
	dashboardService := service.NewDashboardService(goalRepository, savingRepository, achievementRepository, streakService)

	return &App{
		Cfg:                 cfg,
		DB:                  database,
		Calendar:            calendar,
		Scheduler:           notify.NewScheduler(calendar.Location()),
		AuthService:         authService,
		UserService:         userService,
		EmailService:        emailService,
		FileService:         fileService,
		GoalService:         goalService,
		SharingService:      sharingService,
		ActionService:       actionService,
		SavingService:       savingService,
		StreakService:       streakService,
		AchievementService:  achievementService,
		FriendService:       friendService,
		NotificationService: notificationService,
		ExportService:       exportService,
		DashboardService:    dashboardService,
	}
}

// newStorage returns S3 storage when a bucket is configured. Development
// falls back to in-memory storage, production runs without avatars.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	s, err := storage.New(ctx, cfg)
	switch {
	case err == nil:
		return s, nil
	case !errors.Is(err, storage.ErrDisabled):
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	case cfg.IsDevelopment():
		slog.Info("no S3 bucket configured, using in-memory storage")
		return storage.NewMemory(cfg.AppURL + "/files"), nil
	default:
		slog.Warn("no S3 bucket configured, avatar uploads disabled")
		return nil, nil
	}
}

func newPushSender(cfg *config.Config) (notify.Sender, error) {
	if !cfg.NotifyEnabled || cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		slog.Info("web push disabled")
		return nil, nil
	}

	sender, err := notify.NewWebPush(notify.WebPushConfig{
		PublicKey:  cfg.VAPIDPublicKey,
		PrivateKey: cfg.VAPIDPrivateKey,
		Subject:    cfg.VAPIDSubject,
		TTL:        cfg.NotifyTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize web push: %w", err)
	}
	return sender, nil
}

// ScheduleJobs registers the reminder and token cleanup jobs.
func (a *App) ScheduleJobs() error {
	if a.Cfg.NotifyEnabled {
		err := a.Scheduler.AddJob(a.Cfg.NotifySchedule, "reminders", func(ctx context.Context) error {
			_, err := a.NotificationService.RunReminders(ctx)
			if errors.Is(err, service.ErrPushDisabled) {
				return nil
			}
			return err
		})
		if err != nil {
			return err
		}
	}

	return a.Scheduler.AddJob("0 3 * * *", "token_cleanup", func(ctx context.Context) error {
		_, err := a.AuthService.CleanupExpiredTokens()
		return err
	})
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
