package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const pdfRecentSavings = 100

// ExportBundle is the full JSON export of a user's data.
type ExportBundle struct {
	ExportedAt    time.Time                    `json:"exported_at"`
	User          *model.User                  `json:"user"`
	Goals         []*model.GoalView            `json:"goals"`
	Savings       []*model.SavingDetail        `json:"savings"`
	CustomActions []*model.Action              `json:"custom_actions"`
	Achievements  []*model.UnlockedAchievement `json:"achievements"`
	Streak        *model.StreakView            `json:"streak"`
}

type ExportService struct {
	users        repository.UserRepository
	goals        repository.GoalRepository
	savings      repository.SavingRepository
	actions      repository.ActionRepository
	achievements repository.AchievementRepository
	streaks      *StreakService
	calendar     *Calendar
	appName      string
	printer      *message.Printer
}

func NewExportService(
	users repository.UserRepository,
	goals repository.GoalRepository,
	savings repository.SavingRepository,
	actions repository.ActionRepository,
	achievements repository.AchievementRepository,
	streaks *StreakService,
	calendar *Calendar,
	appName string,
) *ExportService {
	return &ExportService{
		users:        users,
		goals:        goals,
		savings:      savings,
		actions:      actions,
		achievements: achievements,
		streaks:      streaks,
		calendar:     calendar,
		appName:      appName,
		printer:      message.NewPrinter(language.MustParse("de-CH")),
	}
}

// CHF formats an amount the Swiss way, e.g. CHF 1’234.50.
func (s *ExportService) CHF(d decimal.Decimal) string {
	return s.printer.Sprintf("CHF %.2f", d.InexactFloat64())
}

// Filename builds an attachment name like syfte-savings-2024-05-01.csv.
func (s *ExportService) Filename(kind, ext string) string {
	return fmt.Sprintf("%s-%s-%s.%s", strings.ToLower(s.appName), kind, s.calendar.Today(), ext)
}

// WriteCSV writes all savings of the user, newest first.
func (s *ExportService) WriteCSV(w io.Writer, userID string) error {
	savings, err := s.savings.Savings(repository.SavingFilter{UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to load savings: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "goal", "action", "amount", "note"}); err != nil {
		return err
	}

	for _, sv := range savings {
		action := ""
		if sv.ActionTitle != nil {
			action = *sv.ActionTitle
		}
		record := []string{
			sv.CreatedAt.In(s.calendar.Location()).Format("2006-01-02 15:04"),
			csvSafe(sv.GoalTitle),
			csvSafe(action),
			sv.Amount.StringFixed(2),
			csvSafe(sv.Note),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// csvSafe neutralises values spreadsheet apps would run as formulas.
func csvSafe(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

func (s *ExportService) Bundle(userID string) (*ExportBundle, error) {
	user, err := s.users.ByID(userID)
	if err != nil {
		return nil, err
	}

	userGoals, err := s.goals.Goals(userID, repository.GoalSortRecent)
	if err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}
	goals := make([]*model.GoalView, len(userGoals))
	for i, g := range userGoals {
		goals[i] = model.NewGoalView(&g.Goal, g.Role)
	}

	savings, err := s.savings.Savings(repository.SavingFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to load savings: %w", err)
	}

	actions, err := s.actions.CustomActions(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actions: %w", err)
	}

	achievements, err := s.achievements.Latest(userID, 1000)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	streak, err := s.streaks.Streak(userID)
	if err != nil {
		return nil, err
	}

	return &ExportBundle{
		ExportedAt:    time.Now().UTC(),
		User:          user,
		Goals:         goals,
		Savings:       nonNil(savings),
		CustomActions: nonNil(actions),
		Achievements:  nonNil(achievements),
		Streak:        streak,
	}, nil
}

// WritePDF renders a summary report: profile, totals, goals and the latest
// savings.
func (s *ExportService) WritePDF(w io.Writer, userID string) error {
	bundle, err := s.Bundle(userID)
	if err != nil {
		return err
	}

	total, count, err := s.savings.Totals(userID)
	if err != nil {
		return fmt.Errorf("failed to load totals: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252 for umlauts
	pdf.SetTitle(tr(s.appName+" report"), false)
	pdf.SetAuthor(tr(s.appName), false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(s.appName+" savings report"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 6, tr("Created "+s.calendar.Now().Format("02.01.2006 15:04")), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	user := bundle.User
	section(pdf, tr, "Profile")
	keyValue(pdf, tr, "Name", user.DisplayName())
	keyValue(pdf, tr, "Username", user.Username)
	keyValue(pdf, tr, "Email", user.Email)
	keyValue(pdf, tr, "Member since", user.CreatedAt.In(s.calendar.Location()).Format("02.01.2006"))
	pdf.Ln(4)

	active, completed := 0, 0
	for _, g := range bundle.Goals {
		if g.IsCompleted() {
			completed++
		} else {
			active++
		}
	}

	section(pdf, tr, "Totals")
	keyValue(pdf, tr, "Total saved", s.CHF(total))
	keyValue(pdf, tr, "Savings logged", fmt.Sprintf("%d", count))
	keyValue(pdf, tr, "Current streak", fmt.Sprintf("%d days", bundle.Streak.CurrentStreak))
	keyValue(pdf, tr, "Longest streak", fmt.Sprintf("%d days", bundle.Streak.LongestStreak))
	keyValue(pdf, tr, "Goals", fmt.Sprintf("%d active, %d completed", active, completed))
	keyValue(pdf, tr, "Achievements", fmt.Sprintf("%d", len(bundle.Achievements)))
	pdf.Ln(4)

	section(pdf, tr, "Goals")
	goalCols := []float64{70, 35, 35, 25, 25}
	tableHeader(pdf, tr, goalCols, "Goal", "Saved", "Target", "Progress", "Status")
	for _, g := range bundle.Goals {
		tableRow(pdf, tr, goalCols,
			truncate(g.Title, 40),
			s.CHF(g.CurrentAmount),
			s.CHF(g.TargetAmount),
			g.ProgressPercent.StringFixed(2)+" %",
			g.Status,
		)
	}
	pdf.Ln(4)

	section(pdf, tr, "Latest savings")
	savingCols := []float64{30, 50, 45, 30, 35}
	tableHeader(pdf, tr, savingCols, "Date", "Goal", "Action", "Amount", "Note")
	for i, sv := range bundle.Savings {
		if i == pdfRecentSavings {
			break
		}
		action := ""
		if sv.ActionTitle != nil {
			action = *sv.ActionTitle
		}
		tableRow(pdf, tr, savingCols,
			sv.CreatedAt.In(s.calendar.Location()).Format("02.01.2006"),
			truncate(sv.GoalTitle, 28),
			truncate(action, 25),
			s.CHF(sv.Amount),
			truncate(sv.Note, 18),
		)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return pdf.Output(w)
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(1)
	pdf.SetFont("Helvetica", "", 10)
}

func keyValue(pdf *fpdf.Fpdf, tr func(string) string, key, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, 6, tr(key), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
}

func tableHeader(pdf *fpdf.Fpdf, tr func(string) string, widths []float64, cols ...string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 240, 235)
	for i, c := range cols {
		pdf.CellFormat(widths[i], 7, tr(c), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
}

func tableRow(pdf *fpdf.Fpdf, tr func(string) string, widths []float64, cols ...string) {
	for i, c := range cols {
		pdf.CellFormat(widths[i], 6, tr(c), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
