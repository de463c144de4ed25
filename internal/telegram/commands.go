package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"meal_tracker_api/internal/domain"
	"meal_tracker_api/internal/logging"
	"meal_tracker_api/internal/meal"
)

const (
	commandStart = "/start"
	commandToday = "/today"
	commandStats = "/stats"
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type telegramUsers interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (domain.User, error)
}

type todayMeals interface {
	Today(ctx context.Context, userID, timezone string) ([]domain.Meal, error)
}

type statsSource interface {
	CountUsers(ctx context.Context) (int64, error)
	CountMeals(ctx context.Context, since time.Time) (int64, error)
}

// Commands answers the bot's slash commands.
type Commands struct {
	users  telegramUsers
	meals  todayMeals
	stats  statsSource
	logger *logrus.Entry
	now    func() time.Time
}

// NewCommands wires the command handlers.
func NewCommands(users telegramUsers, meals todayMeals, stats statsSource, logger *logrus.Entry) (*Commands, error) {
	if users == nil || meals == nil || stats == nil {
		return nil, errors.New("users, meals and stats are required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	return &Commands{
		users:  users,
		meals:  meals,
		stats:  stats,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (c *Commands) options() []bot.Option {
	return []bot.Option{
		bot.WithMessageTextHandler(commandStart, bot.MatchTypePrefix, c.handler(commandStart, c.startReply)),
		bot.WithMessageTextHandler(commandToday, bot.MatchTypePrefix, c.handler(commandToday, c.todayReply)),
		bot.WithMessageTextHandler(commandStats, bot.MatchTypePrefix, c.handler(commandStats, c.statsReply)),
	}
}

type replyFunc func(ctx context.Context, from *models.User) string

func (c *Commands) handler(command string, reply replyFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if b == nil {
			return
		}
		c.respond(ctx, b, update, command, reply)
	}
}

func (c *Commands) respond(ctx context.Context, sender messageSender, update *models.Update, command string, reply replyFunc) {
	if update == nil || update.Message == nil {
		return
	}

	msg := update.Message
	logging.WithContext(c.logger, logging.Context{
		TelegramID: userID(msg.From),
		Event:      "telegram_command",
	}).WithFields(logging.Fields{
		"command": command,
		"chat_id": msg.Chat.ID,
	}).Info("telegram command received")

	text := reply(ctx, msg.From)
	if _, err := sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   text,
	}); err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "telegram_send_failed",
			"command": command,
			"chat_id": msg.Chat.ID,
		}).WithError(err).Warn("failed to send telegram reply")
	}
}

func (c *Commands) startReply(_ context.Context, from *models.User) string {
	name := ""
	if from != nil {
		name = strings.TrimSpace(from.FirstName)
	}
	greeting := "Hi!"
	if name != "" {
		greeting = fmt.Sprintf("Hi, %s!", name)
	}

	return greeting + " Sign in to the meal tracker web app with the Telegram login button, then use /today here to see what you ate today."
}

func (c *Commands) todayReply(ctx context.Context, from *models.User) string {
	u, reply, ok := c.lookup(ctx, from)
	if !ok {
		return reply
	}

	meals, err := c.meals.Today(ctx, u.ID, meal.DefaultTimezone)
	if err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "telegram_today_failed",
			"user_id": u.ID,
		}).WithError(err).Error("failed to load today's meals")
		return "Something went wrong, please try again later."
	}

	return FormatToday(meals)
}

func (c *Commands) statsReply(ctx context.Context, from *models.User) string {
	u, reply, ok := c.lookup(ctx, from)
	if !ok {
		return reply
	}
	if u.Role != domain.RoleAdmin {
		return "This command is only available to admins."
	}

	text, err := c.collectStats(ctx)
	if err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "telegram_stats_failed",
			"user_id": u.ID,
		}).WithError(err).Error("failed to collect stats")
		return "Something went wrong, please try again later."
	}

	return text
}

func (c *Commands) collectStats(ctx context.Context) (string, error) {
	users, err := c.stats.CountUsers(ctx)
	if err != nil {
		return "", err
	}

	total, err := c.stats.CountMeals(ctx, time.Time{})
	if err != nil {
		return "", err
	}

	start, _, _ := meal.DayRange(c.now(), meal.DefaultTimezone)
	today, err := c.stats.CountMeals(ctx, start)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Users: %d\nMeals: %d\nMeals today (UTC): %d", users, total, today), nil
}

// lookup resolves the sender's account. When ok is false, reply explains why.
func (c *Commands) lookup(ctx context.Context, from *models.User) (domain.User, string, bool) {
	if from == nil || from.ID == 0 {
		return domain.User{}, "I could not tell who you are.", false
	}

	u, err := c.users.GetByTelegramID(ctx, from.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, "You have no account yet. Sign in to the web app with Telegram first.", false
		}
		c.logger.WithFields(logging.Fields{
			"event":       "telegram_user_lookup_failed",
			"telegram_id": from.ID,
		}).WithError(err).Error("failed to load user")
		return domain.User{}, "Something went wrong, please try again later.", false
	}

	return u, "", true
}

// FormatToday renders meals and their totals as a chat message.
func FormatToday(meals []domain.Meal) string {
	if len(meals) == 0 {
		return "No meals logged today."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today (UTC): %d meal(s)\n", len(meals))
	for _, m := range meals {
		line := fmt.Sprintf("%s %s", m.Timestamp.UTC().Format("15:04"), m.Type)
		if desc := strings.TrimSpace(m.Description); desc != "" {
			line += " " + desc
		}
		fmt.Fprintf(&b, "- %s: %.0f kcal\n", line, m.TotalCalories)
	}

	summary := meal.Summarize(meals)
	fmt.Fprintf(&b, "Total: %.0f kcal, protein %.1f g, fat %.1f g, carbs %.1f g",
		summary.Calories, summary.Protein, summary.Fat, summary.Carbs)

	return b.String()
}
