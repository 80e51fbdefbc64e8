// Package bot implements the command layer: it receives gateway events,
// dispatches slash commands, and drives the reaction-controlled pagination of
// search results.
package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/grafeasgroup/buttercup/blossom"
	"github.com/grafeasgroup/buttercup/discord"
	"github.com/grafeasgroup/buttercup/search"
	"github.com/grafeasgroup/buttercup/telemetry"
)

// Messenger is the slice of the Discord REST client the bot uses to respond
// to commands and manage reaction controls.
type Messenger interface {
	RespondToInteraction(ctx context.Context, interactionID, interactionToken, content string) error
	OriginalInteractionResponse(ctx context.Context, interactionToken string) (*discord.Message, error)
	EditMessage(ctx context.Context, channelID, messageID string, edit discord.MessageEdit, file *discord.File) (*discord.Message, error)
	CreateReaction(ctx context.Context, channelID, messageID, emoji string) error
	DeleteAllReactions(ctx context.Context, channelID, messageID string) error
}

// BlossomAPI is the slice of the Blossom client the bot consumes.
type BlossomAPI interface {
	search.Fetcher
	GetVolunteer(ctx context.Context, username string) (*blossom.Volunteer, error)
	Heatmap(ctx context.Context, params blossom.HeatmapParams) ([]blossom.HeatmapEntry, error)
}

// SearchCacheCapacity bounds how many paginated search messages stay
// navigable at once. Older entries age out; reactions on them are ignored.
const SearchCacheCapacity = 10

// Bot holds the command handlers and their shared state.
type Bot struct {
	ctx       context.Context
	discord   Messenger
	blossom   BlossomAPI
	cache     *search.Cache
	locks     *search.KeyLock
	paginator *search.Paginator
	limiter   *userRateLimiter
}

// New creates the bot. The context bounds all event handling and the rate
// limiter cleanup goroutine. commandsPerMinute <= 0 selects the default.
func New(ctx context.Context, messenger Messenger, api BlossomAPI, commandsPerMinute int) *Bot {
	if commandsPerMinute <= 0 {
		commandsPerMinute = defaultCommandsPerMinute
	}
	return &Bot{
		ctx:       ctx,
		discord:   messenger,
		blossom:   api,
		cache:     search.NewCache(SearchCacheCapacity),
		locks:     search.NewKeyLock(),
		paginator: &search.Paginator{Fetcher: api},
		limiter:   newUserRateLimiter(ctx, commandsPerMinute),
	}
}

// CacheSize reports how many search messages are currently navigable.
func (b *Bot) CacheSize() int {
	return b.cache.Len()
}

// Commands returns the slash command set the bot registers at startup.
func (b *Bot) Commands() []discord.Command {
	return []discord.Command{
		{
			Name:        "search",
			Description: "Searches for transcriptions that contain the given text.",
			Options: []discord.CommandOption{
				{Type: discord.OptionTypeString, Name: "query", Description: "The text to search for (case-insensitive).", Required: true},
			},
		},
		{
			Name:        "heatmap",
			Description: "Display the activity heatmap for the given user.",
			Options: []discord.CommandOption{
				{Type: discord.OptionTypeString, Name: "username", Description: "The user to get the heatmap for.", Required: false},
				{Type: discord.OptionTypeString, Name: "after", Description: "The start date for the heatmap data.", Required: false},
				{Type: discord.OptionTypeString, Name: "before", Description: "The end date for the heatmap data.", Required: false},
			},
		},
	}
}

// HandleInteraction dispatches a slash command invocation.
func (b *Bot) HandleInteraction(interaction discord.Interaction) {
	name := interaction.Data.Name
	ctx := telemetry.WithCorrelation(b.ctx, uuid.New().String())
	ctx, span := telemetry.StartSpan(ctx, "bot", "command "+name, telemetry.CommandAttr(name))
	defer span.End()

	telemetry.CommandsReceived.WithLabelValues(name).Inc()
	log := telemetry.LoggerWithCorr(ctx).With(
		slog.String("command", name),
		slog.String("user_id", interaction.AuthorID()),
	)

	if !b.limiter.Allow(interaction.AuthorID()) {
		log.Warn("command rate limited")
		if err := b.discord.RespondToInteraction(ctx, interaction.ID, interaction.Token,
			"You're sending commands too quickly, please wait a moment."); err != nil {
			log.Error("failed to send rate limit reply", slog.Any("err", err))
		}
		return
	}

	start := time.Now()
	var err error
	switch name {
	case "search":
		err = b.handleSearch(ctx, interaction)
	case "heatmap":
		err = b.handleHeatmap(ctx, interaction)
	default:
		log.Warn("unknown command")
		return
	}
	telemetry.CommandDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.CommandsFailed.WithLabelValues(name).Inc()
		telemetry.RecordError(span, err)
		log.Error("command failed", slog.Any("err", err))
		return
	}
	telemetry.SetSpanSuccess(span)
}
