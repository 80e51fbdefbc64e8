package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grafeasgroup/buttercup/blossom"
	"github.com/grafeasgroup/buttercup/discord"
	"github.com/grafeasgroup/buttercup/helpers"
	"github.com/grafeasgroup/buttercup/search"
	"github.com/grafeasgroup/buttercup/telemetry"
)

// handleSearch runs the /search command: acknowledge immediately so the user
// sees the bot is responsive, then fill the message in with the first result
// page and its navigation controls.
func (b *Bot) handleSearch(ctx context.Context, interaction discord.Interaction) error {
	start := time.Now()
	query := interaction.Option("query")
	if query == "" {
		return b.discord.RespondToInteraction(ctx, interaction.ID, interaction.Token,
			"Please provide a text to search for.")
	}

	if err := b.discord.RespondToInteraction(ctx, interaction.ID, interaction.Token,
		fmt.Sprintf("Searching for transcriptions containing %q...", query)); err != nil {
		return fmt.Errorf("acknowledge search: %w", err)
	}
	msg, err := b.discord.OriginalInteractionResponse(ctx, interaction.Token)
	if err != nil {
		return fmt.Errorf("resolve search message: %w", err)
	}

	entry := search.Entry{
		Query:       query,
		CurrentPage: 0,
		RequesterID: interaction.AuthorID(),
	}

	unlock := b.locks.Lock(msg.ID)
	defer unlock()
	return b.showSearchPage(ctx, start, msg.ChannelID, msg.ID, entry, 0)
}

// HandleReaction processes a reaction event as a pagination control. Cache
// misses, reactions by anyone but the original requester and controls that
// are not currently offered are all ignored without a reply. The whole
// get-decide-set sequence runs under the per-message lock so two quick
// reactions on the same message cannot lose an update.
func (b *Bot) HandleReaction(reaction discord.ReactionAdd) {
	start := time.Now()
	ctx := telemetry.WithCorrelation(b.ctx, uuid.New().String())

	unlock := b.locks.Lock(reaction.MessageID)
	defer unlock()

	entry, ok := b.cache.Get(reaction.MessageID)
	if !ok {
		// Not a search message, or the entry aged out.
		telemetry.ReactionsIgnored.Inc()
		return
	}
	if reaction.UserID != entry.RequesterID {
		// Only the user who executed the query may paginate. This also
		// filters out the bot's own control reactions.
		telemetry.ReactionsIgnored.Inc()
		return
	}

	totalPages := 1
	if entry.Response != nil {
		totalPages = (entry.Response.Count + search.DisplayPageSize - 1) / search.DisplayPageSize
	}
	delta, ok := search.DeltaForEmoji(reaction.Emoji.Name, entry.CurrentPage, totalPages)
	if !ok {
		telemetry.ReactionsIgnored.Inc()
		return
	}
	telemetry.ReactionsHandled.Inc()

	ctx, span := telemetry.StartSpan(ctx, "bot", "search paginate",
		telemetry.QueryAttr(entry.Query), telemetry.PageAttr(entry.CurrentPage+delta))
	defer span.End()

	if err := b.showSearchPage(ctx, start, reaction.ChannelID, reaction.MessageID, entry, delta); err != nil {
		telemetry.RecordError(span, err)
		telemetry.LoggerWithCorr(ctx).Error("pagination failed",
			slog.String("message_id", reaction.MessageID), slog.Any("err", err))
		return
	}
	telemetry.SetSpanSuccess(span)
}

// showSearchPage advances the entry by delta pages, renders the resulting
// page into the message and re-attaches the valid controls. On success the
// cache entry is replaced; on a fetch error it is left untouched so the user
// can retry by re-clicking the control.
func (b *Bot) showSearchPage(ctx context.Context, start time.Time, channelID, messageID string, entry search.Entry, delta int) error {
	log := telemetry.LoggerWithCorr(ctx)

	// Drop the stale controls before (possibly) fetching; the valid set is
	// recomputed for the new page below.
	if err := b.discord.DeleteAllReactions(ctx, channelID, messageID); err != nil {
		log.Debug("failed to clear reactions", slog.String("message_id", messageID), slog.Any("err", err))
	}

	fetchStart := time.Now()
	page, err := b.paginator.Advance(ctx, entry, delta)
	if err != nil {
		if apiErr, ok := blossom.AsAPIError(err); ok {
			telemetry.BlossomErrors.Inc()
			b.editContent(ctx, channelID, messageID, fmt.Sprintf(
				"Something went wrong! Blossom responded with status %d:\n```\n%s\n```",
				apiErr.StatusCode, apiErr.Body))
			return err
		}
		var consistencyErr *search.ConsistencyError
		if errors.As(err, &consistencyErr) {
			b.editContent(ctx, channelID, messageID,
				"Something went wrong while browsing the results, please run the search again.")
			return err
		}
		return err
	}
	if page.Fetched {
		telemetry.SearchFetches.Inc()
		telemetry.BlossomRequestDuration.Observe(time.Since(fetchStart).Seconds())
	} else {
		telemetry.SearchWindowHits.Inc()
	}

	if page.NoResults {
		b.editContent(ctx, channelID, messageID, fmt.Sprintf(
			"Sorry, no transcriptions containing %q were found. (took %s)",
			entry.Query, helpers.DurationString(time.Since(start))))
		return nil
	}

	b.cache.Set(messageID, page.Entry, time.Now().UTC())
	telemetry.SetSearchCacheSize(b.cache.Len())

	var description strings.Builder
	for _, item := range page.Items {
		description.WriteString(search.FormatResult(item.Result, item.Num, entry.Query))
	}

	content := fmt.Sprintf("Here are your search results for %q! (took %s)",
		entry.Query, helpers.DurationString(time.Since(start)))
	embeds := []discord.Embed{{
		Title:       fmt.Sprintf("Results for %q", entry.Query),
		Description: description.String(),
		Footer: &discord.EmbedFooter{Text: fmt.Sprintf("Page %d/%d (%d results)",
			page.Entry.CurrentPage+1, page.TotalPages, page.TotalCount)},
	}}
	if _, err := b.discord.EditMessage(ctx, channelID, messageID,
		discord.MessageEdit{Content: &content, Embeds: &embeds}, nil); err != nil {
		return fmt.Errorf("edit search message: %w", err)
	}

	for _, emoji := range search.ControlEmojis(page.Entry.CurrentPage, page.TotalPages) {
		if err := b.discord.CreateReaction(ctx, channelID, messageID, emoji); err != nil {
			log.Warn("failed to attach control", slog.String("emoji", emoji), slog.Any("err", err))
		}
	}
	return nil
}

// editContent is a best-effort plain-text edit used for error and no-result
// replies. The target message may have been deleted; that failure is only
// logged.
func (b *Bot) editContent(ctx context.Context, channelID, messageID, content string) {
	if _, err := b.discord.EditMessage(ctx, channelID, messageID,
		discord.MessageEdit{Content: &content, Embeds: &[]discord.Embed{}}, nil); err != nil {
		telemetry.LoggerWithCorr(ctx).Warn("failed to edit message",
			slog.String("message_id", messageID), slog.Any("err", err))
	}
}
