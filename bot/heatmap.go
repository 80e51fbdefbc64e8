package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/grafeasgroup/buttercup/blossom"
	"github.com/grafeasgroup/buttercup/discord"
	"github.com/grafeasgroup/buttercup/heatmap"
	"github.com/grafeasgroup/buttercup/helpers"
	"github.com/grafeasgroup/buttercup/telemetry"
)

// isEveryone reports whether the username argument addresses all volunteers.
func isEveryone(username string) bool {
	switch strings.ToLower(username) {
	case "all", "everyone", "everybody":
		return true
	}
	return false
}

// handleHeatmap runs the /heatmap command: resolve the target volunteer and
// time constraints, fetch the day/hour activity data and attach the rendered
// table to the response message.
func (b *Bot) handleHeatmap(ctx context.Context, interaction discord.Interaction) error {
	start := time.Now()
	now := time.Now().UTC()

	username := interaction.Option("username")
	if username == "" {
		username = "me"
	}

	after, before, timeEcho, err := helpers.ParseTimeConstraints(
		interaction.Option("after"), interaction.Option("before"), now)
	if err != nil {
		return b.discord.RespondToInteraction(ctx, interaction.ID, interaction.Token,
			fmt.Sprintf("Sorry, I can't make sense of that time: %v", err))
	}

	initialName, err := b.initialUsername(username, interaction)
	if err != nil {
		return b.discord.RespondToInteraction(ctx, interaction.ID, interaction.Token,
			"Sorry, I couldn't determine a username from that input.")
	}
	if err := b.discord.RespondToInteraction(ctx, interaction.ID, interaction.Token,
		fmt.Sprintf("Generating the heatmap for %s %s...", initialName, timeEcho)); err != nil {
		return fmt.Errorf("acknowledge heatmap: %w", err)
	}
	msg, err := b.discord.OriginalInteractionResponse(ctx, interaction.Token)
	if err != nil {
		return fmt.Errorf("resolve heatmap message: %w", err)
	}

	utcOffset := helpers.ExtractUTCOffset(interaction.AuthorDisplayName())

	params := blossom.HeatmapParams{UTCOffset: utcOffset, After: after, Before: before}
	displayName := "everyone"
	if !isEveryone(username) {
		raw := username
		if strings.EqualFold(username, "me") {
			raw = interaction.AuthorDisplayName()
		}
		name, err := helpers.ExtractUsername(raw)
		if err != nil {
			b.editContent(ctx, msg.ChannelID, msg.ID,
				"Sorry, I couldn't determine a username from that input.")
			return nil
		}
		volunteer, err := b.blossom.GetVolunteer(ctx, name)
		if errors.Is(err, blossom.ErrNotFound) {
			b.editContent(ctx, msg.ChannelID, msg.ID,
				fmt.Sprintf("Sorry, I couldn't find a volunteer named u/%s.", helpers.EscapeFormatting(name)))
			return nil
		}
		if err != nil {
			b.reportBlossomError(ctx, msg.ChannelID, msg.ID, err)
			return err
		}
		if volunteer.Gamma == 0 {
			b.editContent(ctx, msg.ChannelID, msg.ID,
				fmt.Sprintf("u/%s hasn't started transcribing yet, so there is no data to show.",
					helpers.EscapeFormatting(volunteer.Username)))
			return nil
		}
		params.CompletedBy = volunteer.ID
		displayName = "u/" + helpers.EscapeFormatting(volunteer.Username)
	}

	fetchStart := time.Now()
	entries, err := b.blossom.Heatmap(ctx, params)
	telemetry.BlossomRequestDuration.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		b.reportBlossomError(ctx, msg.ChannelID, msg.ID, err)
		return err
	}

	table := heatmap.Pivot(entries)
	png, err := heatmap.Render(table)
	if err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}

	content := fmt.Sprintf("Activity heatmap for %s (%s) %s. (took %s)",
		displayName, helpers.UTCOffsetString(utcOffset), timeEcho,
		helpers.DurationString(time.Since(start)))
	if _, err := b.discord.EditMessage(ctx, msg.ChannelID, msg.ID,
		discord.MessageEdit{Content: &content},
		&discord.File{Name: "heatmap_table.png", ContentType: "image/png", Body: png}); err != nil {
		return fmt.Errorf("edit heatmap message: %w", err)
	}
	return nil
}

// initialUsername renders the unverified username for the first reply,
// before any Blossom lookup has happened.
func (b *Bot) initialUsername(username string, interaction discord.Interaction) (string, error) {
	if isEveryone(username) {
		return "everyone", nil
	}
	raw := username
	if strings.EqualFold(username, "me") {
		raw = interaction.AuthorDisplayName()
	}
	name, err := helpers.ExtractUsername(raw)
	if err != nil {
		return "", err
	}
	return "u/" + helpers.EscapeFormatting(name), nil
}

// reportBlossomError surfaces an upstream failure in the reply message.
func (b *Bot) reportBlossomError(ctx context.Context, channelID, messageID string, err error) {
	telemetry.BlossomErrors.Inc()
	if apiErr, ok := blossom.AsAPIError(err); ok {
		b.editContent(ctx, channelID, messageID, fmt.Sprintf(
			"Something went wrong! Blossom responded with status %d:\n```\n%s\n```",
			apiErr.StatusCode, apiErr.Body))
		return
	}
	b.editContent(ctx, channelID, messageID, "Something went wrong talking to Blossom, please try again.")
}
