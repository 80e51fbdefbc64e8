package discord

import (
	"context"
	"fmt"
	"net/http"
)

// Application command option types (Discord constants).
const (
	OptionTypeString = 3
)

// CommandOption describes one option of a slash command.
type CommandOption struct {
	Type        int    `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Command describes a slash command to register.
type Command struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Options     []CommandOption `json:"options,omitempty"`
}

// RegisterCommands bulk-overwrites the application's global slash commands.
// Discord propagates global commands lazily, so registration is done once at
// startup rather than per guild.
func (c *Client) RegisterCommands(ctx context.Context, commands []Command) error {
	path := fmt.Sprintf("/applications/%s/commands", c.ApplicationID)
	return c.do(ctx, http.MethodPut, path, commands, nil)
}
