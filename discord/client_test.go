package discord

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/grafeasgroup/buttercup/testutil"
)

func newTestClient(t *testing.T) (*Client, *testutil.MockDiscordServer) {
	t.Helper()
	m := testutil.NewMockDiscordServer(t)
	c := New("test-token", "app-123")
	c.BaseURL = m.URL
	return c, m
}

func TestEditMessageJSON(t *testing.T) {
	c, m := newTestClient(t)
	m.MockMessageResponse(http.MethodPatch, "/channels/chan-1/messages/msg-1", "msg-1", "chan-1")

	content := "hello"
	msg, err := c.EditMessage(context.Background(), "chan-1", "msg-1", MessageEdit{Content: &content}, nil)
	if err != nil {
		t.Fatalf("EditMessage error: %v", err)
	}

	req := m.LastRequest(t)
	if req.Method != http.MethodPatch || req.Path != "/channels/chan-1/messages/msg-1" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	if got := req.Header.Get("Authorization"); got != "Bot test-token" {
		t.Errorf("Authorization = %q", got)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if body["content"] != "hello" {
		t.Errorf("body = %v", body)
	}
	if msg.ID != "msg-1" {
		t.Errorf("msg = %+v", msg)
	}
}

func TestEditMessageClearsEmbeds(t *testing.T) {
	c, m := newTestClient(t)
	m.MockMessageResponse(http.MethodPatch, "/channels/c/messages/m", "msg-1", "c")

	content := "err"
	empty := []Embed{}
	if _, err := c.EditMessage(context.Background(), "c", "m", MessageEdit{Content: &content, Embeds: &empty}, nil); err != nil {
		t.Fatal(err)
	}
	// An explicit empty embeds array must survive marshalling so Discord
	// clears the previous embed.
	if raw := m.LastRequest(t).Body; !strings.Contains(string(raw), `"embeds":[]`) {
		t.Errorf("payload = %s, want explicit empty embeds", raw)
	}
}

func TestEditMessageMultipart(t *testing.T) {
	var gotPayload MessageEdit
	var gotFile []byte
	var gotFilename string
	c, m := newTestClient(t)
	m.Handlers["PATCH /channels/c/messages/m"] = func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("not a multipart request: %v", err)
			return
		}
		_ = json.Unmarshal([]byte(r.FormValue("payload_json")), &gotPayload)
		file, header, err := r.FormFile("files[0]")
		if err != nil {
			t.Errorf("missing files[0]: %v", err)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		gotFile, _ = io.ReadAll(file)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "msg-1"})
	}

	content := "heatmap"
	file := &File{Name: "heatmap_table.png", ContentType: "image/png", Body: []byte{0x89, 'P', 'N', 'G'}}
	if _, err := c.EditMessage(context.Background(), "c", "m", MessageEdit{Content: &content}, file); err != nil {
		t.Fatalf("EditMessage error: %v", err)
	}
	if gotPayload.Content == nil || *gotPayload.Content != "heatmap" {
		t.Errorf("payload_json content = %v", gotPayload.Content)
	}
	if gotFilename != "heatmap_table.png" {
		t.Errorf("filename = %q", gotFilename)
	}
	if string(gotFile) != string(file.Body) {
		t.Errorf("file body = %v", gotFile)
	}
}

func TestCreateReactionEscapesEmoji(t *testing.T) {
	c, m := newTestClient(t)

	if err := c.CreateReaction(context.Background(), "chan-1", "msg-1", "▶️"); err != nil {
		t.Fatalf("CreateReaction error: %v", err)
	}
	req := m.LastRequest(t)
	if req.Method != http.MethodPut {
		t.Errorf("method = %s, want PUT", req.Method)
	}
	want := "/channels/chan-1/messages/msg-1/reactions/" + url.PathEscape("▶️") + "/@me"
	if req.Path != want {
		t.Errorf("path = %q, want %q", req.Path, want)
	}
}

func TestDeleteAllReactions(t *testing.T) {
	c, m := newTestClient(t)

	if err := c.DeleteAllReactions(context.Background(), "chan-1", "msg-1"); err != nil {
		t.Fatal(err)
	}
	req := m.LastRequest(t)
	if req.Method != http.MethodDelete || req.Path != "/channels/chan-1/messages/msg-1/reactions" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
}

func TestRespondToInteraction(t *testing.T) {
	c, m := newTestClient(t)

	if err := c.RespondToInteraction(context.Background(), "int-1", "tok-1", "Searching..."); err != nil {
		t.Fatalf("RespondToInteraction error: %v", err)
	}
	req := m.LastRequest(t)
	if req.Path != "/interactions/int-1/tok-1/callback" {
		t.Errorf("path = %q", req.Path)
	}
	var body struct {
		Type int `json:"type"`
		Data struct {
			Content string `json:"content"`
		} `json:"data"`
	}
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if body.Type != 4 {
		t.Errorf("callback type = %d, want 4", body.Type)
	}
	if body.Data.Content != "Searching..." {
		t.Errorf("content = %q", body.Data.Content)
	}
}

func TestOriginalInteractionResponse(t *testing.T) {
	c, m := newTestClient(t)
	m.MockMessageResponse(http.MethodGet, "/webhooks/app-123/tok-1/messages/@original", "msg-9", "chan-9")

	msg, err := c.OriginalInteractionResponse(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("OriginalInteractionResponse error: %v", err)
	}
	if req := m.LastRequest(t); req.Path != "/webhooks/app-123/tok-1/messages/@original" {
		t.Errorf("path = %q", req.Path)
	}
	if msg.ID != "msg-9" || msg.ChannelID != "chan-9" {
		t.Errorf("msg = %+v", msg)
	}
}

func TestRegisterCommands(t *testing.T) {
	c, m := newTestClient(t)

	commands := []Command{{
		Name:        "search",
		Description: "Search transcriptions.",
		Options:     []CommandOption{{Type: OptionTypeString, Name: "query", Description: "Query text.", Required: true}},
	}}
	if err := c.RegisterCommands(context.Background(), commands); err != nil {
		t.Fatalf("RegisterCommands error: %v", err)
	}

	req := m.LastRequest(t)
	if req.Method != http.MethodPut || req.Path != "/applications/app-123/commands" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	var gotCommands []Command
	if err := json.Unmarshal(req.Body, &gotCommands); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if len(gotCommands) != 1 || gotCommands[0].Name != "search" {
		t.Errorf("commands = %+v", gotCommands)
	}
}

func TestAPIErrorSurfacesBody(t *testing.T) {
	c, m := newTestClient(t)
	// Handlers key on the decoded request path.
	m.MockError(http.MethodPut, "/channels/c/messages/m/reactions/▶️/@me", http.StatusForbidden, `{"message":"Missing Permissions"}`)

	err := c.CreateReaction(context.Background(), "c", "m", "▶️")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err = %T %v, want *APIError", err, err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Body, "Missing Permissions") {
		t.Errorf("Body = %q", apiErr.Body)
	}
}

func TestInteractionAuthorHelpers(t *testing.T) {
	guild := Interaction{Member: &Member{Nick: "nick [UTC+2]", User: User{ID: "u1", Username: "name", GlobalName: "global"}}}
	if guild.AuthorID() != "u1" {
		t.Errorf("AuthorID = %q", guild.AuthorID())
	}
	if guild.AuthorDisplayName() != "nick [UTC+2]" {
		t.Errorf("AuthorDisplayName = %q", guild.AuthorDisplayName())
	}

	noNick := Interaction{Member: &Member{User: User{ID: "u1", Username: "name", GlobalName: "global"}}}
	if noNick.AuthorDisplayName() != "global" {
		t.Errorf("AuthorDisplayName = %q, want global name fallback", noNick.AuthorDisplayName())
	}

	dm := Interaction{User: &User{ID: "u2", Username: "dmuser"}}
	if dm.AuthorID() != "u2" || dm.AuthorDisplayName() != "dmuser" {
		t.Errorf("dm helpers = %q / %q", dm.AuthorID(), dm.AuthorDisplayName())
	}

	var empty Interaction
	if empty.AuthorID() != "" {
		t.Errorf("empty AuthorID = %q", empty.AuthorID())
	}
}
