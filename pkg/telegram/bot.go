package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf16"
)

// MaxMessageLength is the longest text sendMessage accepts.
const MaxMessageLength = 4096

type Bot struct {
	baseURL    string
	httpClient *http.Client
	self       User
}

func NewBot(apiURL, token string, httpClient *http.Client) *Bot {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Bot{
		baseURL:    strings.TrimRight(apiURL, "/") + "/bot" + token,
		httpClient: httpClient,
	}
}

type User struct {
	ID       int64  `json:"id"`
	IsBot    bool   `json:"is_bot"`
	Username string `json:"username"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	User   *User  `json:"user,omitempty"`
}

type Message struct {
	MessageID int64           `json:"message_id"`
	From      *User           `json:"from"`
	Chat      Chat            `json:"chat"`
	Text      string          `json:"text"`
	Entities  []MessageEntity `json:"entities"`
}

// Update is the payload Telegram posts to the webhook.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// GetMe fetches and remembers the bot's own identity.
func (b *Bot) GetMe(ctx context.Context) (User, error) {
	var me User
	if err := b.call(ctx, "getMe", url.Values{}, &me); err != nil {
		return User{}, err
	}
	b.self = me
	return me, nil
}

// Handle is the bot's @username in lower case, the form Mentions returns.
func (b *Bot) Handle() string {
	if b.self.Username == "" {
		return ""
	}
	return "@" + strings.ToLower(b.self.Username)
}

// SelfID is the bot's numeric user id. Zero until GetMe succeeds.
func (b *Bot) SelfID() int64 {
	return b.self.ID
}

// SendMessage posts text to chatID, threading it under replyTo when set.
func (b *Bot) SendMessage(ctx context.Context, chatID, text, replyTo string) error {
	params := url.Values{}
	params.Add("chat_id", chatID)
	params.Add("text", truncate(text, MaxMessageLength))
	if replyTo != "" {
		params.Add("reply_to_message_id", replyTo)
		params.Add("allow_sending_without_reply", "true")
	}
	return b.call(ctx, "sendMessage", params, nil)
}

func (b *Bot) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/"+method, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	var body apiResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("telegram API error: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK || !body.OK {
		return fmt.Errorf("telegram API error: %s: %s", resp.Status, body.Description)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(body.Result, out)
}

// Mentions returns the identities mentioned in m: lower-cased @usernames,
// and for text mentions of users without a username, their numeric id.
func Mentions(m *Message) []string {
	var out []string
	for _, e := range m.Entities {
		switch e.Type {
		case "mention":
			if s := entityText(m.Text, e.Offset, e.Length); s != "" {
				out = append(out, strings.ToLower(s))
			}
		case "text_mention":
			if e.User == nil {
				continue
			}
			if e.User.Username != "" {
				out = append(out, "@"+strings.ToLower(e.User.Username))
			} else {
				out = append(out, strconv.FormatInt(e.User.ID, 10))
			}
		}
	}
	return out
}

// entityText cuts an entity out of text. Offsets count UTF-16 code units.
func entityText(text string, offset, length int) string {
	units := utf16.Encode([]rune(text))
	if offset < 0 || length <= 0 || offset+length > len(units) {
		return ""
	}
	return string(utf16.Decode(units[offset : offset+length]))
}

// truncate caps s at limit UTF-16 code units, the unit Telegram counts in.
func truncate(s string, limit int) string {
	units := utf16.Encode([]rune(s))
	if len(units) <= limit {
		return s
	}

	cut := limit - 1
	if u := units[cut-1]; u >= 0xd800 && u < 0xdc00 {
		// keep surrogate pairs whole
		cut--
	}
	return string(utf16.Decode(units[:cut])) + "…"
}
