// Package ankiconnect provides a NoteStore implementation that talks to the
// AnkiConnect add-on over HTTP.
package ankiconnect

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/infrastructure/config"
)

// ProtocolVersion is the AnkiConnect API version requests are made against.
const ProtocolVersion = 6

var (
	// ErrMalformedResponse is returned when a response is not an AnkiConnect envelope.
	ErrMalformedResponse = errors.New("malformed AnkiConnect response")

	// ErrUnreachable is returned when AnkiConnect cannot be reached.
	ErrUnreachable = errors.New("could not connect to Anki; is it running with AnkiConnect installed?")
)

// ActionError is an error reported by AnkiConnect for an action.
type ActionError struct {
	Action  string
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("anki %s: %s", e.Action, e.Message)
}

// request is the AnkiConnect request envelope.
type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type noteParams struct {
	Note note `json:"note"`
}

type note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Options   noteOptions       `json:"options"`
	Tags      []string          `json:"tags"`
}

type noteOptions struct {
	AllowDuplicate bool `json:"allowDuplicate"`
}

// Client implements the NoteStore interface using AnkiConnect.
type Client struct {
	http           *resty.Client
	noteType       string
	tags           []string
	allowDuplicate bool
}

// NewClient creates a new AnkiConnect client.
func NewClient(cfg config.AnkiConfig) *Client {
	rc := resty.New().
		SetBaseURL(cfg.URL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}

	noteType := cfg.NoteType
	if noteType == "" {
		noteType = "Basic"
	}

	return &Client{
		http:           rc,
		noteType:       noteType,
		tags:           cfg.Tags,
		allowDuplicate: cfg.AllowDuplicate,
	}
}

// Version returns the AnkiConnect protocol version.
func (c *Client) Version(ctx context.Context) (int, error) {
	result, err := c.invoke(ctx, "version", nil)
	if err != nil {
		return 0, err
	}
	return int(result.Int()), nil
}

// DeckNames lists the decks known to Anki.
func (c *Client) DeckNames(ctx context.Context) ([]string, error) {
	result, err := c.invoke(ctx, "deckNames", nil)
	if err != nil {
		return nil, err
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("%w: deckNames result is not an array", ErrMalformedResponse)
	}

	items := result.Array()
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.String())
	}
	return names, nil
}

// CreateDeck creates a deck and returns its ID. Existing decks are returned unchanged.
func (c *Client) CreateDeck(ctx context.Context, name string) (int64, error) {
	result, err := c.invoke(ctx, "createDeck", map[string]string{"deck": name})
	if err != nil {
		return 0, err
	}
	return result.Int(), nil
}

// AddNote adds a card to a deck and returns the new note ID.
func (c *Client) AddNote(ctx context.Context, deck string, card entities.Card) (int64, error) {
	params := noteParams{
		Note: note{
			DeckName:  deck,
			ModelName: c.noteType,
			Fields: map[string]string{
				"Front": card.Front,
				"Back":  card.Back,
			},
			Options: noteOptions{AllowDuplicate: c.allowDuplicate},
			Tags:    c.tags,
		},
	}
	if params.Note.Tags == nil {
		params.Note.Tags = []string{}
	}

	result, err := c.invoke(ctx, "addNote", params)
	if err != nil {
		return 0, err
	}
	return result.Int(), nil
}

// invoke performs one action and returns its result.
func (c *Client) invoke(ctx context.Context, action string, params any) (gjson.Result, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(request{Action: action, Version: ProtocolVersion, Params: params}).
		Post("")
	if err != nil {
		if ctx.Err() != nil {
			return gjson.Result{}, ctx.Err()
		}
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if resp.IsError() {
		return gjson.Result{}, fmt.Errorf("anki %s: HTTP %d", action, resp.StatusCode())
	}

	return parseEnvelope(action, resp.Body())
}

// parseEnvelope validates a response that must carry exactly an error and a result field.
func parseEnvelope(action string, body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}

	envelope := gjson.ParseBytes(body)
	if !envelope.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: not an object", ErrMalformedResponse)
	}

	fields := 0
	envelope.ForEach(func(_, _ gjson.Result) bool {
		fields++
		return true
	})
	if fields != 2 {
		return gjson.Result{}, fmt.Errorf("%w: response has an unexpected number of fields", ErrMalformedResponse)
	}

	errField := envelope.Get("error")
	if !errField.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: response is missing required error field", ErrMalformedResponse)
	}
	result := envelope.Get("result")
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: response is missing required result field", ErrMalformedResponse)
	}

	if errField.Type != gjson.Null {
		return gjson.Result{}, &ActionError{Action: action, Message: errField.String()}
	}
	return result, nil
}
