// Package vision extracts community names from images (e.g. photographed
// signage or printed lists) using the Anthropic API.
package vision

import (
	"context"
	"encoding/base64"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
)

const defaultModel = "claude-haiku-4-5-20251001"

// Client extracts community names from an image.
type Client interface {
	ExtractNames(ctx context.Context, image []byte, mimeType string) ([]string, error)
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
	model  string
}

// NewClient creates a vision client backed by the SDK.
func NewClient(apiKey, model string) Client {
	if model == "" {
		model = defaultModel
	}
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
		model: model,
	}
}

const extractPrompt = `This image contains names of residential communities or properties (a sign, list, flyer, or spreadsheet screenshot). List every community/property name you can read, one per line. Output only the names, no numbering or commentary. Skip anything that is not a community or property name.`

func (c *sdkClient) ExtractNames(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	if len(image) == 0 {
		return nil, eris.New("vision: empty image")
	}

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 1024,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewImageBlockBase64(mimeType, base64.StdEncoding.EncodeToString(image)),
				sdk.NewTextBlock(extractPrompt),
			),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "vision: create message")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Text != "" {
			text.WriteString(block.Text)
			text.WriteString("\n")
		}
	}

	return NormalizeNames(strings.Split(text.String(), "\n")), nil
}

// NormalizeNames uppercases, trims, NFC-normalizes, and deduplicates the
// extracted names, preserving first-seen order. This matches what the
// pipeline expects as its input contract.
func NormalizeNames(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, name := range raw {
		name = strings.ToUpper(strings.TrimSpace(norm.NFC.String(name)))
		name = strings.Trim(name, "-•* \t")
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
