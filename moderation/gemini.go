// Package moderation asks a hosted vision model whether a contest drawing
// looks hand made or generated, and carries that work between processes.
package moderation

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ikk-contest/backend/subm"
	"google.golang.org/genai"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash-preview-09-2025"
)

const juryPrompt = "Sen bir resim yarışması jürisisin. Bu görselin bir ilkokul/ortaokul öğrencisi " +
	"tarafından geleneksel yöntemlerle (boya, kalem vs.) mi yapıldığını yoksa Yapay Zeka (AI) " +
	"tarafından mı üretildiğini analiz et. Yanıtını KESİNLİKLE sadece şu formatta ver: " +
	"'%[0-100 ARASI RAKAM] ([DURUM])'. Durumlar: 'Temiz', 'Şüpheli', 'AI Üretimi'. " +
	"Örnek: '%10 (Temiz)' veya '%95 (AI Üretimi)'."

// GeminiScorer labels images through the Gemini generateContent endpoint.
// Score never fails; every problem becomes a manual review label.
type GeminiScorer struct {
	apiKey     string
	baseURL    string
	model      string
	maxWidth   uint
	httpClient *http.Client
	client     *genai.Client
	logger     *slog.Logger
}

type Option func(*GeminiScorer)

func WithBaseURL(u string) Option {
	return func(g *GeminiScorer) { g.baseURL = strings.TrimRight(u, "/") }
}

func WithModel(model string) Option {
	return func(g *GeminiScorer) {
		if model != "" {
			g.model = model
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(g *GeminiScorer) { g.httpClient = c }
}

// WithMaxWidth sets the width images are shrunk to before upload. Zero
// disables resizing.
func WithMaxWidth(w uint) Option {
	return func(g *GeminiScorer) { g.maxWidth = w }
}

// NewGeminiScorer builds the client up front. The key travels in the
// x-goog-api-key header, never in the request URL.
func NewGeminiScorer(apiKey string, opts ...Option) *GeminiScorer {
	g := &GeminiScorer{
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		model:    DefaultModel,
		maxWidth: 1024,
		logger:   slog.Default().With("module", "moderation"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.apiKey == "" {
		return g
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      g.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  g.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: g.baseURL},
	})
	if err != nil {
		// the error text embeds the client config, key included
		g.logger.Error("failed to create gemini client")
		return g
	}
	g.client = client
	return g
}

func (g *GeminiScorer) Score(ctx context.Context, image []byte, mediaType string) string {
	if !subm.IsImage(mediaType) {
		return subm.ScoreUnsupported
	}
	if g.apiKey == "" {
		return subm.ScoreNoAPIKey
	}
	if g.client == nil {
		return subm.ScoreAPIError
	}

	image, mediaType = downscale(image, mediaType, g.maxWidth)
	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText(juryPrompt),
		genai.NewPartFromBytes(image, mediaType),
	}, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		g.logger.Error("moderation request failed", "model", g.model, "error", err)
		return subm.ScoreAPIError
	}
	label := strings.TrimSpace(resp.Text())
	if label == "" {
		return subm.ScoreUnparsed
	}
	return label
}
