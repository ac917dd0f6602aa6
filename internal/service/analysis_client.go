package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"smartpark/internal/config"
	"smartpark/internal/entities"
	"smartpark/internal/stats"
)

// Analyzer turns lot statistics into a short natural-language summary. It
// never fails: every error path yields a user-facing fallback text.
type Analyzer interface {
	Analyze(ctx context.Context, st entities.ParkingStats) string
}

type analysisMessages struct {
	missingKey string
	failure    string
	empty      string
}

func messagesFor(lang string) analysisMessages {
	switch lang {
	case "en":
		return analysisMessages{
			missingKey: "Please configure an API key to enable AI analysis.",
			failure:    "The AI analysis service is temporarily unavailable, please try again later.",
			empty:      "Could not generate an analysis report.",
		}
	default:
		return analysisMessages{
			missingKey: "請先設定 API Key 以啟用 AI 分析功能。",
			failure:    "AI 分析服務暫時無法使用，請稍後再試。",
			empty:      "無法生成分析報告。",
		}
	}
}

// BuildPrompt fills the current figures into the request for a crowding
// assessment, one operator recommendation and an announcement for arriving
// drivers, written in lang.
func BuildPrompt(lang string, st entities.ParkingStats) string {
	rate := fmt.Sprintf("%.1f", stats.OccupancyRate(st))
	standard := st.Breakdown[entities.SpotStandard].Available
	disabled := st.Breakdown[entities.SpotDisabled].Available
	priority := st.Breakdown[entities.SpotPriority].Available

	switch lang {
	case "en":
		return fmt.Sprintf(
			"You are the AI assistant of a smart parking management system. Give a brief status analysis and advice based on the data below.\n\n"+
				"Current data:\n"+
				"- Total spots: %d\n"+
				"- Occupied: %d\n"+
				"- Available: %d\n"+
				"- Occupancy rate: %s%%\n\n"+
				"Available by category:\n"+
				"- Standard spots available: %d\n"+
				"- Accessible spots available: %d\n"+
				"- Family priority spots available: %d\n\n"+
				"Answer in English. Include:\n"+
				"1. An assessment of how crowded the lot is (e.g. empty, moderate, busy, full).\n"+
				"2. One sentence of advice for the operator.\n"+
				"3. If there is a PA system, a short announcement for drivers entering the lot.",
			st.Total, st.Occupied, st.Available, rate, standard, disabled, priority)
	default:
		return fmt.Sprintf(
			"作為一個智慧停車場管理系統的 AI 助理，請根據以下數據進行簡短的狀況分析並給出建議：\n\n"+
				"目前數據：\n"+
				"- 總車位：%d\n"+
				"- 已佔用：%d\n"+
				"- 剩餘車位：%d\n"+
				"- 佔用率：%s%%\n\n"+
				"詳細分類狀況：\n"+
				"- 一般車位剩餘：%d\n"+
				"- 身心障礙車位剩餘：%d\n"+
				"- 婦幼優先車位剩餘：%d\n\n"+
				"請用繁體中文回答。請包含：\n"+
				"1. 目前擁擠程度評估 (例如：空曠、適中、擁擠、一位難求)。\n"+
				"2. 給管理員的一句話建議。\n"+
				"3. 如果有廣播系統，請生成一段簡短的廣播文案給正在進場的駕駛。",
			st.Total, st.Occupied, st.Available, rate, standard, disabled, priority)
	}
}

// ChatAnalyzer calls an OpenAI-compatible chat completions endpoint.
type ChatAnalyzer struct {
	client   *openai.Client
	model    string
	language string
	timeout  time.Duration
	messages analysisMessages
	logger   *slog.Logger
}

type AnalyzerOption func(*analyzerOptions)

type analyzerOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func WithAnalyzerHTTPClient(c *http.Client) AnalyzerOption {
	return func(o *analyzerOptions) {
		o.httpClient = c
	}
}

func WithAnalyzerLogger(logger *slog.Logger) AnalyzerOption {
	return func(o *analyzerOptions) {
		o.logger = logger
	}
}

// NewChatAnalyzer builds the client. Without an API key no client is created
// and Analyze answers with the "feature unavailable" text.
func NewChatAnalyzer(cfg config.AnalysisConfig, opts ...AnalyzerOption) *ChatAnalyzer {
	o := analyzerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &ChatAnalyzer{
		model:    cfg.Model,
		language: cfg.Language,
		timeout:  cfg.Timeout,
		messages: messagesFor(cfg.Language),
		logger:   o.logger,
	}

	if cfg.APIKey == "" {
		a.logger.Warn("Analysis API key is missing, AI analysis disabled")
		return a
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if o.httpClient != nil {
		clientCfg.HTTPClient = o.httpClient
	}
	a.client = openai.NewClientWithConfig(clientCfg)
	return a
}

// Enabled reports whether a credential is configured.
func (a *ChatAnalyzer) Enabled() bool {
	return a.client != nil
}

func (a *ChatAnalyzer) Analyze(ctx context.Context, st entities.ParkingStats) string {
	if a.client == nil {
		return a.messages.missingKey
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(a.language, st)},
		},
	})
	if err != nil {
		a.logger.Error("Analysis request failed", "model", a.model, "error", err)
		return a.messages.failure
	}

	if len(resp.Choices) == 0 {
		return a.messages.empty
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return a.messages.empty
	}
	return text
}
