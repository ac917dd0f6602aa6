package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartpark/internal/config"
	"smartpark/internal/entities"
)

func sampleStats() entities.ParkingStats {
	return entities.ParkingStats{
		Total:     62,
		Occupied:  19,
		Available: 43,
		Breakdown: map[entities.SpotType]entities.TypeAvailability{
			entities.SpotStandard: {Total: 50, Available: 33},
			entities.SpotDisabled: {Total: 4, Available: 3},
			entities.SpotPriority: {Total: 8, Available: 7},
			entities.SpotEV:       {},
		},
	}
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, calls *atomic.Int32, handler func(w http.ResponseWriter, req chatRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
}

func analyzerConfig(baseURL, lang string) config.AnalysisConfig {
	return config.AnalysisConfig{
		APIKey:   "test-key",
		BaseURL:  baseURL + "/v1/",
		Model:    "test-model",
		Language: lang,
		Timeout:  5 * time.Second,
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("zh-TW", sampleStats())
	assert.Contains(t, p, "總車位：62")
	assert.Contains(t, p, "已佔用：19")
	assert.Contains(t, p, "剩餘車位：43")
	assert.Contains(t, p, "佔用率：30.6%")
	assert.Contains(t, p, "一般車位剩餘：33")
	assert.Contains(t, p, "身心障礙車位剩餘：3")
	assert.Contains(t, p, "婦幼優先車位剩餘：7")

	en := BuildPrompt("en", sampleStats())
	assert.Contains(t, en, "Occupancy rate: 30.6%")
	assert.Contains(t, en, "Accessible spots available: 3")
}

func TestBuildPrompt_EmptyLot(t *testing.T) {
	p := BuildPrompt("en", entities.ParkingStats{})
	assert.Contains(t, p, "Total spots: 0")
	assert.Contains(t, p, "Occupancy rate: 0.0%")
}

func TestChatAnalyzer_MissingKeyMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, &calls, func(w http.ResponseWriter, _ chatRequest) {
		completion(w, "unexpected")
	})

	cfg := analyzerConfig(srv.URL, "zh-TW")
	cfg.APIKey = ""
	a := NewChatAnalyzer(cfg, WithAnalyzerLogger(quietLogger()))

	assert.False(t, a.Enabled())
	assert.Equal(t, "請先設定 API Key 以啟用 AI 分析功能。", a.Analyze(context.Background(), sampleStats()))
	assert.Zero(t, calls.Load())
}

func TestChatAnalyzer_ReturnsCompletion(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, &calls, func(w http.ResponseWriter, req chatRequest) {
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "Total spots: 62")
		completion(w, "  Moderate. Keep the east ramp open.  ")
	})

	a := NewChatAnalyzer(analyzerConfig(srv.URL, "en"), WithAnalyzerLogger(quietLogger()))

	assert.True(t, a.Enabled())
	assert.Equal(t, "Moderate. Keep the east ramp open.", a.Analyze(context.Background(), sampleStats()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatAnalyzer_ServiceError(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, &calls, func(w http.ResponseWriter, _ chatRequest) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	a := NewChatAnalyzer(analyzerConfig(srv.URL, "zh-TW"), WithAnalyzerLogger(quietLogger()))
	assert.Equal(t, "AI 分析服務暫時無法使用，請稍後再試。", a.Analyze(context.Background(), sampleStats()))
}

func TestChatAnalyzer_EmptyCompletion(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, &calls, func(w http.ResponseWriter, _ chatRequest) {
		completion(w, "")
	})

	a := NewChatAnalyzer(analyzerConfig(srv.URL, "en"), WithAnalyzerLogger(quietLogger()))
	assert.Equal(t, "Could not generate an analysis report.", a.Analyze(context.Background(), sampleStats()))
}
