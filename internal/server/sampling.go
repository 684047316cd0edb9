// internal/server/sampling.go
package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mcp-nutrition-scan/internal/config"
)

// MealAnalysisPrompt asks the vision model for the six-section analysis text
// the analysis parser reads.
const MealAnalysisPrompt = `Analyze this food image and provide a detailed breakdown in the following format:

Main Dish: [Name of the main dish]

Ingredients: [List of visible ingredients]

Nutritional Information (per 100g):
   - Carbohydrates: [X.X]g
   - Starch: [X.X]g
   - Proteins: [X.X]g
   - Fats: [X.X]g
   - Seed Oils: [X.X]g
   - Sugars: [X.X]g
   - Fiber: [X.X]g
   - Energy (kcal): [X.X]kcal
   - Saturated Fat: [X.X]g
   - Sodium: [X.X]g

Portion Size: [Estimated portion size]

Health Metrics:
   - Junk Score: [X] (0-10, where 0 is healthiest)
   - Added Sugars: [X.X]g
   - Refined Carbs: [X.X]g
   - Processed Ingredients: [List of processed ingredients]

Additional Notes: [Any other relevant information]

Please provide numerical values for all nutritional information. If exact values cannot be determined, provide reasonable estimates based on typical values for similar foods.`

var ErrInvalidImage = errors.New("invalid image data")

type SamplingClient struct {
	httpClient *http.Client
	proxyURL   string
	apiKey     string
	model      string
}

func NewSamplingClient(cfg config.GatewayConfig, timeout time.Duration) *SamplingClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &SamplingClient{
		httpClient: &http.Client{Timeout: timeout},
		proxyURL:   strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

// AnalyzeMealImage sends a base64 JPEG (optionally as a data URL) to the
// completion gateway and returns the model's analysis text.
func (s *SamplingClient) AnalyzeMealImage(ctx context.Context, imageBase64 string) (string, error) {
	encoded, err := normalizeImage(imageBase64)
	if err != nil {
		return "", err
	}

	completionRequest := map[string]interface{}{
		"model": s.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": MealAnalysisPrompt},
					{
						"type":      "image_url",
						"image_url": map[string]string{"url": "data:image/jpeg;base64," + encoded},
					},
				},
			},
		},
		"max_tokens":  1000,
		"temperature": 0.1,
	}

	gatewayResponse, err := s.callGateway(ctx, "create_completion", completionRequest)
	if err != nil {
		return "", fmt.Errorf("failed to get AI completion: %w", err)
	}

	text := completionText(gatewayResponse)
	if text == "" {
		return "", fmt.Errorf("AI completion was empty")
	}
	return text, nil
}

func (s *SamplingClient) callGateway(ctx context.Context, toolName string, args interface{}) (string, error) {
	url := fmt.Sprintf("%s/openrouter-gateway", s.proxyURL)

	requestData := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      toolName,
			"arguments": args,
		},
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return "", fmt.Errorf("request failed with status %d and couldn't read body: %v", resp.StatusCode, err)
		}
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var rpc struct {
		Result *struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if rpc.Error != nil {
		return "", fmt.Errorf("gateway error %d: %s", rpc.Error.Code, rpc.Error.Message)
	}
	if rpc.Result == nil || len(rpc.Result.Content) == 0 {
		return "", fmt.Errorf("unexpected response format")
	}
	return rpc.Result.Content[0].Text, nil
}

// completionText unwraps the gateway's completion payload. The gateway may
// return a JSON object with a "content" string or the bare completion text.
func completionText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var completion struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal([]byte(trimmed), &completion); err == nil {
			return strings.TrimSpace(completion.Content)
		}
	}
	return trimmed
}

func normalizeImage(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return "", fmt.Errorf("%w: malformed data URL", ErrInvalidImage)
		}
		s = payload
	}
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidImage)
	}
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return s, nil
}
