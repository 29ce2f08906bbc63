// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/newsdex/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrNoResponse is returned when the model produces no choices.
var ErrNoResponse = errors.New("classifier returned no response")

// BiasClassifier implements ai.BiasClassifier using OpenAI-compatible chat APIs.
type BiasClassifier struct {
	client   llms.Model
	maxChars int
	logger   *slog.Logger
}

// biasVerdict matches the JSON structure the model is asked for.
type biasVerdict struct {
	Bias *float64 `json:"bias"`
}

// newBiasClassifier is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newBiasClassifier(config *ai.Config) (*BiasClassifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication.
	client, err := openai.New(
		openai.WithBaseURL(config.ClassifierHost),
		openai.WithToken("none"),
		openai.WithModel(config.ClassifierModel),
	)
	if err != nil {
		return nil, err
	}

	return &BiasClassifier{
		client:   client,
		maxChars: config.ClassifierMaxChars,
		logger:   slog.Default().With("component", "openai-bias-classifier"),
	}, nil
}

// NewBiasClassifier creates a new bias classifier using the provided configuration.
//
// Returns ai.BiasClassifier interface to enforce abstraction.
func NewBiasClassifier(config *ai.Config) (ai.BiasClassifier, error) {
	return newBiasClassifier(config)
}

// ClassifyBias scores article text on a 0 (far left) to 1 (far right) scale
// using an LLM in JSON mode. Long articles are clipped before the call.
func (c *BiasClassifier) ClassifyBias(ctx context.Context, text string) (float64, error) {
	text = clipText(text, c.maxChars)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(biasSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON.
	var verdict biasVerdict
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return 0, err
		}

		if len(response.Choices) < 1 {
			c.logger.Debug("no choices returned from model")
			return 0, ErrNoResponse
		}

		// Strip markdown code fences if present.
		responseText := strings.TrimSpace(response.Choices[0].Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		responseText = repairJSON(responseText)

		verdict = biasVerdict{}
		if err := json.Unmarshal([]byte(responseText), &verdict); err != nil {
			lastErr = err
			c.logger.Warn("error parsing classifier response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}
		if verdict.Bias == nil {
			lastErr = errors.New("classifier response missing bias field")
			c.logger.Warn("classifier response missing bias field",
				"attempt", attempt+1,
				"response", responseText)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		c.logger.Error("failed to parse classifier response after retries", "err", lastErr)
		return 0, lastErr
	}

	score := *verdict.Bias
	// Models occasionally answer on a -1..1 or 0..100 scale; clamp rather
	// than reject.
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	c.logger.Debug("classified bias", "score", score)
	return score, nil
}
