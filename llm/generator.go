package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// Generator is the opaque text-generation capability the pipeline
// consumes: given a system prompt and a user prompt, return text.
// Implementations must honor the context and fail with ErrUnavailable
// on connection-level failures.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// MCPGenerator calls a model exposed as an MCP tool over a stdio
// transport. Prompts travel as tool arguments; the tool's text content
// is the generation result.
type MCPGenerator struct {
	client  *client.StdioMCPClient
	config  Config
	log     *zap.Logger
	limiter *RateLimiter
}

// NewMCPGenerator connects to the model server and returns a generator
// configured per cfg (nil picks defaults plus environment overrides).
func NewMCPGenerator(serverPath string, cfg *Config, log *zap.Logger) (*MCPGenerator, error) {
	serverConfig, err := GetServerConfig(serverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to configure model server: %w", err)
	}

	cfg = LoadConfig(cfg)
	if log == nil {
		log = zap.NewNop()
	}

	mcpClient, err := client.NewStdioMCPClient(serverConfig.Path, serverConfig.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdio client: %w", err)
	}

	var limiter *RateLimiter
	if cfg.RateLimitEnabled {
		limiter = NewRateLimiter(cfg.RequestsPerMinute, time.Minute)
	}

	log.Info("generator initialized",
		zap.String("server", serverConfig.Path),
		zap.String("tool", cfg.ToolName),
		zap.String("model", cfg.Model),
		zap.Bool("rate_limit", cfg.RateLimitEnabled))

	return &MCPGenerator{
		client:  mcpClient,
		config:  *cfg,
		log:     log,
		limiter: limiter,
	}, nil
}

// Generate performs one model call with timeout, bounded retries, and
// error categorization. Prompt text is never logged; only lengths and
// the request id are.
func (g *MCPGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	requestID := uuid.NewString()
	startTime := time.Now()

	if err := g.validate(systemPrompt, userPrompt); err != nil {
		return "", newGenerationError(ErrorCategoryValidation, err, requestID)
	}

	if g.limiter != nil {
		limited, count, resetTime := g.limiter.CheckLimit(g.config.Model)
		if limited {
			return "", newGenerationError(ErrorCategoryRateLimit,
				fmt.Errorf("rate limit exceeded: %d requests (limit: %d, resets %s)",
					count, g.config.RequestsPerMinute, resetTime.Format(time.RFC3339)),
				requestID)
		}
	}

	g.log.Debug("generate request",
		zap.String("request_id", requestID),
		zap.Int("system_chars", len(systemPrompt)),
		zap.Int("user_chars", len(userPrompt)),
		zap.Int("tokens_est", estimateTokens(systemPrompt)+estimateTokens(userPrompt)))

	callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	request := mcp.CallToolRequest{}
	request.Params.Name = g.config.ToolName
	request.Params.Arguments = map[string]interface{}{
		"model":       g.config.Model,
		"temperature": g.config.Temperature,
		"max_tokens":  g.config.MaxTokens,
		"system":      systemPrompt,
		"prompt":      userPrompt,
		"request_id":  requestID,
	}

	var result *mcp.CallToolResult
	var err error

	for attempt := 0; attempt <= g.config.RetryCount; attempt++ {
		if attempt > 0 {
			backoff := g.config.RetryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-callCtx.Done():
			case <-time.After(backoff):
			}
		}

		result, err = g.client.CallTool(callCtx, request)
		if err == nil {
			break
		}

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", newGenerationError(ErrorCategoryTimeout,
				fmt.Errorf("generate call timed out or was canceled: %w", err), requestID)
		}
	}

	if err != nil {
		category := categorizeError(err)
		return "", newGenerationError(category,
			fmt.Errorf("generate call failed after %d attempt(s): %w", g.config.RetryCount+1, err),
			requestID)
	}

	text, err := extractText(result)
	if err != nil {
		return "", newGenerationError(ErrorCategoryModel, err, requestID)
	}

	g.log.Debug("generate response",
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("output_chars", len(text)),
		zap.Int("output_tokens_est", estimateTokens(text)))

	return text, nil
}

func (g *MCPGenerator) validate(systemPrompt, userPrompt string) error {
	if userPrompt == "" {
		return fmt.Errorf("user prompt must not be empty")
	}
	if g.config.MaxContentSize > 0 && len(systemPrompt)+len(userPrompt) > g.config.MaxContentSize {
		return fmt.Errorf("prompt size (%d bytes) exceeds maximum allowed (%d bytes)",
			len(systemPrompt)+len(userPrompt), g.config.MaxContentSize)
	}
	return nil
}

// extractText pulls the generated text out of a tool result.
func extractText(result *mcp.CallToolResult) (string, error) {
	if result.IsError {
		return "", fmt.Errorf("model tool returned an error: %v", result.Result)
	}

	out := ""
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			out += textContent.Text
		}
	}
	if out == "" {
		return "", fmt.Errorf("model tool returned no text content")
	}
	return out, nil
}

// estimateTokens gives a rough token count for logging. One token is
// roughly four characters of English text.
func estimateTokens(s string) int {
	return len(s) / 4
}
