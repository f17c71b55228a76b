package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dzivkovi/serverless-app-gemini/internal/api/middleware"
	"github.com/dzivkovi/serverless-app-gemini/internal/config"
	"github.com/dzivkovi/serverless-app-gemini/internal/llm"
	"github.com/dzivkovi/serverless-app-gemini/internal/logger"
	"github.com/dzivkovi/serverless-app-gemini/internal/metrics"
	"github.com/dzivkovi/serverless-app-gemini/internal/observability"
	"github.com/dzivkovi/serverless-app-gemini/internal/safety"
	"github.com/dzivkovi/serverless-app-gemini/internal/session"
	"github.com/dzivkovi/serverless-app-gemini/internal/web"
)

const (
	errPromptRequired = "Prompt is required"
	errModerated      = "Content moderated"
	errRenderFailed   = "Failed to render response"

	contentTypeHTML = "text/html; charset=utf-8"
)

// GatewayHandler serves the prompt form and runs generation requests
// through the moderation pipeline: resolve level, remember the prompt,
// call the provider, interpret, respond in the negotiated format.
type GatewayHandler struct {
	cfg        *config.Config
	provider   llm.Provider
	sessions   session.Store
	renderer   *web.Renderer
	cloudwatch *metrics.Client
	sentry     *metrics.SentryMetrics
}

func NewGatewayHandler(
	cfg *config.Config,
	provider llm.Provider,
	sessions session.Store,
	renderer *web.Renderer,
	cloudwatch *metrics.Client,
) *GatewayHandler {
	return &GatewayHandler{
		cfg:        cfg,
		provider:   provider,
		sessions:   sessions,
		renderer:   renderer,
		cloudwatch: cloudwatch,
		sentry:     metrics.NewSentryMetrics(),
	}
}

// generateInput carries the POST / fields, bound from a JSON body or form
// fields depending on the request content type.
type generateInput struct {
	Prompt          string `json:"prompt"`
	ModerationLevel string `json:"moderation_level"`
	Format          string `json:"format"`
}

// Index renders the prompt form with the session's remembered state. Query
// parameters prompt and moderation_level override the remembered values.
// No provider call happens on GET.
func (h *GatewayHandler) Index(c *gin.Context) {
	state := h.sessionState(c)

	prompt := c.Query("prompt")
	if prompt == "" {
		prompt = state.LastPrompt
	}
	level := state.LastLevel
	if raw := c.Query("moderation_level"); raw != "" {
		level = safety.ParseLevel(raw)
	}

	if wantsJSON(c, c.Query("format")) {
		c.JSON(http.StatusOK, gin.H{
			"prompt":           prompt,
			"moderation_level": string(level),
		})
		return
	}

	h.renderPage(c, http.StatusOK, web.PageData{
		Prompt:          prompt,
		ModerationLevel: string(level),
	})
}

// Generate handles POST /. The session is updated with the new prompt and
// level before the provider call, so a failed generation still remembers
// what the user asked.
func (h *GatewayHandler) Generate(c *gin.Context) {
	input := h.bindInput(c)
	jsonOut := wantsJSON(c, input.Format)

	state := h.sessionState(c)
	level := state.LastLevel
	if input.ModerationLevel != "" {
		level = safety.ParseLevel(input.ModerationLevel)
	}

	page := web.PageData{ModerationLevel: string(level)}

	prompt := input.Prompt
	if strings.TrimSpace(prompt) == "" {
		h.respondError(c, jsonOut, http.StatusBadRequest, errPromptRequired, nil, page)
		return
	}
	page.Prompt = prompt

	h.rememberPrompt(c, prompt, level)

	lf := observability.GetClient()
	trace := lf.StartTrace(c.Request.Context(), "gateway.generate", map[string]interface{}{
		"request_id":       c.GetString("request_id"),
		"moderation_level": string(level),
	})
	generation := trace.Generation("generate_content", map[string]interface{}{
		"model": h.cfg.ModelName,
	})

	startTime := time.Now()
	response, err := h.provider.Generate(c.Request.Context(), &llm.GenerationRequest{
		Prompt: prompt,
		Level:  level,
		Model:  h.cfg.ModelName,
	})
	duration := time.Since(startTime)

	if err != nil {
		h.cloudwatch.RecordGenerationDuration(duration, false)
		h.sentry.RecordGenerationDuration(c.Request.Context(), duration, false)
		logger.Error("Generation failed", err, logger.WithContext(c))

		generation.SetLevel("ERROR")
		generation.Finish()
		trace.Finish()

		h.respondError(c, jsonOut, http.StatusInternalServerError, err.Error(), nil, page)
		return
	}

	outcome := llm.Interpret(response)
	h.recordOutcome(c, outcome, response.Usage, duration)

	generation.LogResult(h.cfg.ModelName, prompt, string(outcome.Kind), outcome.Text, response.Usage, map[string]interface{}{
		"moderation_level": string(level),
		"request_id":       c.GetString("request_id"),
	})
	if outcome.Kind != llm.OutcomeGenerated {
		generation.SetLevel("WARNING")
	}
	generation.Finish()
	trace.Finish()

	page.SafetyInfo = outcome.SafetyInfo

	switch outcome.Kind {
	case llm.OutcomeGenerated:
		if jsonOut {
			c.JSON(http.StatusOK, gin.H{
				"response":    outcome.Text,
				"safety_info": outcome.SafetyInfo,
			})
			return
		}
		html, renderErr := h.renderer.Markdown(outcome.Text)
		if renderErr != nil {
			logger.Error("Markdown rendering failed", renderErr, logger.WithContext(c))
			h.respondError(c, false, http.StatusInternalServerError, errRenderFailed, outcome.SafetyInfo, page)
			return
		}
		page.ResponseHTML = html
		h.renderPage(c, http.StatusOK, page)

	case llm.OutcomeModerated:
		if jsonOut {
			c.JSON(http.StatusForbidden, gin.H{
				"error":       errModerated,
				"reason":      outcome.Reason,
				"safety_info": outcome.SafetyInfo,
			})
			return
		}
		page.Error = outcome.Reason
		h.renderPage(c, http.StatusForbidden, page)

	case llm.OutcomeEmpty:
		if jsonOut {
			c.JSON(http.StatusNotFound, gin.H{
				"error":       outcome.Reason,
				"safety_info": outcome.SafetyInfo,
			})
			return
		}
		page.Error = outcome.Reason
		h.renderPage(c, http.StatusNotFound, page)
	}
}

// bindInput reads the POST fields from a JSON body or from form values.
// A malformed JSON body binds as empty input and fails the prompt check.
func (h *GatewayHandler) bindInput(c *gin.Context) generateInput {
	var input generateInput
	if c.ContentType() == "application/json" {
		_ = c.ShouldBindJSON(&input)
		return input
	}

	input.Prompt = c.PostForm("prompt")
	input.ModerationLevel = c.PostForm("moderation_level")
	input.Format = c.PostForm("format")
	if input.Format == "" {
		input.Format = c.Query("format")
	}
	return input
}

// sessionState loads the caller's remembered state, defaulting to an empty
// prompt and the configured moderation level.
func (h *GatewayHandler) sessionState(c *gin.Context) session.State {
	fallback := session.State{LastLevel: h.cfg.ModerationLevel}

	sid, ok := middleware.GetSessionID(c)
	if !ok {
		return fallback
	}

	state, found, err := h.sessions.Get(c.Request.Context(), sid)
	if err != nil {
		logger.Warn("Session read failed", logger.Fields{
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		})
		return fallback
	}
	if !found {
		return fallback
	}
	if state.LastLevel == "" {
		state.LastLevel = h.cfg.ModerationLevel
	}
	return state
}

// rememberPrompt writes the new prompt and level to the session. A store
// failure is logged and does not block generation.
func (h *GatewayHandler) rememberPrompt(c *gin.Context, prompt string, level safety.Level) {
	sid, ok := middleware.GetSessionID(c)
	if !ok {
		return
	}
	if err := h.sessions.Set(c.Request.Context(), sid, session.State{
		LastPrompt: prompt,
		LastLevel:  level,
	}); err != nil {
		logger.Warn("Session write failed", logger.Fields{
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		})
	}
}

// recordOutcome pushes per-generation metrics and the structured log line.
func (h *GatewayHandler) recordOutcome(c *gin.Context, outcome llm.Outcome, usage llm.Usage, duration time.Duration) {
	success := outcome.Kind == llm.OutcomeGenerated
	ctx := c.Request.Context()

	h.cloudwatch.RecordGenerationDuration(duration, success)
	h.cloudwatch.RecordOutcome(string(outcome.Kind))
	h.cloudwatch.RecordTokenUsage(h.cfg.ModelName, usage.TotalTokens, usage.PromptTokens, usage.OutputTokens)

	h.sentry.RecordGenerationDuration(ctx, duration, success)
	h.sentry.RecordOutcome(ctx, string(outcome.Kind))
	h.sentry.RecordTokenUsage(ctx, h.cfg.ModelName, usage.TotalTokens, usage.PromptTokens, usage.OutputTokens)

	logger.LogGenerationRequest(h.cfg.ModelName, duration, string(outcome.Kind), logger.Fields{
		"request_id":    c.GetString("request_id"),
		"total_tokens":  usage.TotalTokens,
		"prompt_tokens": usage.PromptTokens,
		"output_tokens": usage.OutputTokens,
	})
}

// respondError emits an error in the negotiated format. safetyInfo may be
// nil when no ratings were produced.
func (h *GatewayHandler) respondError(c *gin.Context, jsonOut bool, status int, message string, safetyInfo []string, page web.PageData) {
	if jsonOut {
		body := gin.H{"error": message}
		if safetyInfo != nil {
			body["safety_info"] = safetyInfo
		}
		c.JSON(status, body)
		return
	}
	page.Error = message
	page.SafetyInfo = safetyInfo
	h.renderPage(c, status, page)
}

func (h *GatewayHandler) renderPage(c *gin.Context, status int, data web.PageData) {
	c.Header("Content-Type", contentTypeHTML)
	c.Status(status)
	if err := h.renderer.RenderIndex(c.Writer, data); err != nil {
		logger.Error("Template rendering failed", err, logger.WithContext(c))
	}
}

// wantsJSON implements format negotiation: an explicit format=json
// parameter or an Accept header asking for application/json.
func wantsJSON(c *gin.Context, format string) bool {
	if strings.EqualFold(format, "json") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
