package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
)

const (
	routePrefix     = "/agentApi/v1/assistant"
	defaultGreeting = "Hello, how can I help?"
	rememberPrefix  = "remember "
)

const (
	codeOK         = 0
	codeFailure    = 1
	messageOK      = "success"
	messageFailure = "failure"
)

type Document struct {
	Name    string
	Content string
}

type Config struct {
	Model      llms.Model
	Logger     *logrus.Entry
	Greeting   string
	Documents  []Document
	TokenDelay time.Duration
}

// Server is a local stand-in for the assistant backend. It speaks the same
// wire format as the real service.
type Server struct {
	echo       *echo.Echo
	model      llms.Model
	logger     *logrus.Entry
	greeting   string
	documents  []Document
	tokenDelay time.Duration
	memory     *memoryStore
}

type envelope struct {
	Code int    `json:"code"`
	Data any    `json:"data"`
	Msg  string `json:"msg"`
}

type promoteRequest struct {
	BusinessKey string `json:"businessKey"`
	SessionID   string `json:"sessionId"`
	MsgID       string `json:"msgId"`
}

type promoteResult struct {
	Success    bool   `json:"success"`
	Result     string `json:"result"`
	FactMemory string `json:"factMemory,omitempty"`
}

type streamEvent struct {
	Token              string `json:"token,omitempty"`
	ReasoningContent   string `json:"reasoningContent,omitempty"`
	MsgID              string `json:"msgId,omitempty"`
	TaskSize           int    `json:"taskSize,omitempty"`
	TaskNames          string `json:"taskNames,omitempty"`
	RagDocSize         int    `json:"ragDocSize,omitempty"`
	RagContent         string `json:"ragContent,omitempty"`
	MemorySize         int    `json:"memorySize,omitempty"`
	MemoryContent      string `json:"memoryContent,omitempty"`
	SavedMemoryContent string `json:"savedMemoryContent,omitempty"`
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	model := cfg.Model
	if model == nil {
		model = DefaultScriptedModel()
	}
	greeting := cfg.Greeting
	if greeting == "" {
		greeting = defaultGreeting
	}

	s := &Server{
		echo:       echo.New(),
		model:      model,
		logger:     logger.WithField("component", "stub"),
		greeting:   greeting,
		documents:  cfg.Documents,
		tokenDelay: cfg.TokenDelay,
		memory:     newMemoryStore(),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.registerRoutes()

	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	s.logger.WithField("addr", addr).Info("starting stub assistant backend")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start stub server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	group := s.echo.Group(routePrefix)
	group.GET("/welcome", s.handleWelcome)
	group.GET("/askAssistant", s.handleAsk)
	group.POST("/addProceduralMemory", s.handlePromote)
}

func (s *Server) handleWelcome(c echo.Context) error {
	return c.JSON(http.StatusOK, envelope{Code: codeOK, Data: map[string]string{"content": s.greeting}, Msg: messageOK})
}

func (s *Server) handlePromote(c echo.Context) error {
	var req promoteRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusOK, failure("invalid request body"))
	}

	missing := map[string][]string{}
	if strings.TrimSpace(req.MsgID) == "" {
		missing["msgId"] = []string{"Missing data for required field."}
	}
	if strings.TrimSpace(req.SessionID) == "" {
		missing["sessionId"] = []string{"Missing data for required field."}
	}
	if len(missing) > 0 {
		return c.JSON(http.StatusOK, failure(missing))
	}

	fact, ok := s.memory.promote(req.SessionID, req.MsgID)
	logger := s.logger.WithFields(logrus.Fields{"session_id": req.SessionID, "msg_id": req.MsgID})
	if !ok {
		logger.Info("nothing to promote")
		return c.JSON(http.StatusOK, envelope{Code: codeOK, Data: promoteResult{Success: false, Result: "no memory to add"}, Msg: messageOK})
	}

	logger.Info("procedural memory added")
	return c.JSON(http.StatusOK, envelope{Code: codeOK, Data: promoteResult{Success: true, Result: "memory added", FactMemory: fact}, Msg: messageOK})
}

func (s *Server) handleAsk(c echo.Context) error {
	question := strings.TrimSpace(c.QueryParam("question"))
	sessionID := strings.TrimSpace(c.QueryParam("sessionId"))
	deepReasoning, _ := strconv.ParseBool(c.QueryParam("deepReasoning"))

	if question == "" || sessionID == "" {
		return c.JSON(http.StatusBadRequest, failure("question and sessionId are required"))
	}

	msgID := ulid.Make().String()
	logger := s.logger.WithFields(logrus.Fields{"session_id": sessionID, "msg_id": msgID})

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	answer, err := s.stream(c, question, sessionID, msgID, deepReasoning)
	if err != nil {
		if c.Request().Context().Err() != nil {
			logger.Debug("client went away mid-stream")
			return nil
		}
		logger.WithError(err).Warn("answer generation failed")
		writeNamed(c, "error", err.Error())
	} else {
		s.memory.recordAnswer(sessionID, msgID, question, answer)
		logger.WithField("answer_length", len(answer)).Info("answer streamed")
	}

	writeNamed(c, "done", "")
	return nil
}

func (s *Server) stream(c echo.Context, question string, sessionID string, msgID string, deepReasoning bool) (string, error) {
	ctx := c.Request().Context()

	if fact := rememberedFact(question); fact != "" {
		s.memory.remember(sessionID, fact)
		if err := writeEvent(c, streamEvent{MsgID: msgID, SavedMemoryContent: fact}); err != nil {
			return "", err
		}
	}

	facts := s.memory.factsFor(sessionID)
	if len(facts) > 0 {
		if err := writeEvent(c, streamEvent{MsgID: msgID, MemorySize: len(facts), MemoryContent: strings.Join(facts, "; ")}); err != nil {
			return "", err
		}
	}

	docs := s.retrieve(question)
	if len(docs) > 0 {
		names := make([]string, 0, len(docs))
		for _, doc := range docs {
			names = append(names, doc.Name)
		}
		if err := writeEvent(c, streamEvent{MsgID: msgID, RagDocSize: len(docs), RagContent: strings.Join(names, ", ")}); err != nil {
			return "", err
		}
	}

	if err := writeEvent(c, streamEvent{MsgID: msgID, TaskSize: 1, TaskNames: "answer generation"}); err != nil {
		return "", err
	}

	if deepReasoning {
		for _, fragment := range SplitTokens(fmt.Sprintf("The user asks %q. Using %d memories and %d documents.", question, len(facts), len(docs))) {
			if err := writeEvent(c, streamEvent{MsgID: msgID, ReasoningContent: fragment}); err != nil {
				return "", err
			}
		}
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt(facts, docs)),
		llms.TextParts(llms.ChatMessageTypeHuman, question),
	}

	resp, err := s.model.GenerateContent(ctx, messages, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		if s.tokenDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.tokenDelay):
			}
		}
		return writeEvent(c, streamEvent{MsgID: msgID, Token: string(chunk)})
	}))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}

	return resp.Choices[0].Content, nil
}

func (s *Server) retrieve(question string) []Document {
	lowered := strings.ToLower(question)

	var matches []Document
	for _, doc := range s.documents {
		for _, word := range strings.Fields(strings.ToLower(doc.Content)) {
			if len(word) >= 4 && strings.Contains(lowered, word) {
				matches = append(matches, doc)
				break
			}
		}
	}

	return matches
}

// rememberedFact returns the text after a leading "remember", if any.
func rememberedFact(question string) string {
	if len(question) <= len(rememberPrefix) || !strings.EqualFold(question[:len(rememberPrefix)], rememberPrefix) {
		return ""
	}
	return strings.TrimSpace(question[len(rememberPrefix):])
}

func systemPrompt(facts []string, docs []Document) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant.")
	if len(facts) > 0 {
		b.WriteString("\nProcedural memories:\n- ")
		b.WriteString(strings.Join(facts, "\n- "))
	}
	for _, doc := range docs {
		fmt.Fprintf(&b, "\nDocument %s:\n%s", doc.Name, doc.Content)
	}
	return b.String()
}

func writeEvent(c echo.Context, event streamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode stream event: %w", err)
	}

	if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", data); err != nil {
		return err
	}
	c.Response().Flush()

	return c.Request().Context().Err()
}

func writeNamed(c echo.Context, name string, data string) {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", name)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	_, _ = fmt.Fprint(c.Response(), b.String())
	c.Response().Flush()
}

func failure(data any) envelope {
	if text, ok := data.(string); ok {
		data = []string{text}
	} else {
		data = []any{data}
	}
	return envelope{Code: codeFailure, Data: data, Msg: messageFailure}
}
