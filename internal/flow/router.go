// Package flow implements the conversation state machine of the chatbot.
//
// The router takes one inbound message per turn, reads the persisted chat
// state, decides the next state and the outbound messages, and applies the
// mutations. Every adapter it touches (store, messenger, AI responder) is
// fallible; failures degrade inside the turn and never propagate to the
// webhook caller.
package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/content"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/store"
)

// DefaultSendTimeout bounds a single outbound delivery attempt.
const DefaultSendTimeout = 10 * time.Second

// Menu option inputs recognized in the menu state.
const (
	menuOptionProblems  = "1"
	menuOptionFranchise = "2"
	menuOptionReseller  = "3"
	menuOptionAbout     = "4"
)

// Responder answers free-form questions grounded in store knowledge and
// recent history.
type Responder interface {
	RespondToQuestion(ctx context.Context, question string, history []models.Message) (string, error)
}

// Sender delivers a message to a chat. Delivery is best-effort; the router
// proceeds as though every send succeeded.
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// Opts holds configuration options for the router.
type Opts struct {
	HistoryLimit int
	SendTimeout  time.Duration
}

// Option defines a configuration option for the router.
type Option func(*Opts)

// WithHistoryLimit sets the bounded history window for AI grounding.
func WithHistoryLimit(n int) Option {
	return func(o *Opts) {
		o.HistoryLimit = n
	}
}

// WithSendTimeout sets the per-send delivery timeout.
func WithSendTimeout(d time.Duration) Option {
	return func(o *Opts) {
		o.SendTimeout = d
	}
}

// Router routes inbound messages through the menu and intake flows.
type Router struct {
	store        store.Store
	sender       Sender
	responder    Responder
	historyLimit int
	sendTimeout  time.Duration
}

// NewRouter creates a conversation router over the given adapters.
func NewRouter(st store.Store, sender Sender, responder Responder, opts ...Option) *Router {
	cfg := Opts{
		HistoryLimit: models.DefaultHistoryLimit,
		SendTimeout:  DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("Creating conversation router", "history_limit", cfg.HistoryLimit, "send_timeout", cfg.SendTimeout)
	return &Router{
		store:        st,
		sender:       sender,
		responder:    responder,
		historyLimit: cfg.HistoryLimit,
		sendTimeout:  cfg.SendTimeout,
	}
}

// HandleMessage processes one conversation turn and returns the outbound
// messages that were sent. Empty/whitespace-only text and the broadcast
// pseudo-sender short-circuit before any state read or transcript write.
func (r *Router) HandleMessage(ctx context.Context, chatID, text string) []string {
	text = strings.TrimSpace(text)
	if text == "" || chatID == models.BroadcastStatusJID {
		slog.Debug("Router ignoring message", "chatID", chatID, "empty", text == "")
		return nil
	}

	// Exactly one inbound transcript append per turn, before routing.
	r.logMessage(chatID, models.SenderUser, text)

	state := r.currentState(chatID)
	slog.Debug("Router handling turn", "chatID", chatID, "state", state.State, "text_length", len(text))

	turn := &turn{router: r, ctx: ctx, chatID: chatID}
	switch {
	case state.State.IsIntake():
		r.handleIntake(turn, state, text)
	default:
		// Menu is also the defensive fallback for the general-chat state
		// and anything unparseable.
		r.handleMenu(turn, text)
	}

	if turn.nextState != nil {
		r.saveState(chatID, *turn.nextState)
	}
	return turn.sent
}

// turn accumulates the side effects of a single invocation: the outbound
// messages sent and the at-most-one state write.
type turn struct {
	router    *Router
	ctx       context.Context
	chatID    string
	sent      []string
	nextState *models.ChatState
}

// send delivers one outbound message and appends it to the transcript as a
// bot entry. Delivery failures are logged and swallowed.
func (t *turn) send(body string) {
	ctx, cancel := context.WithTimeout(t.ctx, t.router.sendTimeout)
	defer cancel()
	if err := t.router.sender.SendMessage(ctx, t.chatID, body); err != nil {
		slog.Warn("Router outbound delivery failed", "error", err, "chatID", t.chatID, "body_length", len(body))
	}
	t.router.logMessage(t.chatID, models.SenderBot, body)
	t.sent = append(t.sent, body)
}

// transition records the state to persist at the end of the turn.
func (t *turn) transition(state models.State, answers map[int]string) {
	t.nextState = &models.ChatState{
		ChatID:     t.chatID,
		State:      state,
		Answers:    answers,
		LastUpdate: time.Now(),
	}
}

// handleMenu routes a turn from the menu state.
func (r *Router) handleMenu(t *turn, text string) {
	switch text {
	case menuOptionProblems:
		// Support text only; the user is free to type again. No state write.
		t.send(content.ProblemsText)
	case menuOptionFranchise:
		r.startIntake(t, models.FlowFranchise)
	case menuOptionReseller:
		r.startIntake(t, models.FlowReseller)
	case menuOptionAbout:
		t.send(content.AboutText)
		t.send(content.MenuText)
	default:
		r.answerFreeForm(t, text)
	}
}

// startIntake begins an intake flow at question 1 with a fresh answers map.
// A new flow never inherits answers from a previous one.
func (r *Router) startIntake(t *turn, flow models.IntakeFlow) {
	slog.Info("Router starting intake flow", "chatID", t.chatID, "flow", flow)
	t.transition(models.IntakeState(flow, 1), make(map[int]string))
	t.send(content.StartText(flow) + "\n\n" + content.Question(flow, 1))
}

// answerFreeForm answers an off-menu question through the AI responder,
// grounded in the bounded recent history, then re-sends the menu. AI
// failures degrade to the fixed apology text.
func (r *Router) answerFreeForm(t *turn, question string) {
	history := r.recentHistory(t.chatID)
	answer, err := r.responder.RespondToQuestion(t.ctx, question, history)
	if err != nil {
		slog.Warn("Router AI responder failed, using fallback", "error", err, "chatID", t.chatID)
		answer = content.AIFallbackText
	}
	t.send(answer)
	t.send(content.MenuText)
}

// handleIntake stores the answer for the current question and either asks
// the next question or closes the flow.
func (r *Router) handleIntake(t *turn, state models.ChatState, text string) {
	answers := state.Answers
	if answers == nil {
		answers = make(map[int]string)
	}
	answers[state.State.Question] = text

	if !state.State.IsLastQuestion() {
		next := state.State.NextQuestion()
		t.transition(next, answers)
		t.send(content.Question(next.Flow, next.Question))
		return
	}

	// Last question: the franchise flow maps numeric capital options to
	// their range labels; any other answer is kept verbatim.
	if state.State.Flow == models.FlowFranchise {
		if label, ok := content.CapitalRangeLabels[text]; ok {
			answers[state.State.Question] = label
		}
	}

	slog.Info("Router intake flow completed", "chatID", t.chatID, "flow", state.State.Flow)
	t.transition(models.MenuState(), answers)
	t.send(content.EndText(state.State.Flow))
	t.send(content.MenuText)
}

// currentState reads the persisted chat state, degrading to the default
// menu state when the chat has no record or the store is unavailable.
func (r *Router) currentState(chatID string) models.ChatState {
	state, err := r.store.GetChatState(chatID)
	if err != nil {
		slog.Warn("Router state read failed, using default", "error", err, "chatID", chatID)
		return models.DefaultChatState(chatID)
	}
	if state == nil {
		return models.DefaultChatState(chatID)
	}
	return *state
}

// saveState persists the chat state, best-effort.
func (r *Router) saveState(chatID string, state models.ChatState) {
	if err := r.store.SaveChatState(state); err != nil {
		slog.Warn("Router state write failed, continuing", "error", err, "chatID", chatID)
	}
}

// logMessage appends a transcript entry, best-effort.
func (r *Router) logMessage(chatID string, sender models.Sender, body string) {
	err := r.store.AddMessage(models.Message{
		ChatID: chatID,
		Sender: sender,
		Body:   body,
		Time:   time.Now(),
	})
	if err != nil {
		slog.Warn("Router transcript append failed, continuing", "error", err, "chatID", chatID, "sender", sender)
	}
}

// recentHistory fetches the bounded history window, degrading to empty on
// storage failure.
func (r *Router) recentHistory(chatID string) []models.Message {
	history, err := r.store.GetRecentMessages(chatID, r.historyLimit)
	if err != nil {
		slog.Warn("Router history read failed, grounding without history", "error", err, "chatID", chatID)
		return nil
	}
	return history
}
