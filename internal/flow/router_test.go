package flow_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/content"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/flow"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/store"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/testutil"
)

const testChatID = "5551999000111@c.us"

func TestHandleMessageProblemsOption(t *testing.T) {
	router, st, sender, _ := testutil.NewTestRouter()

	sent := router.HandleMessage(context.Background(), testChatID, "1")

	if len(sent) != 1 || sent[0] != content.ProblemsText {
		t.Errorf("expected only support text, got %d messages", len(sent))
	}
	if got := sender.Bodies(); len(got) != 1 {
		t.Errorf("expected 1 delivered message, got %d", len(got))
	}
	// Option 1 leaves the user at the menu without writing state.
	state, err := st.GetChatState(testChatID)
	if err != nil {
		t.Fatalf("GetChatState failed: %v", err)
	}
	if state != nil {
		t.Errorf("expected no state record after option 1, got %+v", state)
	}
}

func TestHandleMessageStartsFranchiseFlow(t *testing.T) {
	router, st, _, _ := testutil.NewTestRouter()

	sent := router.HandleMessage(context.Background(), testChatID, "2")

	if len(sent) != 1 {
		t.Fatalf("expected 1 outbound message, got %d", len(sent))
	}
	if !strings.Contains(sent[0], content.FranchiseStartText) {
		t.Errorf("expected franchise intro in first message")
	}
	if !strings.Contains(sent[0], content.Question(models.FlowFranchise, 1)) {
		t.Errorf("expected first franchise question in first message")
	}

	state, err := st.GetChatState(testChatID)
	if err != nil {
		t.Fatalf("GetChatState failed: %v", err)
	}
	if state == nil {
		t.Fatal("expected a state record after starting intake")
	}
	if want := models.IntakeState(models.FlowFranchise, 1); state.State != want {
		t.Errorf("expected state %v, got %v", want, state.State)
	}
	if len(state.Answers) != 0 {
		t.Errorf("expected fresh answers map, got %d entries", len(state.Answers))
	}
}

func TestHandleMessageAboutOption(t *testing.T) {
	router, _, _, _ := testutil.NewTestRouter()

	sent := router.HandleMessage(context.Background(), testChatID, "4")

	if len(sent) != 2 {
		t.Fatalf("expected about text and menu, got %d messages", len(sent))
	}
	if sent[0] != content.AboutText {
		t.Errorf("expected about text first")
	}
	if sent[1] != content.MenuText {
		t.Errorf("expected menu re-sent after about text")
	}
}

func driveIntake(t *testing.T, router *flow.Router, flowID string, answers []string) [][]string {
	t.Helper()
	var all [][]string
	all = append(all, router.HandleMessage(context.Background(), testChatID, flowID))
	for _, a := range answers {
		all = append(all, router.HandleMessage(context.Background(), testChatID, a))
	}
	return all
}

func TestIntakeCompleteness(t *testing.T) {
	router, st, _, _ := testutil.NewTestRouter()

	answers := []string{"Jane Doe", "jane@example.com", "5551999", "Porto Alegre", "RS", "03/2027", "texto livre"}
	driveIntake(t, router, "2", answers)

	state, err := st.GetChatState(testChatID)
	if err != nil {
		t.Fatalf("GetChatState failed: %v", err)
	}
	if state == nil {
		t.Fatal("expected a state record after completing intake")
	}
	if !state.State.IsMenu() {
		t.Errorf("expected menu state after final question, got %v", state.State)
	}
	if len(state.Answers) != models.IntakeQuestionCount {
		t.Fatalf("expected %d answers, got %d", models.IntakeQuestionCount, len(state.Answers))
	}
	for i := 1; i <= models.IntakeQuestionCount; i++ {
		if _, ok := state.Answers[i]; !ok {
			t.Errorf("missing answer for question %d", i)
		}
	}
	if state.Answers[1] != "Jane Doe" {
		t.Errorf("expected first answer preserved, got %q", state.Answers[1])
	}
}

func TestCapitalRangeMapping(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"option 1 maps to lower range", "1", "Entre R$ 200 mil e R$ 275 mil"},
		{"option 2 maps to upper range", "2", "Acima de R$ 350 mil"},
		{"free text stored verbatim", "uns 300 mil", "uns 300 mil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, st, _, _ := testutil.NewTestRouter()

			answers := []string{"a", "b", "c", "d", "e", "f", tt.input}
			driveIntake(t, router, "2", answers)

			state, err := st.GetChatState(testChatID)
			if err != nil || state == nil {
				t.Fatalf("expected state record, err=%v", err)
			}
			if got := state.Answers[models.IntakeQuestionCount]; got != tt.want {
				t.Errorf("expected final answer %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResellerFlowAnswersStoredVerbatim(t *testing.T) {
	router, st, sender, _ := testutil.NewTestRouter()

	answers := []string{"John", "john@example.com", "5551888", "Canoas", "RS", "já possuo loja", "2"}
	driveIntake(t, router, "3", answers)

	state, err := st.GetChatState(testChatID)
	if err != nil || state == nil {
		t.Fatalf("expected state record, err=%v", err)
	}
	// The numeric mapping applies only to the franchise flow.
	if got := state.Answers[models.IntakeQuestionCount]; got != "2" {
		t.Errorf("expected verbatim final answer, got %q", got)
	}

	bodies := sender.Bodies()
	if len(bodies) == 0 {
		t.Fatal("expected outbound messages")
	}
	if bodies[len(bodies)-2] != content.ResellerEndText {
		t.Errorf("expected reseller closing text before menu")
	}
	if bodies[len(bodies)-1] != content.MenuText {
		t.Errorf("expected menu as last message")
	}
}

func TestAIFallbackOnResponderFailure(t *testing.T) {
	router, st, _, responder := testutil.NewTestRouter()
	responder.Err = errors.New("quota exceeded")

	sent := router.HandleMessage(context.Background(), testChatID, "What are your store hours?")

	if len(sent) != 2 {
		t.Fatalf("expected fallback and menu, got %d messages", len(sent))
	}
	if sent[0] != content.AIFallbackText {
		t.Errorf("expected fixed fallback text, got %q", sent[0])
	}
	if sent[1] != content.MenuText {
		t.Errorf("expected menu re-sent after fallback")
	}

	state, err := st.GetChatState(testChatID)
	if err != nil {
		t.Fatalf("GetChatState failed: %v", err)
	}
	if state != nil && !state.State.IsMenu() {
		t.Errorf("expected menu state after fallback, got %v", state.State)
	}
}

func TestFreeFormAnswerUsesResponder(t *testing.T) {
	router, _, _, responder := testutil.NewTestRouter()
	responder.Answer = "Abrimos às 10h."

	sent := router.HandleMessage(context.Background(), testChatID, "Qual o horário?")

	if len(sent) != 2 || sent[0] != "Abrimos às 10h." || sent[1] != content.MenuText {
		t.Errorf("expected AI answer followed by menu, got %v", sent)
	}
	if len(responder.Questions) != 1 || responder.Questions[0] != "Qual o horário?" {
		t.Errorf("expected responder called with the question, got %v", responder.Questions)
	}
}

func TestHistoryBound(t *testing.T) {
	const limit = 3
	st := store.NewInMemoryStore()
	sender := &testutil.MockSender{}
	responder := &testutil.MockResponder{Answer: "ok"}
	router := flow.NewRouter(st, sender, responder, flow.WithHistoryLimit(limit))

	base := time.Now().Add(-time.Hour)
	for i := 0; i < limit+5; i++ {
		err := st.AddMessage(models.Message{
			ChatID: testChatID,
			Sender: models.SenderUser,
			Body:   fmt.Sprintf("old message %d", i),
			Time:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	router.HandleMessage(context.Background(), testChatID, "pergunta livre")

	history := responder.LastHistory()
	if len(history) != limit {
		t.Fatalf("expected %d history entries, got %d", limit, len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].Time.Before(history[i-1].Time) {
			t.Errorf("history out of chronological order at index %d", i)
		}
	}
	// The inbound question is logged before grounding, so it is the most
	// recent history entry.
	if history[len(history)-1].Body != "pergunta livre" {
		t.Errorf("expected current question as newest history entry, got %q", history[len(history)-1].Body)
	}
}

func TestEmptyAndBroadcastShortCircuit(t *testing.T) {
	tests := []struct {
		name   string
		chatID string
		text   string
	}{
		{"empty text", testChatID, ""},
		{"whitespace only", testChatID, "   \n\t"},
		{"broadcast sender", models.BroadcastStatusJID, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, st, sender, _ := testutil.NewTestRouter()

			sent := router.HandleMessage(context.Background(), tt.chatID, tt.text)

			if len(sent) != 0 {
				t.Errorf("expected no outbound messages, got %d", len(sent))
			}
			if len(sender.Bodies()) != 0 {
				t.Errorf("expected no deliveries")
			}
			msgs, err := st.GetRecentMessages(tt.chatID, 10)
			if err != nil {
				t.Fatalf("GetRecentMessages failed: %v", err)
			}
			if len(msgs) != 0 {
				t.Errorf("expected no transcript writes, got %d", len(msgs))
			}
			state, err := st.GetChatState(tt.chatID)
			if err != nil {
				t.Fatalf("GetChatState failed: %v", err)
			}
			if state != nil {
				t.Errorf("expected no state mutation")
			}
		})
	}
}

func TestUnknownStateFallsBackToMenu(t *testing.T) {
	router, st, _, responder := testutil.NewTestRouter()
	responder.Answer = "resposta"

	err := st.SaveChatState(models.ChatState{
		ChatID: testChatID,
		State:  models.State{Kind: "corrupted"},
	})
	if err != nil {
		t.Fatalf("SaveChatState failed: %v", err)
	}

	sent := router.HandleMessage(context.Background(), testChatID, "oi")

	// Unrecognized states route through the menu handler.
	if len(sent) != 2 || sent[1] != content.MenuText {
		t.Errorf("expected menu-style handling, got %v", sent)
	}
}

func TestNewFlowStartsWithFreshAnswers(t *testing.T) {
	router, st, _, _ := testutil.NewTestRouter()

	// Complete a franchise intake, leaving seven stored answers.
	driveIntake(t, router, "2", []string{"a", "b", "c", "d", "e", "f", "1"})

	// Starting the reseller flow must not inherit them.
	router.HandleMessage(context.Background(), testChatID, "3")

	state, err := st.GetChatState(testChatID)
	if err != nil || state == nil {
		t.Fatalf("expected state record, err=%v", err)
	}
	if want := models.IntakeState(models.FlowReseller, 1); state.State != want {
		t.Errorf("expected state %v, got %v", want, state.State)
	}
	if len(state.Answers) != 0 {
		t.Errorf("expected fresh answers map, got %d entries", len(state.Answers))
	}
}

func TestTranscriptEntriesPerTurn(t *testing.T) {
	router, st, _, _ := testutil.NewTestRouter()

	router.HandleMessage(context.Background(), testChatID, "4")

	msgs, err := st.GetRecentMessages(testChatID, 10)
	if err != nil {
		t.Fatalf("GetRecentMessages failed: %v", err)
	}
	// One inbound user entry plus one bot entry per outbound message.
	if len(msgs) != 3 {
		t.Fatalf("expected 3 transcript entries, got %d", len(msgs))
	}
	if msgs[0].Sender != models.SenderUser {
		t.Errorf("expected first entry from user, got %s", msgs[0].Sender)
	}
	for _, m := range msgs[1:] {
		if m.Sender != models.SenderBot {
			t.Errorf("expected bot transcript entry, got %s", m.Sender)
		}
	}
}

// failingStore errors on every operation, exercising storage degradation.
type failingStore struct{}

func (failingStore) GetChatState(chatID string) (*models.ChatState, error) {
	return nil, errors.New("db down")
}
func (failingStore) SaveChatState(state models.ChatState) error { return errors.New("db down") }
func (failingStore) AddMessage(msg models.Message) error        { return errors.New("db down") }
func (failingStore) GetRecentMessages(chatID string, limit int) ([]models.Message, error) {
	return nil, errors.New("db down")
}
func (failingStore) Close() error { return nil }

func TestStorageFailureDegradesGracefully(t *testing.T) {
	sender := &testutil.MockSender{}
	responder := &testutil.MockResponder{Answer: "resposta"}
	router := flow.NewRouter(failingStore{}, sender, responder)

	sent := router.HandleMessage(context.Background(), testChatID, "pergunta livre")

	if len(sent) != 2 {
		t.Fatalf("expected the turn to complete despite storage failures, got %d messages", len(sent))
	}
	if sent[0] != "resposta" || sent[1] != content.MenuText {
		t.Errorf("expected AI answer and menu, got %v", sent)
	}
	// History grounding degrades to empty.
	if got := responder.LastHistory(); len(got) != 0 {
		t.Errorf("expected empty history on storage failure, got %d entries", len(got))
	}
}

func TestSendFailureDoesNotAbortTurn(t *testing.T) {
	router, _, sender, _ := testutil.NewTestRouter()
	sender.Err = errors.New("gateway unreachable")

	sent := router.HandleMessage(context.Background(), testChatID, "4")

	if len(sent) != 2 {
		t.Errorf("expected both messages attempted despite delivery failure, got %d", len(sent))
	}
}

func TestEndToEndFranchiseScenario(t *testing.T) {
	router, st, _, _ := testutil.NewTestRouter()
	ctx := context.Background()

	sent := router.HandleMessage(ctx, testChatID, "2")
	if len(sent) != 1 || !strings.Contains(sent[0], content.FranchiseStartText) {
		t.Fatalf("expected franchise intro, got %v", sent)
	}
	assertState(t, st, models.IntakeState(models.FlowFranchise, 1))

	sent = router.HandleMessage(ctx, testChatID, "Jane Doe")
	if len(sent) != 1 || sent[0] != content.Question(models.FlowFranchise, 2) {
		t.Fatalf("expected question 2, got %v", sent)
	}
	assertState(t, st, models.IntakeState(models.FlowFranchise, 2))

	for q := 2; q <= 6; q++ {
		router.HandleMessage(ctx, testChatID, fmt.Sprintf("answer %d", q))
	}
	assertState(t, st, models.IntakeState(models.FlowFranchise, 7))

	sent = router.HandleMessage(ctx, testChatID, "1")
	if len(sent) != 2 || sent[0] != content.FranchiseEndText || sent[1] != content.MenuText {
		t.Fatalf("expected closing text and menu, got %v", sent)
	}
	state, err := st.GetChatState(testChatID)
	if err != nil || state == nil {
		t.Fatalf("expected final state record, err=%v", err)
	}
	if !state.State.IsMenu() {
		t.Errorf("expected menu state, got %v", state.State)
	}
	if got := state.Answers[7]; got != "Entre R$ 200 mil e R$ 275 mil" {
		t.Errorf("expected mapped capital answer, got %q", got)
	}
}

func assertState(t *testing.T, st *store.InMemoryStore, want models.State) {
	t.Helper()
	state, err := st.GetChatState(testChatID)
	if err != nil || state == nil {
		t.Fatalf("expected state record, err=%v", err)
	}
	if state.State != want {
		t.Fatalf("expected state %v, got %v", want, state.State)
	}
}
