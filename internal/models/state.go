// Package models defines conversation state structures for the chatbot.
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// StateKind distinguishes the conversation state variants.
type StateKind string

const (
	// KindMenu is the initial and default state: the user is at the main menu.
	KindMenu StateKind = "menu"
	// KindGeneralChat marks an open-ended AI conversation turn.
	KindGeneralChat StateKind = "general_chat"
	// KindIntake marks an in-progress lead-intake flow at a specific question.
	KindIntake StateKind = "intake"
)

// IntakeFlow identifies which lead-intake flow a chat is in.
type IntakeFlow string

const (
	// FlowFranchise is the franchise application intake flow.
	FlowFranchise IntakeFlow = "franchise"
	// FlowReseller is the reseller application intake flow.
	FlowReseller IntakeFlow = "reseller"
)

// IntakeQuestionCount is the number of questions in each intake flow.
const IntakeQuestionCount = 7

// State is the tagged conversation state variant. Flow and Question are
// meaningful only when Kind is KindIntake; Question is always in
// 1..IntakeQuestionCount for states built through the constructors.
type State struct {
	Kind     StateKind  `json:"kind"`
	Flow     IntakeFlow `json:"flow,omitempty"`
	Question int        `json:"question,omitempty"`
}

// MenuState returns the main-menu state.
func MenuState() State {
	return State{Kind: KindMenu}
}

// GeneralChatState returns the open-ended AI chat state.
func GeneralChatState() State {
	return State{Kind: KindGeneralChat}
}

// IntakeState returns the state for question n of the given intake flow.
// It panics on an out-of-range question index; callers advance through
// NextQuestion which stays in range by construction.
func IntakeState(flow IntakeFlow, question int) State {
	if question < 1 || question > IntakeQuestionCount {
		panic(fmt.Sprintf("intake question index out of range: %d", question))
	}
	return State{Kind: KindIntake, Flow: flow, Question: question}
}

// IsMenu reports whether the state is the main menu.
func (s State) IsMenu() bool {
	return s.Kind == KindMenu
}

// IsIntake reports whether the state is inside an intake flow.
func (s State) IsIntake() bool {
	return s.Kind == KindIntake
}

// IsLastQuestion reports whether the state is at the final intake question.
func (s State) IsLastQuestion() bool {
	return s.Kind == KindIntake && s.Question == IntakeQuestionCount
}

// NextQuestion returns the state for the following question of the same flow.
// Calling it on the last question or a non-intake state is a programming
// error and panics.
func (s State) NextQuestion() State {
	if s.Kind != KindIntake || s.Question >= IntakeQuestionCount {
		panic(fmt.Sprintf("no next question for state %q", s.String()))
	}
	return IntakeState(s.Flow, s.Question+1)
}

// String serializes the state to its stable storage form:
// "menu", "general_chat", or "<flow>_q<n>" (e.g. "franchise_q3").
func (s State) String() string {
	switch s.Kind {
	case KindIntake:
		return fmt.Sprintf("%s_q%d", s.Flow, s.Question)
	case KindGeneralChat:
		return string(KindGeneralChat)
	default:
		return string(KindMenu)
	}
}

// ParseState parses the storage form produced by String. The second return
// value is false when the input does not name a valid state; callers are
// expected to fall back to the menu state in that case.
func ParseState(raw string) (State, bool) {
	switch raw {
	case string(KindMenu):
		return MenuState(), true
	case string(KindGeneralChat):
		return GeneralChatState(), true
	}

	flowName, qPart, found := strings.Cut(raw, "_q")
	if !found {
		return MenuState(), false
	}
	flow := IntakeFlow(flowName)
	if flow != FlowFranchise && flow != FlowReseller {
		return MenuState(), false
	}
	question, err := strconv.Atoi(qPart)
	if err != nil || question < 1 || question > IntakeQuestionCount {
		return MenuState(), false
	}
	return IntakeState(flow, question), true
}
