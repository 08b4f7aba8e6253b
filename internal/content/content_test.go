package content

import (
	"strings"
	"testing"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
)

func TestQuestionTablesComplete(t *testing.T) {
	for _, flow := range []models.IntakeFlow{models.FlowFranchise, models.FlowReseller} {
		for n := 1; n <= models.IntakeQuestionCount; n++ {
			if Question(flow, n) == "" {
				t.Errorf("missing question %d for flow %s", n, flow)
			}
		}
	}
}

func TestQuestionOutOfRange(t *testing.T) {
	if Question(models.FlowFranchise, 0) != "" {
		t.Error("expected empty text for question 0")
	}
	if Question(models.FlowFranchise, models.IntakeQuestionCount+1) != "" {
		t.Error("expected empty text past the last question")
	}
}

func TestFlowTexts(t *testing.T) {
	if StartText(models.FlowFranchise) != FranchiseStartText {
		t.Error("unexpected franchise start text")
	}
	if StartText(models.FlowReseller) != ResellerStartText {
		t.Error("unexpected reseller start text")
	}
	if EndText(models.FlowFranchise) != FranchiseEndText {
		t.Error("unexpected franchise end text")
	}
	if EndText(models.FlowReseller) != ResellerEndText {
		t.Error("unexpected reseller end text")
	}
}

func TestCapitalRangeLabels(t *testing.T) {
	if CapitalRangeLabels["1"] != "Entre R$ 200 mil e R$ 275 mil" {
		t.Errorf("unexpected label for option 1: %q", CapitalRangeLabels["1"])
	}
	if CapitalRangeLabels["2"] != "Acima de R$ 350 mil" {
		t.Errorf("unexpected label for option 2: %q", CapitalRangeLabels["2"])
	}
	// The last franchise question must present both options.
	q7 := Question(models.FlowFranchise, models.IntakeQuestionCount)
	for _, label := range CapitalRangeLabels {
		if !strings.Contains(q7, label) {
			t.Errorf("final franchise question missing option label %q", label)
		}
	}
}
