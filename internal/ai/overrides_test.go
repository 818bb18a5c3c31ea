package ai

import (
	"strings"
	"testing"

	"studytrack/backend/internal/model"
)

func pickFirst(n int) int { return 0 }

func TestIdentityQuestionReturnsAttribution(t *testing.T) {
	phrasings := []string{
		"Who created you?",
		"tell me WHO TRAINED YOU",
		"I wonder about your developer",
		"who built you exactly",
	}
	for _, msg := range phrasings {
		o := EvaluateOverrides(msg, "", pickFirst)
		if o == nil {
			t.Fatalf("%q should trigger the identity override", msg)
		}
		if !o.Delayed {
			t.Fatalf("%q: identity responses must be paced with a delay", msg)
		}
		if !strings.Contains(o.Reply, "Adarsh Tiwari") {
			t.Fatalf("%q: reply lacks creator attribution: %q", msg, o.Reply)
		}
	}
}

func TestIdentityPickSelectsWithinResponseSet(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < len(identityResponses); i++ {
		idx := i
		o := EvaluateOverrides("who made you", "", func(n int) int { return idx % n })
		if o == nil {
			t.Fatal("expected override")
		}
		seen[o.Reply] = true
	}
	if len(seen) != len(identityResponses) {
		t.Fatalf("expected %d distinct replies, saw %d", len(identityResponses), len(seen))
	}
}

func TestPersonaLookupGeneralVsPersonal(t *testing.T) {
	general := EvaluateOverrides("who is adarsh?", "", pickFirst)
	if general == nil || general.Delayed {
		t.Fatalf("general persona lookup: %+v", general)
	}
	if !strings.Contains(general.Reply, "engineering graduate") || strings.Contains(general.Reply, "Divyani") {
		t.Fatalf("unexpected general reply: %q", general.Reply)
	}

	personal := EvaluateOverrides("tell me about adarsh and his wife", "", pickFirst)
	if personal == nil || !strings.Contains(personal.Reply, "Divyani") {
		t.Fatalf("personal persona lookup: %+v", personal)
	}

	misti := EvaluateOverrides("who is misti", "", pickFirst)
	if misti == nil || !strings.Contains(misti.Reply, "medical aspirant") {
		t.Fatalf("misti lookup: %+v", misti)
	}
}

func TestIdentityRunsBeforePersona(t *testing.T) {
	// Matches both an identity phrasing and a persona trigger; identity wins.
	o := EvaluateOverrides("who created you, adarsh tiwari?", "", pickFirst)
	if o == nil || !o.Delayed {
		t.Fatalf("identity check must take precedence, got %+v", o)
	}
}

func TestDomainFilterRestrictedTracksOnly(t *testing.T) {
	msg := "who will win the cricket match today"

	for examType, domain := range map[string]string{
		model.ExamUPSC:   "UPSC CSE and general academic topics",
		model.ExamNEETUG: "NEET UG and general science topics",
	} {
		o := EvaluateOverrides(msg, examType, pickFirst)
		if o == nil {
			t.Fatalf("%s: off-topic message should be redirected", examType)
		}
		if o.Delayed {
			t.Fatalf("%s: redirect must not be delayed", examType)
		}
		if !strings.Contains(o.Reply, domain) {
			t.Fatalf("%s: redirect should name the permitted domain, got %q", examType, o.Reply)
		}
	}

	for _, examType := range []string{"", model.ExamIITJEE, model.ExamCoding, model.ExamDSA, model.ExamAIML} {
		if o := EvaluateOverrides(msg, examType, pickFirst); o != nil {
			t.Fatalf("examType %q must not be domain-filtered, got %+v", examType, o)
		}
	}
}

func TestOnTopicMessagePassesThrough(t *testing.T) {
	for _, msg := range []string{
		"explain quicksort",
		"what are fundamental rights",
		"describe glycolysis step by step",
	} {
		if o := EvaluateOverrides(msg, model.ExamUPSC, pickFirst); o != nil {
			t.Fatalf("%q should reach the completion endpoint, got %+v", msg, o)
		}
	}
}

func TestSystemPromptSelection(t *testing.T) {
	if p := SystemPrompt(model.ExamCoding); !strings.Contains(p, "coding interview") {
		t.Fatalf("coding prompt not selected: %q", p[:60])
	}
	if p := SystemPrompt(model.ExamUPSC); !strings.Contains(p, "UPSC CSE") {
		t.Fatalf("UPSC prompt not selected")
	}
	if p := SystemPrompt(""); p != genericPrompt {
		t.Fatal("unset exam type must fall back to the generic prompt")
	}
	if p := SystemPrompt("NOT_A_TRACK"); p != genericPrompt {
		t.Fatal("unknown exam type must fall back to the generic prompt")
	}
}
