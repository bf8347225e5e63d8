package handlers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/telegram/render"
	"github.com/futig/jd-assessment/internal/telegram/state"
	"github.com/futig/jd-assessment/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userID = int64(7)
	chatID = int64(70)
)

func callback(data string) *Message {
	return &Message{ChatID: chatID, UserID: userID, CallbackData: data}
}

func text(s string) *Message {
	return &Message{ChatID: chatID, UserID: userID, Text: s}
}

func TestNextQuestion(t *testing.T) {
	view := &entity.SessionView{
		Questions: []entity.Question{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Scores:    map[string]float64{"a": 90},
	}

	st := &state.ChatState{}
	q, i, ok := nextQuestion(view, st)
	require.True(t, ok)
	assert.Equal(t, "b", q.ID)
	assert.Equal(t, 1, i)

	st.Skipped = []string{"b"}
	q, _, ok = nextQuestion(view, st)
	require.True(t, ok)
	assert.Equal(t, "c", q.ID)

	st.Skipped = []string{"b", "c"}
	q, _, ok = nextQuestion(view, st)
	require.True(t, ok, "skipped questions come round again")
	assert.Equal(t, "b", q.ID)
	assert.Empty(t, st.Skipped)

	view.Scores = map[string]float64{"a": 1, "b": 2, "c": 3}
	_, _, ok = nextQuestion(view, &state.ChatState{})
	assert.False(t, ok)
}

func TestStreamEditor_PushesLatestText(t *testing.T) {
	var mu sync.Mutex
	var edits []string
	lastEdit := func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(edits) == 0 {
			return ""
		}
		return edits[len(edits)-1]
	}

	e := newStreamEditor(10*time.Millisecond, func(text string) {
		mu.Lock()
		defer mu.Unlock()
		edits = append(edits, text)
	})

	e.Update("one")
	e.Update("one two")
	assert.Eventually(t, func() bool { return lastEdit() == "one two" }, time.Second, 5*time.Millisecond)

	e.Stop()
	e.Update("late")
	e.Stop()
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, edits, "late")
	assert.LessOrEqual(t, len(edits), 2, "unchanged text is not re-sent")
}

func TestAssessmentFlow(t *testing.T) {
	ctx := context.Background()
	sessions := &fakeSessions{
		jdResp: &entity.SubmitJDResponse{
			Analysis: &entity.JDAnalysis{IsValidJD: true, Confidence: 95, Overview: "Go backend role"},
		},
		evaluation: &entity.Evaluation{Score: 88, Feedback: "Solid", ImprovementSuggestions: "Mention the scheduler"},
	}
	deps, sender := newDeps(t, sessions)

	cb := NewCallbackHandler(deps)
	jd := NewJDHandler(deps)
	ans := NewAnswerHandler(deps)

	require.NoError(t, cb.Handle(ctx, callback("action:start")))
	assert.Equal(t, fmt.Sprintf(render.MsgAskJD, 200), sender.last())

	require.NoError(t, jd.Handle(ctx, text("a long job description")))
	assert.Contains(t, sender.last(), "Go backend role")

	require.NoError(t, cb.Handle(ctx, callback("count:5")))
	assert.Equal(t, render.RenderQuestion(1, 2, "What is a goroutine?"), sender.last())

	require.NoError(t, ans.Handle(ctx, text("a lightweight thread")))
	texts := sender.texts()
	require.GreaterOrEqual(t, len(texts), 2)
	assert.Contains(t, texts[len(texts)-2], "88/100")
	assert.Equal(t, render.RenderQuestion(2, 2, "What is a channel?"), sender.last())

	st, err := deps.State.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "q2", st.CurrentQuestionID)

	require.NoError(t, ans.Handle(ctx, text("a typed pipe")))
	assert.Equal(t, render.MsgAllAnswered, sender.last())
}

func TestJDRejected(t *testing.T) {
	ctx := context.Background()
	sessions := &fakeSessions{
		jdResp: &entity.SubmitJDResponse{Analysis: &entity.JDAnalysis{IsValidJD: false, Confidence: 20}},
		jdErr:  fmt.Errorf("%w: confidence too low", entity.ErrValidationRejected),
	}
	deps, sender := newDeps(t, sessions)

	require.NoError(t, NewCallbackHandler(deps).Handle(ctx, callback("action:start")))
	require.NoError(t, NewJDHandler(deps).Handle(ctx, text("hello")))

	assert.Contains(t, sender.last(), "Confidence: 20% (need 80%)")
}

func TestJDHandler_NoSession(t *testing.T) {
	deps, sender := newDeps(t, &fakeSessions{})

	require.NoError(t, NewJDHandler(deps).Handle(context.Background(), text("anything")))
	assert.Equal(t, render.ErrNoSession, sender.last())
}

func TestSampleAnswerEndsWithFinalText(t *testing.T) {
	ctx := context.Background()
	sessions := &fakeSessions{chunks: []string{"Go", "Go is"}, answerText: "Go is fast"}
	deps, sender := newDeps(t, sessions)
	cb := NewCallbackHandler(deps)

	require.NoError(t, cb.Handle(ctx, callback("action:start")))
	require.NoError(t, cb.Handle(ctx, callback("gen:q1")))

	assert.Equal(t, render.RenderSampleAnswer("Go is fast", false), sender.last())
}

func TestSkipMovesToNextQuestion(t *testing.T) {
	ctx := context.Background()
	deps, sender := newDeps(t, &fakeSessions{})
	cb := NewCallbackHandler(deps)

	require.NoError(t, cb.Handle(ctx, callback("action:start")))
	require.NoError(t, cb.Handle(ctx, callback("count:5")))
	require.NoError(t, cb.Handle(ctx, callback("skip:q1")))

	assert.Equal(t, render.RenderQuestion(2, 2, "What is a channel?"), sender.last())
}

func TestDownloadSendsDocument(t *testing.T) {
	ctx := context.Background()
	deps, sender := newDeps(t, &fakeSessions{})
	cb := NewCallbackHandler(deps)

	require.NoError(t, cb.Handle(ctx, callback("action:start")))
	require.NoError(t, cb.Handle(ctx, callback("dl:pdf")))

	assert.Equal(t, "document:assessment-results.pdf", sender.last())
}

func TestResetClearsProgress(t *testing.T) {
	ctx := context.Background()
	sessions := &fakeSessions{}
	deps, _ := newDeps(t, sessions)
	cb := NewCallbackHandler(deps)

	require.NoError(t, cb.Handle(ctx, callback("action:start")))
	require.NoError(t, cb.Handle(ctx, callback("count:5")))
	require.NoError(t, cb.Handle(ctx, callback("action:reset")))

	assert.True(t, sessions.resetCalled)
	st, err := deps.State.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "s1", st.SessionID)
	assert.Empty(t, st.CurrentQuestionID)
}

func TestUnknownCallback(t *testing.T) {
	deps, _ := newDeps(t, &fakeSessions{})

	assert.Error(t, NewCallbackHandler(deps).Handle(context.Background(), callback("bogus:1")))
	assert.Error(t, NewCallbackHandler(deps).Handle(context.Background(), callback("nocolon")))
}

func TestResultsNotifier(t *testing.T) {
	ctx := context.Background()
	sessions := &fakeSessions{results: &entity.Results{OverallScore: 75, Answered: 2, Total: 2}}
	deps, sender := newDeps(t, sessions)

	require.NoError(t, NewCallbackHandler(deps).Handle(ctx, callback("action:start")))
	n := NewResultsNotifier(deps)

	n.OnTransition(workflow.Transition{SessionID: "s1", From: entity.StepInput, To: entity.StepGenerate})
	before := len(sender.texts())

	n.OnTransition(workflow.Transition{SessionID: "other", From: entity.StepAnswer, To: entity.StepResults})
	assert.Len(t, sender.texts(), before)

	n.OnTransition(workflow.Transition{SessionID: "s1", From: entity.StepAnswer, To: entity.StepResults})
	assert.Contains(t, sender.last(), "Overall score: 75/100")
}
