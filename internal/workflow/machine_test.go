package workflow

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualScheduler records delayed calls and fires them on demand.
type manualScheduler struct {
	mu    sync.Mutex
	calls []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{delay: d, f: f}
	s.calls = append(s.calls, t)
	return t
}

func (s *manualScheduler) pending() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*manualTimer(nil), s.calls...)
}

// fireAll runs every recorded call, even stopped ones, to emulate a timer
// that already fired when Stop raced with it.
func (s *manualScheduler) fireAll() {
	for _, t := range s.pending() {
		t.f()
	}
}

func questions(n int) []entity.Question {
	qs := make([]entity.Question, n)
	for i := range qs {
		qs[i] = entity.Question{
			ID:              fmt.Sprintf("q%d", i+1),
			Text:            fmt.Sprintf("Question %d?", i+1),
			ReferenceAnswer: fmt.Sprintf("Reference %d.", i+1),
		}
	}
	return qs
}

func answeringMachine(t *testing.T, n int, opts ...Option) *Machine {
	t.Helper()
	m := New("s-1", opts...)
	require.NoError(t, m.AcceptJD("Senior Go engineer ...", "Backend role"))
	require.NoError(t, m.LoadQuestions(questions(n)))
	return m
}

func TestMachine_HappyPath(t *testing.T) {
	sched := &manualScheduler{}
	var transitions []Transition
	m := New("s-1",
		WithScheduler(sched),
		WithResultsDelay(time.Second),
		WithListener(func(tr Transition) { transitions = append(transitions, tr) }),
	)

	assert.Equal(t, entity.StepInput, m.Step())
	require.NoError(t, m.AcceptJD("jd", "overview"))
	assert.Equal(t, entity.StepGenerate, m.Step())
	require.NoError(t, m.LoadQuestions(questions(3)))
	assert.Equal(t, entity.StepAnswer, m.Step())

	for i, id := range []string{"q1", "q2"} {
		complete, err := m.RecordScore(id, float64(70+i))
		require.NoError(t, err)
		assert.False(t, complete)
	}
	assert.Empty(t, sched.pending())

	complete, err := m.RecordScore("q3", 90)
	require.NoError(t, err)
	assert.True(t, complete)

	require.Len(t, sched.pending(), 1)
	assert.Equal(t, time.Second, sched.pending()[0].delay)
	assert.Equal(t, entity.StepAnswer, m.Step(), "results must wait for the delay")

	sched.fireAll()
	assert.Equal(t, entity.StepResults, m.Step())

	assert.Equal(t, []Transition{
		{SessionID: "s-1", From: entity.StepInput, To: entity.StepGenerate},
		{SessionID: "s-1", From: entity.StepGenerate, To: entity.StepAnswer},
		{SessionID: "s-1", From: entity.StepAnswer, To: entity.StepResults},
	}, transitions)
}

func TestMachine_ScoreOverwriteIsIdempotent(t *testing.T) {
	sched := &manualScheduler{}
	m := answeringMachine(t, 2, WithScheduler(sched))

	_, err := m.RecordScore("q1", 40)
	require.NoError(t, err)
	_, err = m.RecordScore("q1", 85)
	require.NoError(t, err)

	snap := m.Snapshot()
	assert.Equal(t, map[string]float64{"q1": 85}, snap.Scores)
	assert.Empty(t, sched.pending(), "one question scored twice is not all questions")
}

func TestMachine_SinglePendingTransition(t *testing.T) {
	sched := &manualScheduler{}
	m := answeringMachine(t, 1, WithScheduler(sched))

	_, _ = m.RecordScore("q1", 50)
	_, _ = m.RecordScore("q1", 60)

	assert.Len(t, sched.pending(), 1)
}

func TestMachine_RejectsForeignQuestion(t *testing.T) {
	m := answeringMachine(t, 2, WithScheduler(&manualScheduler{}))

	_, err := m.RecordScore("other", 99)

	assert.ErrorIs(t, err, entity.ErrQuestionNotFound)
	assert.Empty(t, m.Snapshot().Scores)
}

func TestMachine_ClampsScore(t *testing.T) {
	m := answeringMachine(t, 2, WithScheduler(&manualScheduler{}))

	_, _ = m.RecordScore("q1", 140)
	_, _ = m.RecordScore("q2", -3)

	assert.Equal(t, map[string]float64{"q1": 100, "q2": 0}, m.Snapshot().Scores)
}

func TestMachine_EmptyBatchStaysInGenerate(t *testing.T) {
	m := New("s-1")
	require.NoError(t, m.AcceptJD("jd", ""))

	err := m.LoadQuestions(nil)

	assert.ErrorIs(t, err, entity.ErrGenerationEmpty)
	assert.Equal(t, entity.StepGenerate, m.Step())
}

func TestMachine_InvalidBatch(t *testing.T) {
	m := New("s-1")
	require.NoError(t, m.AcceptJD("jd", ""))

	err := m.LoadQuestions([]entity.Question{{ID: "a"}, {ID: "a"}})
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	err = m.LoadQuestions([]entity.Question{{Text: "no id"}})
	assert.ErrorIs(t, err, entity.ErrMissingField)

	assert.Equal(t, entity.StepGenerate, m.Step())
}

func TestMachine_WrongStep(t *testing.T) {
	m := New("s-1")

	assert.ErrorIs(t, m.LoadQuestions(questions(1)), entity.ErrWrongStep)
	_, err := m.RecordScore("q1", 10)
	assert.ErrorIs(t, err, entity.ErrWrongStep)
	_, err = m.Results()
	assert.ErrorIs(t, err, entity.ErrWrongStep)

	require.NoError(t, m.AcceptJD("jd", ""))
	assert.ErrorIs(t, m.AcceptJD("jd", ""), entity.ErrWrongStep)
}

func TestMachine_ResetEqualsInitialSnapshot(t *testing.T) {
	sched := &manualScheduler{}
	initial := New("s-1", WithScheduler(sched)).Snapshot()

	m := answeringMachine(t, 2, WithScheduler(sched))
	_, _ = m.RecordScore("q1", 80)
	_, _ = m.RecordScore("q2", 70)

	m.Reset()

	assert.Equal(t, initial, m.Snapshot())
	require.Len(t, sched.pending(), 1)
	assert.True(t, sched.pending()[0].stopped)
}

func TestMachine_StaleTimerAfterReset(t *testing.T) {
	sched := &manualScheduler{}
	m := answeringMachine(t, 1, WithScheduler(sched))
	_, _ = m.RecordScore("q1", 80)

	m.Reset()
	sched.fireAll()

	assert.Equal(t, entity.StepInput, m.Step())
}

func TestMachine_StaleTimerAfterNewBatch(t *testing.T) {
	sched := &manualScheduler{}
	m := answeringMachine(t, 1, WithScheduler(sched))
	_, _ = m.RecordScore("q1", 80)

	m.Reset()
	require.NoError(t, m.AcceptJD("jd", ""))
	require.NoError(t, m.LoadQuestions(questions(2)))
	sched.fireAll()

	assert.Equal(t, entity.StepAnswer, m.Step())
}

func TestMachine_SnapshotIsACopy(t *testing.T) {
	m := answeringMachine(t, 1, WithScheduler(&manualScheduler{}))
	_, _ = m.RecordScore("q1", 10)

	snap := m.Snapshot()
	snap.Questions[0].Text = "mutated"
	snap.Scores["q1"] = 99

	q, ok := m.Question("q1")
	require.True(t, ok)
	assert.Equal(t, "Question 1?", q.Text)
	assert.Equal(t, 10.0, m.Snapshot().Scores["q1"])
}

func TestMachine_ConcurrentScoresAllMerge(t *testing.T) {
	sched := &manualScheduler{}
	m := answeringMachine(t, 50, WithScheduler(sched))

	var wg sync.WaitGroup
	for _, q := range questions(50) {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := m.RecordScore(id, 75)
			assert.NoError(t, err)
		}(q.ID)
	}
	wg.Wait()

	assert.Len(t, m.Snapshot().Scores, 50)
	assert.Len(t, sched.pending(), 1)
}

func TestMachine_RealSchedulerTransitions(t *testing.T) {
	m := answeringMachine(t, 1, WithResultsDelay(10*time.Millisecond))

	_, err := m.RecordScore("q1", 65)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return m.Step() == entity.StepResults
	}, time.Second, 5*time.Millisecond)
}

// syncScheduler runs f immediately, inside AfterFunc.
type syncScheduler struct{ calls int }

func (s *syncScheduler) AfterFunc(_ time.Duration, f func()) Timer {
	s.calls++
	f()
	return &manualTimer{}
}

func TestMachine_SynchronousSchedulerDoesNotDeadlock(t *testing.T) {
	sched := &syncScheduler{}
	m := answeringMachine(t, 2, WithScheduler(sched))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := m.RecordScore("q1", 70)
		assert.NoError(t, err)
		complete, err := m.RecordScore("q2", 90)
		assert.NoError(t, err)
		assert.True(t, complete)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RecordScore blocked on a synchronous scheduler")
	}

	assert.Equal(t, entity.StepResults, m.Step())
	assert.Equal(t, 1, sched.calls)
}
