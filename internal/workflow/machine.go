package workflow

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/pkg/metrics"
)

const DefaultResultsDelay = time.Second

// Transition describes a completed step change.
type Transition struct {
	SessionID string
	From      entity.Step
	To        entity.Step
}

type Listener func(Transition)

type Option func(*Machine)

func WithScheduler(s Scheduler) Option {
	return func(m *Machine) {
		m.scheduler = s
	}
}

func WithResultsDelay(d time.Duration) Option {
	return func(m *Machine) {
		m.resultsDelay = d
	}
}

// WithListener registers a callback for every transition. It runs outside
// the machine lock, on the goroutine that caused the transition.
func WithListener(l Listener) Option {
	return func(m *Machine) {
		m.listeners = append(m.listeners, l)
	}
}

// Machine is the assessment workflow of one session:
//
//	Input -> Generate -> Answer -> Results
//
// with Reset returning to Input from anywhere. All methods are safe for
// concurrent use; score merges are atomic.
type Machine struct {
	mu sync.Mutex

	id         string
	step       entity.Step
	jdText     string
	jdOverview string
	questions  []entity.Question
	scores     map[string]float64

	scheduler    Scheduler
	resultsDelay time.Duration
	listeners    []Listener

	// generation invalidates scheduled callbacks from an earlier batch.
	generation uint64
	// scheduled reserves the single Results transition of a generation.
	scheduled bool
	pending   Timer
}

func New(id string, opts ...Option) *Machine {
	m := &Machine{
		id:           id,
		step:         entity.StepInput,
		scheduler:    RealScheduler(),
		resultsDelay: DefaultResultsDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) ID() string {
	return m.id
}

func (m *Machine) Step() entity.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

// AcceptJD stores a validated job description and moves Input -> Generate.
func (m *Machine) AcceptJD(jdText, overview string) error {
	m.mu.Lock()
	if m.step != entity.StepInput {
		defer m.mu.Unlock()
		return m.wrongStep("accept job description", entity.StepInput)
	}
	if jdText == "" {
		m.mu.Unlock()
		return fmt.Errorf("%w: jd_text", entity.ErrMissingField)
	}

	m.jdText = jdText
	m.jdOverview = overview
	t := m.transitionLocked(entity.StepGenerate)
	m.mu.Unlock()

	m.notify(t)
	return nil
}

// LoadQuestions installs a new batch and moves Generate -> Answer, clearing
// previous scores. An empty batch leaves the machine in Generate.
func (m *Machine) LoadQuestions(questions []entity.Question) error {
	m.mu.Lock()
	if m.step != entity.StepGenerate {
		defer m.mu.Unlock()
		return m.wrongStep("load questions", entity.StepGenerate)
	}
	if len(questions) == 0 {
		m.mu.Unlock()
		return entity.ErrGenerationEmpty
	}

	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if q.ID == "" {
			m.mu.Unlock()
			return fmt.Errorf("%w: question id", entity.ErrMissingField)
		}
		if _, dup := seen[q.ID]; dup {
			m.mu.Unlock()
			return fmt.Errorf("%w: duplicate question id %q", entity.ErrInvalidParameter, q.ID)
		}
		seen[q.ID] = struct{}{}
	}

	m.cancelPendingLocked()
	m.questions = slices.Clone(questions)
	m.scores = make(map[string]float64, len(questions))
	t := m.transitionLocked(entity.StepAnswer)
	m.mu.Unlock()

	m.notify(t)
	return nil
}

// RecordScore merges one evaluation result. Recording a score twice for the
// same question keeps the latest. Once every current question has a score
// the move to Results is scheduled after the configured delay. It reports
// whether all questions are now scored.
func (m *Machine) RecordScore(questionID string, score float64) (bool, error) {
	m.mu.Lock()
	if m.step != entity.StepAnswer {
		err := m.wrongStep("record score", entity.StepAnswer)
		m.mu.Unlock()
		return false, err
	}
	if m.questionIndexLocked(questionID) < 0 {
		m.mu.Unlock()
		return false, fmt.Errorf("%w: %s", entity.ErrQuestionNotFound, questionID)
	}

	m.scores[questionID] = clampScore(score)

	complete := m.allScoredLocked()
	schedule := complete && !m.scheduled
	if schedule {
		m.scheduled = true
	}
	gen := m.generation
	m.mu.Unlock()

	if schedule {
		m.scheduleResults(gen)
	}
	return complete, nil
}

// scheduleResults arms the delayed Results transition outside the lock,
// so a scheduler may run f synchronously.
func (m *Machine) scheduleResults(gen uint64) {
	timer := m.scheduler.AfterFunc(m.resultsDelay, func() {
		m.completeResults(gen)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen == m.generation && m.step == entity.StepAnswer {
		m.pending = timer
		return
	}
	// Already fired, or the batch was replaced meanwhile.
	timer.Stop()
}

// Reset returns to Input and drops every field. A scheduled Results
// transition is cancelled.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.cancelPendingLocked()
	m.jdText = ""
	m.jdOverview = ""
	m.questions = nil
	m.scores = nil
	t := m.transitionLocked(entity.StepInput)
	m.mu.Unlock()

	m.notify(t)
}

// Question looks a question up in the current batch.
func (m *Machine) Question(questionID string) (entity.Question, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.questionIndexLocked(questionID)
	if i < 0 {
		return entity.Question{}, false
	}
	return m.questions[i], true
}

func (m *Machine) JDText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jdText
}

// Snapshot returns a deep copy of the session for rendering.
func (m *Machine) Snapshot() entity.SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	return entity.SessionView{
		ID:         m.id,
		Step:       m.step,
		JDText:     m.jdText,
		JDOverview: m.jdOverview,
		Questions:  slices.Clone(m.questions),
		Scores:     maps.Clone(m.scores),
	}
}

// Results aggregates the current scores. Available once questions exist.
func (m *Machine) Results() (entity.Results, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.step != entity.StepAnswer && m.step != entity.StepResults {
		return entity.Results{}, m.wrongStep("build results", entity.StepResults)
	}
	return Aggregate(m.questions, m.scores), nil
}

func (m *Machine) completeResults(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.step != entity.StepAnswer || !m.allScoredLocked() {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	t := m.transitionLocked(entity.StepResults)
	m.mu.Unlock()

	m.notify(t)
}

func (m *Machine) allScoredLocked() bool {
	if len(m.questions) == 0 {
		return false
	}
	for _, q := range m.questions {
		if _, ok := m.scores[q.ID]; !ok {
			return false
		}
	}
	return true
}

func (m *Machine) questionIndexLocked(id string) int {
	return slices.IndexFunc(m.questions, func(q entity.Question) bool {
		return q.ID == id
	})
}

func (m *Machine) cancelPendingLocked() {
	m.generation++
	m.scheduled = false
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
}

func (m *Machine) transitionLocked(to entity.Step) Transition {
	t := Transition{SessionID: m.id, From: m.step, To: to}
	m.step = to
	metrics.StepTransitions.WithLabelValues(t.From.String(), t.To.String()).Inc()
	return t
}

func (m *Machine) notify(t Transition) {
	for _, l := range m.listeners {
		l(t)
	}
}

func (m *Machine) wrongStep(op string, want entity.Step) error {
	return fmt.Errorf("%w: cannot %s in step %s, expected %s", entity.ErrWrongStep, op, m.step, want)
}

func clampScore(score float64) float64 {
	return min(max(score, 0), 100)
}
