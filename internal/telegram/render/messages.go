package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/futig/jd-assessment/internal/entity"
	pkghttp "github.com/futig/jd-assessment/pkg/http"
)

const (
	MsgWelcome = `👋 Hi! I turn a job description into an interview practice session.

I will:
• check that your text really is a job description
• generate interview questions for the role
• score your answers and show sample answers`

	MsgHelp = `🤖 Commands:

/start - start a new assessment
/reset - drop the current assessment and start over
/help - show this help

How it works:
1. Paste the job description
2. Pick how many questions you want
3. Answer each question in a message, or ask for a sample answer
4. Get your results and download the report`

	MsgAskJD = `📋 Paste the full job description as one message (at least %d characters).`

	MsgJDAccepted = `✅ Job description accepted (confidence %.0f%%).

%s

How many questions should I generate?`

	MsgGenerating = `⏳ Generating questions...`

	MsgPickCount = `👇 Pick how many questions to generate.`

	MsgQuestion = `❓ Question %d of %d

%s

Reply with your answer, or tap a button below.`

	MsgEvaluation = `📊 Score: %.0f/100 (%s)

%s

💡 %s`

	MsgEvaluationFallback = `⚠️ I could not reach the evaluator, a neutral score was recorded.`

	MsgSampleAnswerPending = `💭 Writing a sample answer...`

	MsgAllAnswered = `🎉 That was the last question. Preparing your results...`

	MsgResetDone = `🔄 Assessment reset.`

	ErrGeneric            = `❌ Something went wrong. Try again or send /start`
	ErrNoSession          = `❌ No active assessment. Send /start`
	ErrSessionNotFound    = `❌ Assessment not found or expired. Send /start to begin a new one.`
	ErrQuestionNotFound   = `❌ That question is no longer available.`
	ErrWrongStep          = `❌ That action does not fit the current step.`
	ErrGenerationEmpty    = `❌ No questions came back. Pick a count to try again.`
	ErrNetworkIssue       = `❌ Connection problem. Try again a bit later.`
	ErrServiceUnavailable = `❌ The assessment service is unavailable. Try again in a couple of minutes.`
	ErrInvalidInput       = `❌ I could not use that input. Try again.`
	ErrTimeout            = `❌ That took too long. Try again.`
	ErrEmptyAnswer        = `❌ Send your answer as a text message.`
)

// RenderJDRejected explains why a job description was not accepted.
func RenderJDRejected(analysis *entity.JDAnalysis, threshold float64) string {
	var sb strings.Builder
	sb.WriteString("🚫 This does not look like a job description I can work with.\n\n")
	if analysis != nil {
		fmt.Fprintf(&sb, "Confidence: %.0f%% (need %.0f%%)\n", analysis.Confidence, threshold)
		if analysis.Overview != "" {
			fmt.Fprintf(&sb, "\n%s\n", analysis.Overview)
		}
	}
	sb.WriteString("\nPaste a complete job description to try again.")
	return sb.String()
}

func RenderJDAccepted(analysis *entity.JDAnalysis) string {
	return fmt.Sprintf(MsgJDAccepted, analysis.Confidence, analysis.Overview)
}

func RenderQuestion(number, total int, text string) string {
	return fmt.Sprintf(MsgQuestion, number, total, text)
}

func RenderEvaluation(e *entity.Evaluation) string {
	text := fmt.Sprintf(MsgEvaluation, e.Score, entity.Rating(e.Score), e.Feedback, e.ImprovementSuggestions)
	if e.Fallback {
		text = MsgEvaluationFallback + "\n\n" + text
	}
	return text
}

// RenderSampleAnswer shows a sample answer; streaming marks a partial text.
func RenderSampleAnswer(text string, streaming bool) string {
	if streaming {
		return "💡 Sample answer (writing...)\n\n" + text
	}
	return "💡 Sample answer\n\n" + text
}

// RenderResults formats the results dashboard
func RenderResults(r *entity.Results) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏁 Results\n\nOverall score: %.0f/100\nAnswered: %d of %d\n", r.OverallScore, r.Answered, r.Total)

	writeBucket := func(title string, qs []entity.ScoredQuestion) {
		if len(qs) == 0 {
			return
		}
		fmt.Fprintf(&sb, "\n%s (%d)\n", title, len(qs))
		for _, q := range qs {
			fmt.Fprintf(&sb, "• %.0f: %s\n", q.Score, q.Text)
		}
	}
	writeBucket("🟢 Excellent", r.Excellent)
	writeBucket("🟡 Good", r.Good)
	writeBucket("🔴 Needs improvement", r.NeedsImprovement)

	if len(r.Unanswered) > 0 {
		fmt.Fprintf(&sb, "\n⚪ Not answered (%d)\n", len(r.Unanswered))
		for _, q := range r.Unanswered {
			fmt.Fprintf(&sb, "• %s\n", q.Text)
		}
	}

	return sb.String()
}

// ClassifyError analyzes an error and returns an appropriate user-friendly message
func ClassifyError(err error) string {
	if err == nil {
		return ErrGeneric
	}

	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		return ErrSessionNotFound
	case errors.Is(err, entity.ErrQuestionNotFound):
		return ErrQuestionNotFound
	case errors.Is(err, entity.ErrWrongStep):
		return ErrWrongStep
	case errors.Is(err, entity.ErrGenerationEmpty):
		return ErrGenerationEmpty
	case errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrInvalidFormat):
		return ErrInvalidInput
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrTimeout
	}

	var netErr *pkghttp.NetworkError
	if errors.As(err, &netErr) {
		return ErrNetworkIssue
	}

	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode >= 500 {
		return ErrServiceUnavailable
	}

	return ErrGeneric
}
