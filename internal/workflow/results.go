package workflow

import "github.com/futig/jd-assessment/internal/entity"

// Aggregate builds the results dashboard: the overall score is the mean of
// recorded scores, and questions are bucketed by rating in batch order.
func Aggregate(questions []entity.Question, scores map[string]float64) entity.Results {
	res := entity.Results{
		Total:            len(questions),
		Excellent:        []entity.ScoredQuestion{},
		Good:             []entity.ScoredQuestion{},
		NeedsImprovement: []entity.ScoredQuestion{},
		Unanswered:       []entity.Question{},
	}

	var sum float64
	for _, q := range questions {
		score, ok := scores[q.ID]
		if !ok {
			res.Unanswered = append(res.Unanswered, q)
			continue
		}

		res.Answered++
		sum += score

		sq := entity.ScoredQuestion{Question: q, Score: score, Answered: true}
		switch {
		case score >= entity.ExcellentThreshold:
			res.Excellent = append(res.Excellent, sq)
		case score >= entity.GoodThreshold:
			res.Good = append(res.Good, sq)
		default:
			res.NeedsImprovement = append(res.NeedsImprovement, sq)
		}
	}

	if res.Answered > 0 {
		res.OverallScore = sum / float64(res.Answered)
	}

	return res
}
