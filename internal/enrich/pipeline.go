package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xpanddigital/cratehq-enrich/internal/emailgate"
	"github.com/xpanddigital/cratehq-enrich/internal/model"
)

// Pipeline runs the ordered discovery steps for one artist.
type Pipeline struct {
	steps []Step
	now   func() time.Time
}

// NewPipeline creates a pipeline over the default step list.
func NewPipeline(f Fetcher, g Gateway) *Pipeline {
	return &Pipeline{steps: DefaultSteps(f, g), now: time.Now}
}

// NewPipelineWithSteps creates a pipeline over an explicit step list.
func NewPipelineWithSteps(steps []Step) *Pipeline {
	return &Pipeline{steps: steps, now: time.Now}
}

// Enrich runs every step in order, never stopping early: the full step list
// is the audit trail, and the winner is the highest-confidence accepted
// candidate across all of them, earlier step winning ties. It returns an
// error only when no step could even be attempted.
func (p *Pipeline) Enrich(ctx context.Context, a *model.Artist) (*model.EnrichmentResult, error) {
	start := p.now()
	result := &model.EnrichmentResult{}

	var (
		attempted int
		winner    *model.EmailCandidate
		seen      = make(map[string]int) // email -> index in AllEmails
	)

	for _, step := range p.steps {
		record := p.runStep(ctx, step, a)
		result.Steps = append(result.Steps, record)

		if record.Status != model.StepStatusSkipped {
			attempted++
		}

		for _, c := range record.EmailsFound {
			// Union across steps: keep the higher-confidence instance of a
			// repeated address, earlier step on ties.
			if i, ok := seen[c.Email]; ok {
				if c.Confidence > result.AllEmails[i].Confidence {
					result.AllEmails[i] = c
				}
			} else {
				seen[c.Email] = len(result.AllEmails)
				result.AllEmails = append(result.AllEmails, c)
			}

			if winner == nil || c.Confidence > winner.Confidence {
				w := c
				winner = &w
			}
		}
	}

	if attempted == 0 {
		return nil, eris.Errorf("enrich: no discovery step could be attempted for artist %s", a.ID)
	}

	if winner != nil {
		result.EmailFound = winner.Email
		result.EmailConfidence = winner.Confidence
		result.EmailSource = winner.Source
		result.IsContactable = true
	}
	result.TotalDurationMS = p.now().Sub(start).Milliseconds()

	zap.L().Info("enrichment run finished",
		zap.String("artist_id", a.ID),
		zap.Int("steps_attempted", attempted),
		zap.Bool("contactable", result.IsContactable),
		zap.String("email_source", result.EmailSource),
		zap.Int64("duration_ms", result.TotalDurationMS),
	)

	return result, nil
}

// runStep times one step and filters its candidates through the quality
// gate. Step panics or errors never propagate; they land on the record.
func (p *Pipeline) runStep(ctx context.Context, step Step, a *model.Artist) model.EnrichmentStep {
	record := model.EnrichmentStep{
		StrategyTag: step.Tag(),
		Label:       step.Label(),
		Status:      model.StepStatusRunning,
	}

	stepStart := p.now()
	outcome := step.Attempt(ctx, a)
	record.DurationMS = p.now().Sub(stepStart).Milliseconds()

	record.Status = outcome.Status
	record.ActorUsed = outcome.ActorUsed
	record.Error = outcome.Error

	for _, c := range outcome.Candidates {
		verdict := emailgate.Check(c.Email)
		if !verdict.Accepted {
			record.RejectedEmails = append(record.RejectedEmails, model.RejectedEmail{
				Email:  c.Email,
				Reason: verdict.Reason,
			})
			continue
		}

		accepted := model.EmailCandidate{
			Email:      c.Email,
			Source:     step.Tag(),
			Confidence: c.Confidence,
		}
		record.EmailsFound = append(record.EmailsFound, accepted)

		if c.Confidence > record.Confidence {
			record.BestEmail = c.Email
			record.Confidence = c.Confidence
		}
	}

	return record
}

// ApplyResult writes an enrichment outcome onto the artist record.
func ApplyResult(a *model.Artist, res *model.EnrichmentResult) {
	now := time.Now().UTC()
	a.Email = res.EmailFound
	a.EmailConfidence = res.EmailConfidence
	a.EmailSource = res.EmailSource
	a.AllEmailsFound = res.AllEmails
	a.IsContactable = res.IsContactable
	a.EnrichedAt = &now
}
