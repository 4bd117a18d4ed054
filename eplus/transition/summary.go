package transition

import "sort"

// BatchSummary aggregates the outcomes of a batch.
type BatchSummary struct {
	Total        int
	Succeeded    int
	Failed       int
	Cancelled    int
	StepsApplied int
	FailedModels []string // sorted
}

// OK reports whether every run succeeded.
func (s *BatchSummary) OK() bool { return s.Succeeded == s.Total }

// Summarize computes aggregate statistics for a batch result.
// Safe for nil or empty maps (returns zero-value fields).
func Summarize(runs map[string]*PipelineRun) *BatchSummary {
	summary := &BatchSummary{}
	for model, run := range runs {
		if run == nil {
			continue
		}
		summary.Total++
		summary.StepsApplied += len(run.Applied)
		switch run.Outcome {
		case OutcomeSucceeded:
			summary.Succeeded++
		case OutcomeCancelled:
			summary.Cancelled++
			summary.FailedModels = append(summary.FailedModels, model)
		default:
			summary.Failed++
			summary.FailedModels = append(summary.FailedModels, model)
		}
	}
	sort.Strings(summary.FailedModels)
	return summary
}
