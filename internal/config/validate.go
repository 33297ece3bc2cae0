package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Poll.validate(); err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	if err := c.Progression.validate(); err != nil {
		return fmt.Errorf("progression: %w", err)
	}
	return nil
}

func (p *PollConfig) validate() error {
	if p.MinRankCandidates < 2 {
		return fmt.Errorf("min_rank_candidates must be >= 2 (got %d)", p.MinRankCandidates)
	}
	if p.MaxRankCandidates < p.MinRankCandidates {
		return fmt.Errorf("max_rank_candidates must be >= min_rank_candidates (got %d < %d)",
			p.MaxRankCandidates, p.MinRankCandidates)
	}
	if p.MinCategoryTotal < 1 {
		return fmt.Errorf("min_category_total must be >= 1 (got %d)", p.MinCategoryTotal)
	}
	if p.VotingDays < 1 {
		return fmt.Errorf("voting_days must be >= 1 (got %d)", p.VotingDays)
	}
	return nil
}

func (p *ProgressionConfig) validate() error {
	if p.HistoryPageSize < 1 {
		return fmt.Errorf("history_page_size must be >= 1 (got %d)", p.HistoryPageSize)
	}
	return nil
}
