package memory

import (
	"context"
	"fmt"
)

// Summary aggregates statistics over the records visible in one scope,
// optionally restricted to a project. Read-only, single pass.
func (e *Engine) Summary(ctx context.Context, projectID string) (*Summary, error) {
	summary, err := e.gw.Aggregate(ctx, Filter{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate memories: %w", err)
	}
	return summary, nil
}
