package service

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"bto/internal/project/models"
	dErrors "bto/pkg/domain-errors"
	"bto/pkg/platform/audit"
)

// CheckEligibility reports whether user may apply to the project. The only
// error is a missing project; every other failure is a denial.
func (s *Service) CheckEligibility(ctx context.Context, user models.User, projectID string) (bool, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return false, err
	}

	verdict := s.engine.Evaluate(ctx, p, user)
	s.logAudit(ctx, audit.EventEligibilityChecked,
		"project_id", p.ID(),
		"actor", user.NRIC,
		"decision", strconv.FormatBool(verdict.Eligible),
		"reason", string(verdict.Reason),
	)
	return verdict.Eligible, nil
}

// ListEligibleProjects evaluates every visible project for user and returns
// the ones they may apply to, ordered by ID. Evaluations run concurrently,
// bounded by the configured limit.
func (s *Service) ListEligibleProjects(ctx context.Context, user models.User) ([]*models.Project, error) {
	start := time.Now()
	defer s.metrics.ObserveListEligible(start)

	projects, err := s.ListProjects(ctx, true)
	if err != nil {
		return nil, err
	}

	eligible := make([]bool, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range projects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			eligible[i] = s.engine.Evaluate(gctx, p, user).Eligible
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "eligibility listing cancelled")
	}

	out := make([]*models.Project, 0, len(projects))
	for i, p := range projects {
		if eligible[i] {
			out = append(out, p)
		}
	}
	return out, nil
}
