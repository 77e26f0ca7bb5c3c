package service

import (
	"context"

	"outreach_backend/internal/campaigns/domain"
	leaddomain "outreach_backend/internal/leads/domain"
	"outreach_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// runGeneration fans out position-1 generation over the targeted leads with
// bounded parallelism and fans the results back in. Every lead yields exactly
// one row: generated with content, or failed with the error detail. One
// lead's failure never cancels its siblings, so the group functions always
// return nil.
func (s *Service) runGeneration(ctx context.Context, campaign *domain.Campaign, fromEmail string, leads []leaddomain.Lead) []domain.CampaignEmail {
	provider := domain.DetectProvider(fromEmail)

	// Results are indexed by lead position so the output order matches the
	// lead iteration order regardless of completion order.
	results := make([]domain.CampaignEmail, len(leads))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)

	for i := range leads {
		group.Go(func() error {
			lead := &leads[i]

			email := domain.CampaignEmail{
				ID:               uuid.New(),
				CampaignID:       campaign.ID,
				LeadID:           lead.ID,
				FromEmail:        fromEmail,
				Provider:         provider,
				SequencePosition: 1,
				Status:           domain.EmailPending,
			}

			draft, err := s.generate(groupCtx, lead, campaign.Context)
			if err != nil {
				email.Status = domain.EmailFailed
				email.ErrorMessage = err.Error()
				s.log.GenerationResult(campaign.ID.String(), lead.ID.String(), 1, false, err.Error())
			} else {
				email.Status = domain.EmailGenerated
				email.Subject = draft.Subject
				email.Body = draft.Body
				s.log.GenerationResult(campaign.ID.String(), lead.ID.String(), 1, true, "")
			}

			results[i] = email
			return nil
		})
	}

	// Group functions never return errors; Wait only synchronizes.
	_ = group.Wait()

	return results
}

func (s *Service) generate(ctx context.Context, lead *leaddomain.Lead, campaignCtx domain.Context) (draft, error) {
	if s.gen == nil {
		return draft{}, apperr.Upstream("text generation is not configured")
	}
	result, err := s.gen.GenerateEmail(ctx, systemPrompt, buildUserPrompt(lead, campaignCtx))
	if err != nil {
		return draft{}, err
	}
	return draft{Subject: result.Subject, Body: result.Body}, nil
}
