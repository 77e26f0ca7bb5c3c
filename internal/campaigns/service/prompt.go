package service

import (
	"fmt"
	"strings"

	"outreach_backend/internal/campaigns/domain"
	leaddomain "outreach_backend/internal/leads/domain"
)

const systemPrompt = "You are an expert sales email writer."

// buildUserPrompt assembles the generation prompt from the lead profile and
// the campaign context. The model is instructed to put the subject on a
// "Subject:" first line; the response parser depends on that.
func buildUserPrompt(lead *leaddomain.Lead, campaignCtx domain.Context) string {
	var b strings.Builder

	b.WriteString("Generate a personalized outreach email for this lead:\n")
	fmt.Fprintf(&b, "Name: %s\n", valueOr(lead.FullName(), "unknown"))
	fmt.Fprintf(&b, "Company: %s\n", valueOr(lead.CompanyName, "unknown"))
	fmt.Fprintf(&b, "Job title: %s\n", valueOr(lead.JobTitle, "unknown"))
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)

	b.WriteString("\nAbout the sender:\n")
	fmt.Fprintf(&b, "Company: %s\n", campaignCtx.CompanyName)
	fmt.Fprintf(&b, "Product: %s\n", campaignCtx.ProductDescription)
	if campaignCtx.ProblemStatement != "" {
		fmt.Fprintf(&b, "Problem solved: %s\n", campaignCtx.ProblemStatement)
	}
	fmt.Fprintf(&b, "Call to action: %s\n", campaignCtx.CallToAction)

	tone := campaignCtx.Tone
	if tone == "" {
		tone = domain.ToneProfessional
	}

	b.WriteString("\nEmail requirements:\n")
	b.WriteString("- Keep it under 150 words\n")
	fmt.Fprintf(&b, "- Use a %s tone\n", strings.ToLower(string(tone)))
	b.WriteString("- Mention their specific role and company when known\n")
	b.WriteString("- Include the call to action\n")
	b.WriteString("- Format: a line starting with \"Subject:\" first, then the email body\n")
	b.WriteString("\nWrite the email now.")

	return b.String()
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
