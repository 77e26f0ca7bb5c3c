package domain

import "strings"

const (
	// QualificationThreshold is the score at or above which a fresh lead
	// starts as qualified instead of new.
	QualificationThreshold = 50

	maxScore = 100
)

// seniorTitleKeywords earn a bonus when they appear anywhere in the job title.
var seniorTitleKeywords = []string{"director", "manager", "head", "vp", "ceo", "cto", "cfo"}

// freeEmailDomains are consumer providers that earn no domain bonus.
var freeEmailDomains = map[string]struct{}{
	"gmail.com":   {},
	"yahoo.com":   {},
	"hotmail.com": {},
	"outlook.com": {},
}

// highQualitySources earn a source bonus.
var highQualitySources = map[Source]struct{}{
	SourceLinkedIn: {},
	SourceReferral: {},
	SourceEvent:    {},
}

// Score computes the lead quality score. It is a pure function of the lead's
// attributes: additive rules, summed and capped at 100.
func Score(l *Lead) int {
	score := 0

	if strings.TrimSpace(l.CompanyName) != "" {
		score += 20
	}

	if title := strings.TrimSpace(l.JobTitle); title != "" {
		score += 15

		lower := strings.ToLower(title)
		for _, keyword := range seniorTitleKeywords {
			if strings.Contains(lower, keyword) {
				score += 20
				break
			}
		}
	}

	if strings.TrimSpace(l.Phone) != "" {
		score += 10
	}

	if domain := emailDomain(l.Email); domain != "" {
		if _, free := freeEmailDomains[domain]; !free {
			score += 10
		}
	}

	if _, ok := highQualitySources[l.Source]; ok {
		score += 10
	}

	if score > maxScore {
		score = maxScore
	}
	return score
}

// StatusForScore derives the initial status of a freshly scored lead.
func StatusForScore(score int) Status {
	if score >= QualificationThreshold {
		return StatusQualified
	}
	return StatusNew
}

// ScoreFieldsChanged reports whether an update touches the fields that
// trigger a rescore. Name and phone changes deliberately do not; only
// scoring-relevant fields recompute the score.
func ScoreFieldsChanged(companyChanged, titleChanged, sourceChanged bool) bool {
	return companyChanged || titleChanged || sourceChanged
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
