// File path: internal/search/selector.go
package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nicodishanthj/partfinder/internal/catalog"
	"github.com/nicodishanthj/partfinder/internal/common"
	"github.com/nicodishanthj/partfinder/internal/common/telemetry"
	"github.com/nicodishanthj/partfinder/internal/llm"
	"github.com/nicodishanthj/partfinder/internal/pricing"
)

const fallbackRationale = "Selected as the closest match to your query among the available listings."

// Selection is the outcome of the reasoning step.
type Selection struct {
	Recommended  Ranked
	Rationale    string
	Alternatives []Ranked
	Fallback     bool
}

// Selector asks the reasoning provider to pick one candidate and
// justify it. The provider is strictly best-effort: any failure —
// timeout, transport error, unparseable reply, unknown id — lands on
// the deterministic fallback after the configured retries, and the
// caller always receives a recommendation.
type Selector struct {
	provider llm.Provider
	cfg      Config
}

func NewSelector(provider llm.Provider, cfg Config) *Selector {
	cfg.applyDefaults()
	return &Selector{provider: provider, cfg: cfg}
}

var (
	choiceRe = regexp.MustCompile(`(?im)^\s*CHOICE:\s*(\S+)\s*$`)
	reasonRe = regexp.MustCompile(`(?im)^\s*REASON:\s*(.+)$`)
)

// Select picks the recommended candidate from a non-empty ranked list.
// Alternatives are the remaining candidates in ranked order, capped at
// the configured maximum.
func (s *Selector) Select(ctx context.Context, query string, ranked []Ranked) (Selection, error) {
	if len(ranked) == 0 {
		return Selection{}, fmt.Errorf("select: no candidates")
	}

	start := time.Now()
	logger := common.Logger()

	attempts := 1 + *s.cfg.ReasoningRetries
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			break
		}
		chosen, rationale, err := s.ask(ctx, query, ranked)
		if err != nil {
			logger.Warn("selector: reasoning attempt failed",
				"attempt", attempt+1, "error", err)
			continue
		}
		telemetry.RecordReasoning(false, time.Since(start))
		return Selection{
			Recommended:  ranked[chosen],
			Rationale:    rationale,
			Alternatives: alternatives(ranked, chosen, s.cfg.MaxAlternatives),
			Fallback:     false,
		}, nil
	}

	telemetry.RecordReasoning(true, time.Since(start))
	logger.Info("selector: using deterministic fallback", "query", query)
	return Selection{
		Recommended:  ranked[0],
		Rationale:    fallbackRationale,
		Alternatives: alternatives(ranked, 0, s.cfg.MaxAlternatives),
		Fallback:     true,
	}, nil
}

// ask runs one reasoning attempt and returns the index of the chosen
// candidate within ranked.
func (s *Selector) ask(ctx context.Context, query string, ranked []Ranked) (int, string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.ReasoningTimeout)
	defer cancel()

	reply, err := s.provider.Chat(attemptCtx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: s.buildPrompt(query, ranked)},
	})
	if err != nil {
		return 0, "", err
	}

	choice := choiceRe.FindStringSubmatch(reply)
	if choice == nil {
		return 0, "", fmt.Errorf("no CHOICE line in reply")
	}
	id := strings.TrimSpace(choice[1])
	idx := -1
	for i, r := range ranked {
		if r.Part.Key() == id || r.Part.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, "", fmt.Errorf("chosen id %q not among candidates", id)
	}

	rationale := ""
	if reason := reasonRe.FindStringSubmatch(reply); reason != nil {
		rationale = strings.TrimSpace(reason[1])
	}
	if rationale == "" {
		rationale = fallbackRationale
	}
	return idx, rationale, nil
}

const systemPrompt = "You are a mechanical parts purchasing assistant. " +
	"Given a buyer query and a numbered candidate list, pick the single best listing. " +
	"Answer with exactly two lines:\nCHOICE: <id>\nREASON: <one or two sentences>"

func (s *Selector) buildPrompt(query string, ranked []Ranked) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Buyer query: %s\n\nCandidates:\n", query)
	for i, r := range ranked {
		if i >= s.cfg.TopK {
			break
		}
		rating := "unrated"
		if r.Part.Rating != nil {
			rating = fmt.Sprintf("%.1f/5", *r.Part.Rating)
		}
		fmt.Fprintf(&b, "%d. id=%s name=%q price=%s rating=%s source=%s\n",
			i+1, r.Part.Key(), r.Part.Name,
			pricing.Format(r.Part.PriceAmount, r.Part.PriceCurrency),
			rating, r.Part.Source)
	}
	return b.String()
}

func alternatives(ranked []Ranked, chosen, max int) []Ranked {
	alts := make([]Ranked, 0, max)
	for i, r := range ranked {
		if i == chosen {
			continue
		}
		if len(alts) >= max {
			break
		}
		alts = append(alts, r)
	}
	return alts
}

// partOf strips ranking annotations for presentation.
func partOf(ranked []Ranked) []catalog.Part {
	parts := make([]catalog.Part, len(ranked))
	for i, r := range ranked {
		parts[i] = r.Part
	}
	return parts
}
