// Package synthesis derives dashboard rollups from running theme and edge
// aggregates. Everything here is computed on read.
package synthesis

import (
	"math"
	"sort"
	"time"

	"github.com/yungbote/pulse-backend/internal/domain"
)

type Config struct {
	// Tau is the recency time constant.
	Tau            time.Duration
	TopPerCategory int
	TopPressure    int
}

func (c *Config) defaults() {
	if c.Tau <= 0 {
		c.Tau = 12 * time.Minute
	}
	if c.TopPerCategory <= 0 {
		c.TopPerCategory = 3
	}
	if c.TopPressure <= 0 {
		c.TopPressure = 5
	}
}

// Decay is e^(-age/tau); future timestamps count as age zero.
func Decay(ageMs int64, tau time.Duration) float64 {
	if ageMs <= 0 {
		return 1
	}
	return math.Exp(-float64(ageMs) / float64(tau.Milliseconds()))
}

// Weight is strength x (0.4 + 0.6 decay).
func Weight(strength int, ageMs int64, tau time.Duration) float64 {
	return float64(strength) * (0.4 + 0.6*Decay(ageMs, tau))
}

// Build returns one entry per domain that has at least one bucketed theme,
// in display order. Each category keeps the top N by weight; ties go to the
// stronger and then the older theme id.
func Build(themes []*domain.Theme, nowMs int64, cfg Config) []domain.DomainSynthesis {
	cfg.defaults()
	byDomain := map[domain.Domain]map[domain.SynthesisCategory][]domain.SynthesisItem{}
	for _, th := range themes {
		cat, ok := domain.CategoryFor(th.IntentType)
		if !ok || th.Strength <= 0 {
			continue
		}
		cats := byDomain[th.Domain]
		if cats == nil {
			cats = map[domain.SynthesisCategory][]domain.SynthesisItem{}
			byDomain[th.Domain] = cats
		}
		cats[cat] = append(cats[cat], domain.SynthesisItem{
			ThemeID:  th.ID,
			Domain:   th.Domain,
			Category: cat,
			Label:    th.Label,
			Excerpt:  th.Excerpt,
			Strength: th.Strength,
			Weight:   Weight(th.Strength, nowMs-th.LastSupportAtMs, cfg.Tau),
		})
	}

	var out []domain.DomainSynthesis
	for _, d := range append(append([]domain.Domain(nil), domain.Domains...), domain.DomainGeneral) {
		cats, ok := byDomain[d]
		if !ok {
			continue
		}
		for cat, items := range cats {
			sort.SliceStable(items, func(i, j int) bool {
				if items[i].Weight != items[j].Weight {
					return items[i].Weight > items[j].Weight
				}
				if items[i].Strength != items[j].Strength {
					return items[i].Strength > items[j].Strength
				}
				return items[i].ThemeID < items[j].ThemeID
			})
			if len(items) > cfg.TopPerCategory {
				items = items[:cfg.TopPerCategory]
			}
			cats[cat] = items
		}
		out = append(out, domain.DomainSynthesis{Domain: d, Categories: cats})
	}
	return out
}

func ItemCount(s []domain.DomainSynthesis) int {
	n := 0
	for _, ds := range s {
		for _, items := range ds.Categories {
			n += len(items)
		}
	}
	return n
}

// Qualifies reports whether an edge is a pressure point.
func Qualifies(e domain.DependencyEdge) bool {
	return e.Count >= 3 && e.ConstraintCount >= 2 && e.ConstraintCount > e.AspirationCount
}

// Score is (c - a) x 3 + max(0, count - 2).
func Score(count, constraints, aspirations int) float64 {
	return float64((constraints-aspirations)*3 + max(0, count-2))
}

// PressurePoints ranks qualifying edges. When none qualifies it ranks the
// per-domain tallies where constraints outnumber aspirations instead.
func PressurePoints(edges []domain.DependencyEdge, tallies []domain.DomainTally, nowMs int64, cfg Config) []domain.PressurePoint {
	cfg.defaults()
	var out []domain.PressurePoint
	for _, e := range edges {
		if !Qualifies(e) {
			continue
		}
		out = append(out, domain.PressurePoint{
			Kind:            domain.PressureEdge,
			EdgeID:          e.ID,
			FromDomain:      e.FromDomain,
			ToDomain:        e.ToDomain,
			Count:           e.Count,
			ConstraintCount: e.ConstraintCount,
			AspirationCount: e.AspirationCount,
			Score:           Score(e.Count, e.ConstraintCount, e.AspirationCount),
			Decay:           Decay(nowMs-e.LastSeenAtMs, cfg.Tau),
		})
	}
	if len(out) == 0 {
		for _, t := range tallies {
			if t.Domain == domain.DomainGeneral || t.Constraints == 0 || t.Constraints <= t.Aspirations {
				continue
			}
			out = append(out, domain.PressurePoint{
				Kind:            domain.PressureDomain,
				Domain:          t.Domain,
				Count:           t.Total,
				ConstraintCount: t.Constraints,
				AspirationCount: t.Aspirations,
				Score:           Score(t.Total, t.Constraints, t.Aspirations),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].EdgeID+string(out[i].Domain) < out[j].EdgeID+string(out[j].Domain)
	})
	if len(out) > cfg.TopPressure {
		out = out[:cfg.TopPressure]
	}
	return out
}
