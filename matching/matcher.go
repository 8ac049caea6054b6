package matching

import (
	"encoding/json"
	"sort"
)

/************************************************
/**** MARK: DECISIONS & REASONS ****/
/************************************************/
const DECISION_EXISTING_GROUP = "existing_group"
const DECISION_NEW_GROUP = "new_group"
const DECISION_NO_GROUPS = "no_groups_configured"

const REASON_PASSES_THRESHOLD = "passes_threshold"
const REASON_BELOW_THRESHOLD = "below_threshold"
const REASON_UNDERCUTS_GROUP_AVG = "undercuts_group_avg"
const REASON_NO_ACTIVE_GROUPS = "no_active_groups"
const REASON_NO_GROUP_CENTROIDS = "no_group_centroids"

// Candidate é um par (grupo, similaridade) da lista ranqueada.
type Candidate struct {
	GroupID int64   `json:"group_id"`
	Score   float64 `json:"score"`
}

// GroupAggregate é a visão do matcher sobre um grupo elegível:
// grupos privados e inativos nunca chegam aqui (o caller filtra).
type GroupAggregate struct {
	ID          int64
	Centroid    []float64
	MemberCount int
	AvgSim      float64
}

// Recommendation é o resultado, sem efeitos colaterais: chamar duas vezes com
// a mesma entrada devolve a mesma lista.
type Recommendation struct {
	Decision   string      `json:"decision"`
	GroupID    int64       `json:"group_id,omitempty"`
	Score      float64     `json:"score"`
	Threshold  float64     `json:"threshold"`
	Reason     string      `json:"reason"`
	Candidates []Candidate `json:"candidates"`
}

// Params controla o matcher. Leniency (γ) evita colocar alguém num grupo cuja
// coesão média ele derrubaria: exige best >= avg_sim - γ.
type Params struct {
	TopK      int
	Threshold float64
	Leniency  float64
}

// Recommend compara o vetor da submissão com o agregado de cada grupo e decide:
//   - zero grupos elegíveis        -> no_groups_configured
//   - melhor candidato >= threshold -> existing_group
//   - senão                         -> new_group
//
// Empate de similaridade desempata por menor member count (balanceia tamanho)
// e depois por menor id (determinismo).
func Recommend(vec []float64, groups []GroupAggregate, p Params) Recommendation {
	if p.TopK <= 0 {
		p.TopK = 3
	}

	if len(groups) == 0 {
		return Recommendation{
			Decision:   DECISION_NO_GROUPS,
			Threshold:  p.Threshold,
			Reason:     REASON_NO_ACTIVE_GROUPS,
			Candidates: []Candidate{},
		}
	}

	type scored struct {
		agg GroupAggregate
		sim float64
	}
	all := make([]scored, 0, len(groups))
	for _, g := range groups {
		sim, ok := CosineSimilarity(vec, g.Centroid)
		if !ok {
			continue
		}
		all = append(all, scored{agg: g, sim: sim})
	}

	if len(all) == 0 {
		return Recommendation{
			Decision:   DECISION_NO_GROUPS,
			Threshold:  p.Threshold,
			Reason:     REASON_NO_GROUP_CENTROIDS,
			Candidates: []Candidate{},
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].sim != all[j].sim {
			return all[i].sim > all[j].sim
		}
		if all[i].agg.MemberCount != all[j].agg.MemberCount {
			return all[i].agg.MemberCount < all[j].agg.MemberCount
		}
		return all[i].agg.ID < all[j].agg.ID
	})

	k := p.TopK
	if k > len(all) {
		k = len(all)
	}
	candidates := make([]Candidate, 0, k)
	for _, s := range all[:k] {
		candidates = append(candidates, Candidate{GroupID: s.agg.ID, Score: s.sim})
	}

	best := all[0]
	rec := Recommendation{
		Score:      best.sim,
		Threshold:  p.Threshold,
		Candidates: candidates,
	}

	switch {
	case best.sim < p.Threshold:
		rec.Decision = DECISION_NEW_GROUP
		rec.Reason = REASON_BELOW_THRESHOLD
	case p.Leniency > 0 && best.sim < best.agg.AvgSim-p.Leniency:
		rec.Decision = DECISION_NEW_GROUP
		rec.Reason = REASON_UNDERCUTS_GROUP_AVG
	default:
		rec.Decision = DECISION_EXISTING_GROUP
		rec.GroupID = best.agg.ID
		rec.Reason = REASON_PASSES_THRESHOLD
	}
	return rec
}

// ParseCandidates decodifica a lista ranqueada persistida na recomendação.
func ParseCandidates(s string) []Candidate {
	if s == "" {
		return nil
	}
	var out []Candidate
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// RenderCandidates serializa a lista ranqueada para persistência.
func RenderCandidates(cands []Candidate) string {
	b, _ := json.Marshal(cands)
	return string(b)
}
