package matching

import (
	"encoding/json"
	"fmt"
	"math"
)

// ParseVector decodifica um vetor persistido como JSON array.
func ParseVector(s string) ([]float64, error) {
	if s == "" {
		return nil, fmt.Errorf("empty vector string")
	}
	var arr []float64
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("empty vector array")
	}
	for _, v := range arr {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid vector value")
		}
	}
	return arr, nil
}

// RenderVector serializa um vetor para persistência.
func RenderVector(v []float64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// CosineSimilarity devolve (sim, ok). ok=false quando algum vetor é nulo.
func CosineSimilarity(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(b) == 0 {
		return 0, false
	}
	// só computa até o menor tamanho (defensivo)
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}

// UpdateCentroid faz a atualização incremental do agregado do grupo ao entrar
// um membro: c' = l2((c*n + e)/(n+1)), e recalcula a similaridade média
// membro<->centroide com o novo membro incluído.
func UpdateCentroid(centroid []float64, nMembers int, avgSim float64, member []float64) ([]float64, float64) {
	e := L2Normalize(member)
	if len(centroid) == 0 || nMembers <= 0 {
		return e, 1.0
	}

	n := nMembers
	raw := make([]float64, len(centroid))
	for i := range centroid {
		m := 0.0
		if i < len(e) {
			m = e[i]
		}
		raw[i] = (centroid[i]*float64(n) + m) / float64(n+1)
	}
	newCentroid := L2Normalize(raw)

	simNew, _ := CosineSimilarity(newCentroid, e)
	newAvg := ((avgSim * float64(n)) + simNew) / float64(n+1)
	return newCentroid, newAvg
}
