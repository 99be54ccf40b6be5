package enumerate

import (
	"sort"
	"strings"

	"github.com/algomatic/relprop/pkg/aggregate"
	"github.com/algomatic/relprop/pkg/schema"
)

// textFeatures emits one token-count feature per retained vocabulary
// entry of every text column on peripheral: the SUM over matches of
// the token's per-row occurrence count (CountToken) (spec.md §6's min_df/vocab_size text-preprocessing knobs).
func (e *Enumerator) textFeatures(peripheral *schema.DataFrame, cs conditionSet) ([]AbstractFeature, error) {
	if !e.kinds[aggregate.SUM] {
		return nil, nil
	}
	var out []AbstractFeature
	for _, col := range peripheral.ColumnsWithRole(schema.RoleText) {
		vocab := Vocabulary(col.Text, e.hp.MinDF, e.hp.VocabSize)
		for _, token := range vocab {
			out = append(out, AbstractFeature{
				PopulationTable: peripheral.Name, PeripheralTable: peripheral.Name,
				Aggregation: aggregate.SUM, AggregatedColumn: col.Name,
				TextToken: token, Conditions: cs.conditions, SameUnitColumns: cs.sameUnitColumns,
			})
		}
	}
	return out, nil
}

// Vocabulary tokenizes every document in docs by whitespace, keeps
// tokens whose document frequency is at least minDF, and returns the
// top vocabSize tokens ordered by descending document frequency (ties
// broken lexicographically for determinism).
func Vocabulary(docs []string, minDF, vocabSize int) []string {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range strings.Fields(doc) {
			tok = strings.ToLower(tok)
			if seen[tok] {
				continue
			}
			seen[tok] = true
			df[tok]++
		}
	}

	tokens := make([]string, 0, len(df))
	for tok, count := range df {
		if count >= minDF {
			tokens = append(tokens, tok)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		if df[tokens[i]] != df[tokens[j]] {
			return df[tokens[i]] > df[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})
	if vocabSize > 0 && len(tokens) > vocabSize {
		tokens = tokens[:vocabSize]
	}
	return tokens
}

// CountToken counts token's occurrences in doc, case-insensitively.
func CountToken(doc, token string) float64 {
	count := 0.0
	for _, tok := range strings.Fields(doc) {
		if strings.EqualFold(tok, token) {
			count++
		}
	}
	return count
}
