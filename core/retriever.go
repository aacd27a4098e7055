package core

import (
	"sort"
	"strings"
	"unicode"
)

// Retrieval weights. A query token found in a rule title counts more
// than one found in the body.
const (
	titleWeight = 2.0
	bodyWeight  = 1.0
)

// RetrievedRule pairs a rule with its relevance score for one query.
type RetrievedRule struct {
	Rule  Rule    `json:"rule"`
	Score float64 `json:"score"`
}

// Retriever ranks the static corpus against free-text queries using
// deterministic lexical overlap. Same query plus same corpus always
// yields the same ranked list, so downstream rule citations stay
// reproducible for audits.
type Retriever struct {
	corpus *Corpus
}

// NewRetriever creates a retriever over the given corpus.
func NewRetriever(corpus *Corpus) *Retriever {
	return &Retriever{corpus: corpus}
}

// Retrieve scores every rule by lexical overlap with the query and
// returns up to topN rules, descending by score. Ties keep corpus
// order. Rules with zero cumulative score are excluded. A negative
// topN returns all scoring rules.
func (r *Retriever) Retrieve(query string, topN int) []RetrievedRule {
	tokens := tokenizeQuery(query)
	if len(tokens) == 0 {
		return nil
	}

	var scored []RetrievedRule
	for _, rule := range r.corpus.Rules {
		title := strings.ToLower(rule.Title)
		body := strings.ToLower(rule.Body)

		score := 0.0
		for _, tok := range tokens {
			if strings.Contains(title, tok) {
				score += titleWeight
			}
			if strings.Contains(body, tok) {
				score += bodyWeight
			}
		}
		if score > 0 {
			scored = append(scored, RetrievedRule{Rule: rule, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topN >= 0 && len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}

// tokenizeQuery lowercases the query and splits it on every
// non-alphanumeric rune, so JSON punctuation in machine-built queries
// does not defeat substring matching.
func tokenizeQuery(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
