package search

import (
	"github.com/hyperjump/kazoeru/internal/models"
	"github.com/hyperjump/kazoeru/internal/textnorm"
)

// ProcessQuery validates q, applies defaults and returns the term's tokens.
// A term that normalizes to nothing (only punctuation or numerals) is as
// invalid as an empty one.
func ProcessQuery(q *models.FrequencyQuery) ([]string, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	tokens := textnorm.Tokenize(q.Term)
	if len(tokens) == 0 {
		return nil, &models.InvalidQueryError{Field: "term", Reason: "term contains no words"}
	}
	return tokens, nil
}
