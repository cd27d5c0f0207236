package service

import (
	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var labelTags = []language.Tag{
	language.English,
	language.Portuguese,
	language.Spanish,
}

var typeWords = []map[domain.TransactionType]string{
	{domain.TransactionTypeIncome: "income", domain.TransactionTypeExpense: "expense"},
	{domain.TransactionTypeIncome: "receita", domain.TransactionTypeExpense: "despesa"},
	{domain.TransactionTypeIncome: "ingreso", domain.TransactionTypeExpense: "gasto"},
}

// TypeLabeler renders transaction types in the closest supported language
type TypeLabeler struct {
	matcher  language.Matcher
	fallback int
}

// NewTypeLabeler creates a labeler whose fallback is the closest match of locale
func NewTypeLabeler(locale string) *TypeLabeler {
	l := &TypeLabeler{matcher: language.NewMatcher(labelTags)}
	l.fallback = l.match(locale, 0)
	return l
}

// Labels returns a label function for an Accept-Language value or locale
// tag. Unparseable or empty input uses the fallback language.
func (l *TypeLabeler) Labels(acceptLanguage string) func(domain.TransactionType) string {
	idx := l.match(acceptLanguage, l.fallback)
	caser := cases.Title(labelTags[idx])
	words := typeWords[idx]
	return func(t domain.TransactionType) string {
		if w, ok := words[t]; ok {
			return caser.String(w)
		}
		return string(t)
	}
}

func (l *TypeLabeler) match(acceptLanguage string, fallback int) int {
	if acceptLanguage == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, confidence := l.matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	return idx
}
