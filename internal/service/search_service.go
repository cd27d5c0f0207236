package service

import (
	"strings"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
)

// ResultType tags a search hit with its collection
type ResultType string

const (
	ResultTransaction ResultType = "transaction"
	ResultCategory    ResultType = "category"
	ResultGoal        ResultType = "goal"
	ResultSaving      ResultType = "saving"
)

type TransactionHit struct {
	domain.Transaction
	CategoryName string     `json:"categoryName"`
	ResultType   ResultType `json:"resultType"`
}

type CategoryHit struct {
	domain.Category
	ResultType ResultType `json:"resultType"`
}

type GoalHit struct {
	domain.Goal
	ResultType ResultType `json:"resultType"`
}

type SavingHit struct {
	domain.Saving
	ResultType ResultType `json:"resultType"`
}

// SearchResults is the union of hits across collections
type SearchResults struct {
	Query        string           `json:"query"`
	Transactions []TransactionHit `json:"transactions"`
	Categories   []CategoryHit    `json:"categories"`
	Goals        []GoalHit        `json:"goals"`
	Savings      []SavingHit      `json:"savings"`
	TotalResults int              `json:"totalResults"`
}

// SearchService scans the ledger for a query
type SearchService struct {
	ledgers LedgerProvider
}

// NewSearchService creates a new SearchService
func NewSearchService(ledgers LedgerProvider) *SearchService {
	return &SearchService{ledgers: ledgers}
}

// Search returns every entity matching query
func (s *SearchService) Search(userID, query string) (*SearchResults, error) {
	l, err := s.ledgers.Ledger(userID)
	if err != nil {
		return nil, err
	}
	return Search(l.Transactions(), l.Categories(), l.Goals(), l.Savings(), query), nil
}

// Search matches query case-insensitively as a substring of transaction
// description, notes and category name, category name, and goal and saving
// name or description. A blank query matches nothing.
func Search(txns []domain.Transaction, categories []domain.Category, goals []domain.Goal, savings []domain.Saving, query string) *SearchResults {
	res := &SearchResults{
		Query:        query,
		Transactions: make([]TransactionHit, 0),
		Categories:   make([]CategoryHit, 0),
		Goals:        make([]GoalHit, 0),
		Savings:      make([]SavingHit, 0),
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return res
	}
	match := func(fields ...string) bool {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), needle) {
				return true
			}
		}
		return false
	}

	index := domain.NewCategoryIndex(categories)
	for _, t := range txns {
		name := index.NameOf(t.CategoryID)
		if _, ok := index.Resolve(t.CategoryID); !ok {
			name = ""
		}
		if match(t.Description, t.NotesText(), name) {
			res.Transactions = append(res.Transactions, TransactionHit{
				Transaction:  t,
				CategoryName: index.NameOf(t.CategoryID),
				ResultType:   ResultTransaction,
			})
		}
	}
	for _, c := range categories {
		if match(c.Name) {
			res.Categories = append(res.Categories, CategoryHit{Category: c, ResultType: ResultCategory})
		}
	}
	for _, g := range goals {
		if match(g.Name, g.Description) {
			res.Goals = append(res.Goals, GoalHit{Goal: g, ResultType: ResultGoal})
		}
	}
	for _, sv := range savings {
		if match(sv.Name, sv.DescriptionText()) {
			res.Savings = append(res.Savings, SavingHit{Saving: sv, ResultType: ResultSaving})
		}
	}

	res.TotalResults = len(res.Transactions) + len(res.Categories) + len(res.Goals) + len(res.Savings)
	return res
}
