package summary

import "strings"

type keywordRule struct {
	category string
	keywords []string
}

// keywordRules is checked in order; the first matching category wins.
var keywordRules = []keywordRule{
	{"Bills", []string{"electric", "gas bill", "water", "internet", "phone", "cable", "insurance", "rent", "mortgage"}},
	{"Groceries", []string{"grocery", "whole foods", "trader joe", "costco", "safeway", "kroger", "walmart"}},
	{"Dining", []string{"restaurant", "cafe", "coffee", "starbucks", "mcdonald", "burger", "pizza", "chipotle", "uber eats", "doordash"}},
	{"Transportation", []string{"gas", "fuel", "uber", "lyft", "taxi", "parking", "metro", "bus ", "train"}},
	{"Shopping", []string{"amazon", "target", "mall", "store", "shopping", "clothing", "retail"}},
	{"Entertainment", []string{"netflix", "spotify", "movie", "theater", "game", "entertainment", "subscription"}},
	{"Healthcare", []string{"pharmacy", "doctor", "medical", "health", "cvs", "walgreen"}},
}

// Categorize guesses a category from a description using a fixed keyword
// table. It returns "" when nothing matches.
func Categorize(description string) string {
	d := strings.ToLower(description) + " "
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(d, kw) {
				return rule.category
			}
		}
	}
	return ""
}
