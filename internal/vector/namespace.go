package vector

import "strings"

// Namespace is a disjoint partition of the semantic index. The set is closed:
// routing and retrieval parameters are defined per namespace below, and an
// unknown namespace is a programming error, not a runtime lookup.
type Namespace string

const (
	UserHistory  Namespace = "user_history"
	HealthData   Namespace = "health_data"
	ProductData  Namespace = "product_data"
	GroomingData Namespace = "grooming_data"
	CompanyData  Namespace = "company_data"
)

// retrieval holds the per-namespace retrieval parameters. A user's own
// history is recalled at a lower similarity bar than the shared knowledge
// namespaces, which need higher precision to avoid injecting irrelevant
// facts.
type retrieval struct {
	topK     int
	minScore float32
}

var namespaces = map[Namespace]retrieval{
	UserHistory:  {topK: 5, minScore: 0.5},
	HealthData:   {topK: 3, minScore: 0.7},
	ProductData:  {topK: 3, minScore: 0.7},
	GroomingData: {topK: 3, minScore: 0.7},
	CompanyData:  {topK: 3, minScore: 0.7},
}

// All returns every namespace in the index.
func All() []Namespace {
	return []Namespace{UserHistory, HealthData, ProductData, GroomingData, CompanyData}
}

// Known reports whether n is part of the closed namespace set.
func (n Namespace) Known() bool {
	_, ok := namespaces[n]
	return ok
}

// TopK returns how many candidates to request for this namespace.
func (n Namespace) TopK() int { return namespaces[n].topK }

// MinScore returns the similarity floor below which matches are discarded.
func (n Namespace) MinScore() float32 { return namespaces[n].minScore }

var routingRules = []struct {
	namespace Namespace
	keywords  []string
}{
	{HealthData, []string{"health", "sick", "vet", "illness", "medical", "symptom"}},
	{ProductData, []string{"food", "nutrition", "product", "toy", "buy", "recommend"}},
	{GroomingData, []string{"groom", "bath", "clean", "brush", "hygiene"}},
	{CompanyData, []string{"company", "support", "policy", "service", "help"}},
}

// SelectNamespaces routes a query to the namespaces worth searching.
// user_history is always first; when no keyword rule fires, health_data is
// added so at least one knowledge namespace is searched.
func SelectNamespaces(query string) []Namespace {
	q := strings.ToLower(query)
	selected := []Namespace{UserHistory}
	for _, rule := range routingRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				selected = append(selected, rule.namespace)
				break
			}
		}
	}
	if len(selected) == 1 {
		selected = append(selected, HealthData)
	}
	return selected
}
