package vector

import "testing"

func TestSelectNamespacesAlwaysStartsWithUserHistory(t *testing.T) {
	for _, query := range []string{"hello", "my dog is sick", "what food should I buy"} {
		got := SelectNamespaces(query)
		if len(got) == 0 || got[0] != UserHistory {
			t.Fatalf("SelectNamespaces(%q) = %v, want user_history first", query, got)
		}
	}
}

func TestSelectNamespacesKeywordRouting(t *testing.T) {
	tests := []struct {
		query string
		want  []Namespace
	}{
		{"my dog has a skin infection and the vet is closed", []Namespace{UserHistory, HealthData}},
		{"what food should I buy for my cat", []Namespace{UserHistory, ProductData}},
		{"how often should I bath and brush him", []Namespace{UserHistory, GroomingData}},
		{"does your company have a refund policy", []Namespace{UserHistory, CompanyData}},
		{"recommend a shampoo for grooming", []Namespace{UserHistory, ProductData, GroomingData}},
	}
	for _, tt := range tests {
		got := SelectNamespaces(tt.query)
		if len(got) != len(tt.want) {
			t.Fatalf("SelectNamespaces(%q) = %v, want %v", tt.query, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("SelectNamespaces(%q) = %v, want %v", tt.query, got, tt.want)
			}
		}
	}
}

func TestSelectNamespacesFallsBackToHealth(t *testing.T) {
	got := SelectNamespaces("hello")
	if len(got) != 2 || got[0] != UserHistory || got[1] != HealthData {
		t.Fatalf("SelectNamespaces(\"hello\") = %v, want [user_history health_data]", got)
	}
}

func TestNamespaceParameters(t *testing.T) {
	if UserHistory.TopK() != 5 || UserHistory.MinScore() != 0.5 {
		t.Fatalf("user_history params = (%d, %v), want (5, 0.5)", UserHistory.TopK(), UserHistory.MinScore())
	}
	for _, ns := range []Namespace{HealthData, ProductData, GroomingData, CompanyData} {
		if ns.TopK() != 3 || ns.MinScore() != 0.7 {
			t.Fatalf("%s params = (%d, %v), want (3, 0.7)", ns, ns.TopK(), ns.MinScore())
		}
	}
	if Namespace("user_summary").Known() {
		t.Fatalf("unknown namespace should not be Known")
	}
	for _, ns := range All() {
		if !ns.Known() {
			t.Fatalf("%s should be Known", ns)
		}
	}
}
