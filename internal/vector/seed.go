package vector

import (
	"context"
	"fmt"
	"time"
)

// SeedRecord is one knowledge-base document destined for a shared namespace.
type SeedRecord struct {
	Namespace Namespace
	ID        string
	Text      string
	Source    string
}

// Seed upserts knowledge records into their namespaces. Re-running is
// harmless: IDs are stable, so records are replaced in place.
func Seed(ctx context.Context, store *Store, records []SeedRecord) error {
	if !store.Ready() {
		return ErrNotReady
	}
	now := time.Now().UTC()
	for _, r := range records {
		rec := Record{
			ID:        r.ID,
			Text:      r.Text,
			Kind:      "knowledge",
			CreatedAt: now,
		}
		if r.Source != "" {
			rec.Extra = map[string]string{"source": r.Source}
		}
		if err := store.UpsertText(ctx, r.Namespace, rec); err != nil {
			return fmt.Errorf("seed %s/%s: %w", r.Namespace, r.ID, err)
		}
	}
	return nil
}

// DefaultKnowledge is a small built-in corpus so a fresh deployment answers
// sensibly before a real knowledge base is loaded.
func DefaultKnowledge() []SeedRecord {
	return []SeedRecord{
		{HealthData, "health_loss_of_appetite", "A dog refusing food for more than 24 hours can signal illness, dental pain, or stress. Monitor water intake and contact a veterinarian if it persists.", "starter"},
		{HealthData, "health_vaccination", "Puppies need core vaccinations at 6-8, 10-12 and 14-16 weeks, with boosters yearly. Cats follow a similar core schedule for FVRCP and rabies.", "starter"},
		{HealthData, "health_skin_issues", "Itching, redness or bald patches often point to fleas, allergies or a skin infection. A vet visit is warranted when the skin is broken or the pet is in discomfort.", "starter"},
		{ProductData, "product_dog_food_basics", "Adult dogs do well on a complete balanced diet fed twice daily. Portion by weight and activity; treats should stay under ten percent of calories.", "starter"},
		{ProductData, "product_cat_food_basics", "Cats are obligate carnivores and need taurine-rich complete food. Wet food helps hydration; free-feeding dry food risks obesity.", "starter"},
		{GroomingData, "grooming_bathing", "Most dogs only need a bath every four to six weeks with a pet-specific shampoo. Overbathing strips coat oils and dries the skin.", "starter"},
		{GroomingData, "grooming_brushing", "Short coats need weekly brushing, double and long coats several times a week. Regular brushing cuts shedding and catches skin problems early.", "starter"},
		{CompanyData, "company_support", "Support is available in the app around the clock. Health answers are informational only and never replace an examination by a veterinarian.", "starter"},
	}
}
