package pets

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "pet_values.json"))
}

func TestExtractWithImage(t *testing.T) {
	found := Extract("(Shadow Dragon)- 500k┆ Demand: High┆Image:https://x/y.png", nil)
	if len(found) != 1 {
		t.Fatalf("expected 1 extraction, got %d: %+v", len(found), found)
	}
	got := found[0]
	if got.Name != "Shadow Dragon" || got.Value != "500k" || got.Demand != "High" || got.ImageURL != "https://x/y.png" {
		t.Fatalf("unexpected extraction: %+v", got)
	}
}

func TestExtractStripsLossless(t *testing.T) {
	found := Extract("(lossless Raccoon)- 12┆ Demand: Medium ┆Image:https://cdn.x/r.png?format=webp&quality=lossless", nil)
	if len(found) != 1 {
		t.Fatalf("expected 1 extraction, got %d", len(found))
	}
	if found[0].Name != "Raccoon" {
		t.Fatalf("expected lossless prefix stripped, got %q", found[0].Name)
	}
	if found[0].ImageURL != "https://cdn.x/r.png?format=webp" {
		t.Fatalf("expected lossless param stripped, got %q", found[0].ImageURL)
	}
}

func TestExtractSkipsDenylistAndMissingKeywords(t *testing.T) {
	if found := Extract("wordbomb (Cat)- 5┆ Demand: High", nil); len(found) != 0 {
		t.Fatalf("expected denylisted message skipped, got %+v", found)
	}
	if found := Extract("just chatting - nothing here", nil); len(found) != 0 {
		t.Fatalf("expected message without keywords skipped, got %+v", found)
	}
}

func TestExtractRejectsJunkNames(t *testing.T) {
	found := Extract("(loss)- 5┆ Demand: High\n(A)- 5┆ Demand: Low", nil)
	if len(found) != 0 {
		t.Fatalf("expected junk names rejected, got %+v", found)
	}
}

func TestExtractMultiplePetsIgnoresSingleImage(t *testing.T) {
	content := "(Cat)- 10┆ Demand: High\n(Dog)- 20┆ Demand: Low"
	found := Extract(content, []string{"https://cdn/img.png"})
	if len(found) != 2 {
		t.Fatalf("expected 2 pets, got %d", len(found))
	}
	for _, item := range found {
		if item.ImageURL != "" {
			t.Fatalf("expected no image attribution with two pets, got %+v", item)
		}
	}
}

func TestExtractSinglePetTakesAttachment(t *testing.T) {
	found := Extract("(Cat)- 10┆ Demand: High", []string{"https://cdn/cat.png"})
	if len(found) != 1 || found[0].ImageURL != "https://cdn/cat.png" {
		t.Fatalf("expected attachment image, got %+v", found)
	}
	found = Extract("(Cat)- 10┆ Demand: High", []string{"https://cdn/a.png", "https://cdn/b.png"})
	if found[0].ImageURL != "" {
		t.Fatalf("expected no image with two attachments, got %q", found[0].ImageURL)
	}
}

func TestIngestPreservesImage(t *testing.T) {
	store := newTestStore(t)
	extractor := NewExtractor(store, zap.NewNop())

	_, err := extractor.Ingest(Message{ID: "1", Content: "(Shadow Dragon)- 500k┆ Demand: High┆Image:https://x/y.png", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	record, ok := store.Get("shadow_dragon")
	if !ok {
		t.Fatalf("expected shadow_dragon stored")
	}
	if record.ImageURL != "https://x/y.png" {
		t.Fatalf("unexpected image %q", record.ImageURL)
	}

	if _, _, err := store.Update("shadow_dragon", Patch{Tier: strPtr("Legendary")}); err != nil {
		t.Fatalf("update: %v", err)
	}

	_, err = extractor.Ingest(Message{ID: "2", Content: "(Shadow Dragon)- 750k┆ Demand: Extremely High", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	record, _ = store.Get("shadow_dragon")
	if record.Value != "750k" || record.Demand != "Extremely High" || record.MessageID != "2" {
		t.Fatalf("expected overwrite, got %+v", record)
	}
	if record.ImageURL != "https://x/y.png" {
		t.Fatalf("expected image preserved, got %q", record.ImageURL)
	}
	if record.Tier != "Legendary" {
		t.Fatalf("expected admin tier kept, got %q", record.Tier)
	}

	reloaded := NewStore(store.path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Len() != 1 {
		t.Fatalf("expected persisted record, got %d", reloaded.Len())
	}
	if _, err := os.Stat(store.path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file renamed away")
	}
}

func TestAdminCreateUpdateDelete(t *testing.T) {
	store := newTestStore(t)

	key, record, err := store.Create(Record{Name: "Red Fox-King"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if key != "red_fox_king" {
		t.Fatalf("expected red_fox_king, got %q", key)
	}
	if record.Value != "0 Mimic Value" || record.Demand != "Medium" || record.Trend != "Stable" || record.Tier != "Common" || record.ObtainedBy != "Unknown" {
		t.Fatalf("expected defaults, got %+v", record)
	}
	if _, _, err := store.Create(Record{Name: "red fox king"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, _, err := store.Create(Record{Name: "  "}); !errors.Is(err, ErrNoName) {
		t.Fatalf("expected name required, got %v", err)
	}

	_, changes, err := store.Update(key, Patch{Value: strPtr("90"), Demand: strPtr("Medium")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(changes) != 1 || changes[0].Field != "value" || changes[0].Old != "0 Mimic Value" || changes[0].New != "90" {
		t.Fatalf("unexpected changes: %+v", changes)
	}
	if _, _, err := store.Update("missing", Patch{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := store.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Delete(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestScoreBands(t *testing.T) {
	cases := []struct {
		query string
		name  string
		want  int
	}{
		{"a", "a", 100},
		{"abc", "xyz", 0},
		{"Dragon", "Shadow Dragon", 95},
		{"red fox", "fox red", 85},
		{"golden retriever", "retriever golden lab", 56},
	}
	for _, tc := range cases {
		if got := Score(tc.query, tc.name); got != tc.want {
			t.Fatalf("Score(%q, %q): expected %d, got %d", tc.query, tc.name, tc.want, got)
		}
	}
}

func TestSequenceRatio(t *testing.T) {
	if got := SequenceRatio("abcd", "bcde"); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("expected 0.75, got %v", got)
	}
	if got := SequenceRatio("dragonn", "dragon"); got < 0.9 {
		t.Fatalf("expected high similarity, got %v", got)
	}
	// "dragn" is no substring of "dragon": 2*5/11 lands in the sequence band.
	if got := Score("dragn", "dragon"); got != 72 {
		t.Fatalf("expected 72, got %d", got)
	}
}

func TestLookup(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	if err := store.Apply([]Extraction{
		{Name: "Shadow Dragon", Value: "500k", Demand: "High"},
		{Name: "Red Fox", Value: "10", Demand: "Low"},
	}, "1", now); err != nil {
		t.Fatalf("apply: %v", err)
	}

	match, _, ok := store.Lookup("shadow dragon!")
	if !ok || match.Key != "shadow_dragon" || match.Score != 100 {
		t.Fatalf("expected exact key match, got %+v ok=%v", match, ok)
	}

	match, candidates, ok := store.Lookup("dragon")
	if !ok || match.Key != "shadow_dragon" || match.Score != 95 {
		t.Fatalf("expected fuzzy match on dragon, got %+v", match)
	}
	if len(candidates) == 0 {
		t.Fatalf("expected candidates")
	}

	if _, _, ok := store.Lookup("zzzz"); ok {
		t.Fatalf("expected no match")
	}
}

func TestBestMatchesStableOrder(t *testing.T) {
	entries := []Entry{
		{Key: "a_cat", Record: Record{Name: "A Cat"}},
		{Key: "b_cat", Record: Record{Name: "B Cat"}},
	}
	matches := BestMatches(entries, "cat", 5)
	if len(matches) != 2 || matches[0].Key != "a_cat" {
		t.Fatalf("expected input order for ties, got %+v", matches)
	}
}

func TestLookupTiesFollowInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	for _, name := range []string{"Zebra Fox", "Arctic Fox"} {
		if _, _, err := store.Create(Record{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	match, _, ok := store.Lookup("fox")
	if !ok || match.Key != "zebra_fox" {
		t.Fatalf("expected the first inserted pet to win the tie, got %+v", match)
	}

	reloaded := NewStore(store.path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	entries := reloaded.Entries()
	if len(entries) != 2 || entries[0].Key != "zebra_fox" || entries[1].Key != "arctic_fox" {
		t.Fatalf("expected order kept across reload, got %+v", entries)
	}

	if _, err := reloaded.Delete("zebra_fox"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if entries := reloaded.Entries(); len(entries) != 1 || entries[0].Key != "arctic_fox" {
		t.Fatalf("expected deleted key dropped from order, got %+v", entries)
	}
}

func TestWeights(t *testing.T) {
	if _, err := Multiplier(0, 1); !errors.Is(err, ErrInvalidAge) {
		t.Fatalf("expected invalid age, got %v", err)
	}
	if _, err := Multiplier(101, 1); !errors.Is(err, ErrInvalidAge) {
		t.Fatalf("expected invalid age, got %v", err)
	}

	predictions, err := Predict(5, 2.5, 10)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if predictions[10] != 3.35 {
		t.Fatalf("expected 3.35, got %v", predictions[10])
	}

	for age := MinAge; age <= MaxAge; age += 7 {
		same, err := Predict(age, 4.2, age)
		if err != nil {
			t.Fatalf("predict: %v", err)
		}
		if same[age] != 4.2 {
			t.Fatalf("expected round trip at age %d, got %v", age, same[age])
		}
	}

	all, _ := Predict(1, 1)
	if len(all) != 100 {
		t.Fatalf("expected 100 predictions, got %d", len(all))
	}
}

func TestKeyAges(t *testing.T) {
	ages := KeyAges(5)
	if len(ages) != 10 || ages[0] != 5 || ages[9] != 14 {
		t.Fatalf("unexpected ages for 5: %v", ages)
	}
	ages = KeyAges(98)
	if len(ages) != 8 || ages[0] != 93 || ages[7] != 100 {
		t.Fatalf("unexpected ages for 98: %v", ages)
	}
}

func TestForecast(t *testing.T) {
	result := Forecast(ForecastInput{PetName: "Cat", CurrentValue: 100, Demand: "High", Trend: "Rising", Tier: "Legendary", TimeHorizon: 30})
	// 1.3 * 1.2 * 1.5 * 1.02
	if result.PredictedValue != 239 {
		t.Fatalf("expected 239, got %v", result.PredictedValue)
	}
	if result.PredictionTrend != "positive" || result.InvestmentRating != "⭐⭐⭐ Excellent" {
		t.Fatalf("unexpected labels: %+v", result)
	}

	poor := Forecast(ForecastInput{PetName: "Rock", CurrentValue: 100, Demand: "Terrible", Trend: "Dropping", Tier: "Common"})
	if poor.PredictionTrend != "negative" || poor.InvestmentRating != "❌ Poor" {
		t.Fatalf("unexpected labels: %+v", poor)
	}
}

func strPtr(value string) *string { return &value }
