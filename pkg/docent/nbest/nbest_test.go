package nbest

import "testing"

// fakeDoc is a trivial Document for exercising Storage without pulling in
// the state package.
type fakeDoc struct {
	id    int
	score float64
}

func (d fakeDoc) GetScore() float64    { return d.score }
func (d fakeDoc) Equal(o fakeDoc) bool { return d.id == o.id }
func (d fakeDoc) Clone() fakeDoc       { return d }

func TestOfferRejectsBelowMinimumWhenFull(t *testing.T) {
	s := New[fakeDoc](2)
	s.Offer(fakeDoc{id: 1, score: 5})
	s.Offer(fakeDoc{id: 2, score: 10})
	if ok := s.Offer(fakeDoc{id: 3, score: 1}); ok {
		t.Fatalf("expected a lower-scoring document to be rejected once full")
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
}

func TestOfferEvictsMinimumOnImprovement(t *testing.T) {
	s := New[fakeDoc](2)
	s.Offer(fakeDoc{id: 1, score: 5})
	s.Offer(fakeDoc{id: 2, score: 10})
	if ok := s.Offer(fakeDoc{id: 3, score: 20}); !ok {
		t.Fatalf("expected a higher-scoring document to be accepted")
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after eviction", s.Len())
	}
	if s.LowestScore() != 10 {
		t.Fatalf("LowestScore() = %v, want 10 (5 should have been evicted)", s.LowestScore())
	}
}

func TestOfferDeduplicates(t *testing.T) {
	s := New[fakeDoc](5)
	s.Offer(fakeDoc{id: 1, score: 5})
	if ok := s.Offer(fakeDoc{id: 1, score: 5}); ok {
		t.Fatalf("expected the duplicate to be rejected")
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (I5 nbest uniqueness)", s.Len())
	}
}

func TestBestTracksHighestScore(t *testing.T) {
	s := New[fakeDoc](5)
	s.Offer(fakeDoc{id: 1, score: 5})
	s.Offer(fakeDoc{id: 2, score: 20})
	s.Offer(fakeDoc{id: 3, score: 10})
	best, ok := s.Best()
	if !ok || best.id != 2 {
		t.Fatalf("Best() = %+v, want id 2", best)
	}
}

func TestCopyDescendingOrder(t *testing.T) {
	s := New[fakeDoc](5)
	s.Offer(fakeDoc{id: 1, score: 5})
	s.Offer(fakeDoc{id: 2, score: 20})
	s.Offer(fakeDoc{id: 3, score: 10})
	out := s.CopyDescending()
	if len(out) != 3 || out[0].score != 20 || out[1].score != 10 || out[2].score != 5 {
		t.Fatalf("CopyDescending() = %+v, want descending by score", out)
	}
}
