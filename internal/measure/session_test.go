package measure

import (
	"testing"

	"github.com/crest-data/freeboard.report/internal/detect"
	"github.com/crest-data/freeboard.report/internal/profile"
)

func TestNewSession(t *testing.T) {
	s, err := NewSession("muro-principal", ModeFreeboard)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID() == "" {
		t.Error("session has no id")
	}
	if s.Wall() != "muro-principal" || s.Mode() != ModeFreeboard {
		t.Errorf("session identity = %q/%q", s.Wall(), s.Mode())
	}
	if s.CreatedAt().IsZero() {
		t.Error("session has no creation time")
	}

	if _, err := NewSession("w", Mode("banana")); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestSessionRecordsSortedByChainage(t *testing.T) {
	s, err := NewSession("w", ModeFreeboard)
	if err != nil {
		t.Fatal(err)
	}
	for _, ch := range []float64{40, 0, 20} {
		s.Put(*NewRecord(ch))
	}

	recs := s.Records()
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	for i, want := range []float64{0, 20, 40} {
		if recs[i].Chainage != want {
			t.Errorf("records[%d].Chainage = %v, want %v", i, recs[i].Chainage, want)
		}
	}
}

func TestSessionCopiesRecordsInAndOut(t *testing.T) {
	s, err := NewSession("w", ModeFreeboard)
	if err != nil {
		t.Fatal(err)
	}
	rec := *NewRecord(20)
	s.Put(rec)

	// Mutating the caller's copy must not reach the session.
	rec.SetCrownManual(0, 999)
	got, ok := s.Get(20)
	if !ok {
		t.Fatal("record missing")
	}
	if got.Crown.Set {
		t.Error("session shares state with the caller's record")
	}

	// Mutating a returned copy must not reach the session either.
	got.SetCrownManual(0, 999)
	again, _ := s.Get(20)
	if again.Crown.Set {
		t.Error("session shares state with a returned record")
	}
}

func TestSessionApplyCreatesRecord(t *testing.T) {
	s, err := NewSession("w", ModeProjectedWidth)
	if err != nil {
		t.Fatal(err)
	}
	s.Apply(60, func(r *Record) {
		r.SetLamaManual(-18, 102.5)
	})

	got, ok := s.Get(60)
	if !ok {
		t.Fatal("Apply did not create the record")
	}
	if got.PK != "0+060" {
		t.Errorf("PK = %q, want 0+060", got.PK)
	}
	if !got.Lama.Set || got.Lama.Automatic {
		t.Errorf("lama = %+v, want manual", got.Lama)
	}
}

func TestSessionProfileCache(t *testing.T) {
	s, err := NewSession("w", ModeFreeboard)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Profile(20); ok {
		t.Error("profile present before caching")
	}
	s.SetProfile(&profile.Profile{Chainage: 20, PK: "0+020"})
	p, ok := s.Profile(20)
	if !ok || p.PK != "0+020" {
		t.Errorf("cached profile = %+v, %v", p, ok)
	}
}

func TestRestoreSession(t *testing.T) {
	orig, err := NewSession("w", ModeFreeboard)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := RestoreSession(orig.ID(), orig.Wall(), orig.Mode(), orig.CreatedAt())
	if err != nil {
		t.Fatal(err)
	}
	if restored.ID() != orig.ID() || !restored.CreatedAt().Equal(orig.CreatedAt()) {
		t.Error("restored session lost its identity")
	}
	restored.Apply(0, func(r *Record) {
		r.SetCrownAuto(detect.Crossing{Elevation: 104})
	})
	if restored.Len() != 1 {
		t.Errorf("len = %d, want 1", restored.Len())
	}
}
