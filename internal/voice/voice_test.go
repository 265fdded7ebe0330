package voice

import "testing"

func TestSourceDefaults(t *testing.T) {
	s := newSource()
	if s.Volume() != 1.0 {
		t.Errorf("default volume: got %f, want 1.0", s.Volume())
	}
	if s.State() != Stopped {
		t.Errorf("default state: got %v, want Stopped", s.State())
	}
	if s.Loop() {
		t.Error("expected default loop to be false")
	}
}

func TestSourceSettersAndGetters(t *testing.T) {
	s := newSource()
	s.SetVolume(0.5)
	s.SetPan(-0.3)
	s.SetLoop(true)
	s.SetState(Playing)

	if s.Volume() != 0.5 {
		t.Errorf("volume: got %f, want 0.5", s.Volume())
	}
	if s.Pan() != -0.3 {
		t.Errorf("pan: got %f, want -0.3", s.Pan())
	}
	if !s.Loop() {
		t.Error("expected loop true")
	}
	if s.State() != Playing {
		t.Errorf("state: got %v, want Playing", s.State())
	}
}

func TestSourcePanClamps(t *testing.T) {
	s := newSource()
	s.SetPan(2.0)
	if s.Pan() != 1.0 {
		t.Errorf("pan clamp high: got %f, want 1.0", s.Pan())
	}
	s.SetPan(-5.0)
	if s.Pan() != -1.0 {
		t.Errorf("pan clamp low: got %f, want -1.0", s.Pan())
	}
}

func TestRegistryLoadAssignsHandlesAndPublishesSnapshot(t *testing.T) {
	r := NewRegistry()
	if got := r.Snapshot().Entries(); len(got) != 0 {
		t.Fatalf("expected empty initial snapshot, got %d entries", len(got))
	}

	h1 := r.Load(nil, nil, ClipInfo{}, 0)
	h2 := r.Load(nil, nil, ClipInfo{}, 0)
	if h1 != 0 || h2 != 1 {
		t.Errorf("handles: got %d, %d, want 0, 1", h1, h2)
	}

	snap := r.Snapshot()
	if len(snap.Entries()) != 2 {
		t.Fatalf("snapshot entries: got %d, want 2", len(snap.Entries()))
	}
}

func TestRegistryReusesVacatedSlots(t *testing.T) {
	r := NewRegistry()
	h1 := r.Load(nil, nil, ClipInfo{}, 0)
	r.Unload(h1)
	h2 := r.Load(nil, nil, ClipInfo{}, 0)
	if h2 != h1 {
		t.Errorf("expected vacated slot reuse: got new handle %d, want %d", h2, h1)
	}
}

func TestRegistryUnloadOmitsFromSnapshot(t *testing.T) {
	r := NewRegistry()
	h := r.Load(nil, nil, ClipInfo{}, 0)
	r.Unload(h)

	snap := r.Snapshot()
	if len(snap.Entries()) != 0 {
		t.Errorf("expected unload to publish an empty snapshot, got %d entries", len(snap.Entries()))
	}
	if r.Get(h) != nil {
		t.Error("expected Get on an unloaded handle to return nil")
	}
}

func TestRegistryGetOutOfRange(t *testing.T) {
	r := NewRegistry()
	if r.Get(-1) != nil {
		t.Error("expected Get(-1) to return nil")
	}
	if r.Get(99) != nil {
		t.Error("expected Get out of range to return nil")
	}
}

func TestRegistryGenerationBumpsOnSlotReuse(t *testing.T) {
	r := NewRegistry()
	h := r.Load(nil, nil, ClipInfo{}, 0)
	firstGen := r.Get(h).Generation
	r.Unload(h)
	r.Load(nil, nil, ClipInfo{}, 0)
	secondGen := r.Get(h).Generation
	if secondGen <= firstGen {
		t.Errorf("expected generation to increase on slot reuse: got %d then %d", firstGen, secondGen)
	}
}
