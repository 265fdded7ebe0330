package command

import "testing"

func TestNewQueueCapacity(t *testing.T) {
	q := NewQueue()
	if q.Capacity() != queueCapacity-1 {
		t.Errorf("capacity: got %d, want %d", q.Capacity(), queueCapacity-1)
	}
}

func TestBatchAddAndSubmit(t *testing.T) {
	var b Batch
	b.Add(Command{Kind: SetVolume, VoiceID: 1, Param0: 0.5})
	b.Add(Command{Kind: SetPan, VoiceID: 1, Param0: -0.2})
	if b.Count() != 2 {
		t.Fatalf("count: got %d, want 2", b.Count())
	}

	q := NewQueue()
	pushed := b.Submit(q)
	if pushed != 2 {
		t.Errorf("pushed: got %d, want 2", pushed)
	}
	if b.Count() != 0 {
		t.Error("expected batch cleared after submit")
	}
	if q.Size() != 2 {
		t.Errorf("queue size: got %d, want 2", q.Size())
	}

	first, ok := q.TryPop()
	if !ok || first.Kind != SetVolume || first.Param0 != 0.5 {
		t.Errorf("first command: got %+v", first)
	}
}

func TestBatchCapsAtMaxBatch(t *testing.T) {
	var b Batch
	for i := 0; i < maxBatch+10; i++ {
		b.Add(Command{Kind: SetVolume, VoiceID: int32(i)})
	}
	if b.Count() != maxBatch {
		t.Errorf("count: got %d, want %d", b.Count(), maxBatch)
	}
}

func TestBatchClear(t *testing.T) {
	var b Batch
	b.Add(Command{Kind: Play})
	b.Clear()
	if b.Count() != 0 {
		t.Errorf("count after clear: got %d, want 0", b.Count())
	}
}

func TestSubmitPartialWhenQueueNearlyFull(t *testing.T) {
	q := NewQueue()
	for i := 0; i < queueCapacity-2; i++ {
		q.TryPush(Command{Kind: Noop})
	}
	var b Batch
	b.Add(Command{Kind: Play})
	b.Add(Command{Kind: Stop})
	b.Add(Command{Kind: Pause})
	pushed := b.Submit(q)
	if pushed != 1 {
		t.Errorf("pushed: got %d, want 1 (only one slot left)", pushed)
	}
}
