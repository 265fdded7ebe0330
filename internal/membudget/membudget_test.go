package membudget

import "testing"

func TestTryAllocCompressedWithinCeiling(t *testing.T) {
	b := New(Config{MaxCompressedBytes: 100, MaxDecodedBytes: 100, WarningThreshold: 0.85})
	if !b.TryAllocCompressed(50) {
		t.Fatal("expected alloc within ceiling to succeed")
	}
	if got := b.Usage().CompressedBytes; got != 50 {
		t.Errorf("compressed bytes: got %d, want 50", got)
	}
}

func TestTryAllocCompressedRejectsOverflow(t *testing.T) {
	b := New(Config{MaxCompressedBytes: 100, MaxDecodedBytes: 100})
	if !b.TryAllocCompressed(80) {
		t.Fatal("expected first alloc to succeed")
	}
	if b.TryAllocCompressed(30) {
		t.Fatal("expected second alloc exceeding ceiling to fail")
	}
	if got := b.Usage().CompressedBytes; got != 80 {
		t.Errorf("compressed bytes after rejected alloc: got %d, want 80 (unchanged)", got)
	}
}

func TestFreeCompressedReclaimsSpace(t *testing.T) {
	b := New(Config{MaxCompressedBytes: 100, MaxDecodedBytes: 100})
	b.TryAllocCompressed(80)
	b.FreeCompressed(80)
	if got := b.Usage().CompressedBytes; got != 0 {
		t.Errorf("compressed bytes after free: got %d, want 0", got)
	}
	if !b.TryAllocCompressed(100) {
		t.Error("expected full ceiling available again after free")
	}
}

func TestTryAllocDecoded(t *testing.T) {
	b := New(DefaultConfig())
	if !b.TryAllocDecoded(1024) {
		t.Fatal("expected small decoded alloc to succeed")
	}
	if b.Usage().DecodedBytes != 1024 {
		t.Errorf("decoded bytes: got %d, want 1024", b.Usage().DecodedBytes)
	}
}

func TestUsagePercentages(t *testing.T) {
	b := New(Config{MaxCompressedBytes: 1000, MaxDecodedBytes: 500})
	b.TryAllocCompressed(500)
	b.TryAllocDecoded(250)
	u := b.Usage()
	if u.CompressedPercent != 0.5 {
		t.Errorf("compressed percent: got %f, want 0.5", u.CompressedPercent)
	}
	if u.DecodedPercent != 0.5 {
		t.Errorf("decoded percent: got %f, want 0.5", u.DecodedPercent)
	}
	if u.TotalBytes != 750 {
		t.Errorf("total bytes: got %d, want 750", u.TotalBytes)
	}
}

func TestIsWarning(t *testing.T) {
	b := New(Config{MaxCompressedBytes: 100, MaxDecodedBytes: 100, WarningThreshold: 0.85})
	if b.IsWarning() {
		t.Error("expected no warning at 0% usage")
	}
	b.TryAllocCompressed(90)
	if !b.IsWarning() {
		t.Error("expected warning at 90% usage with 85% threshold")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxCompressedBytes != 64*1024*1024 {
		t.Errorf("default max compressed: got %d, want 64MB", cfg.MaxCompressedBytes)
	}
	if cfg.MaxDecodedBytes != 8*1024*1024 {
		t.Errorf("default max decoded: got %d, want 8MB", cfg.MaxDecodedBytes)
	}
	if cfg.WarningThreshold != 0.85 {
		t.Errorf("default warning threshold: got %f, want 0.85", cfg.WarningThreshold)
	}
}

func TestConcurrentAllocFree(t *testing.T) {
	b := New(Config{MaxCompressedBytes: 1 << 20, MaxDecodedBytes: 1 << 20, WarningThreshold: 1})
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 1000; j++ {
				if b.TryAllocCompressed(100) {
					b.FreeCompressed(100)
				}
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if got := b.Usage().CompressedBytes; got != 0 {
		t.Errorf("compressed bytes after concurrent alloc/free: got %d, want 0", got)
	}
}
