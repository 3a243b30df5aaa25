package config

import "testing"

func TestResolveDefaults_RejectsMissingDSN(t *testing.T) {
	cfg := NewForTesting()
	cfg.PostgresDSN = ""
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for missing postgres dsn")
	}
}

func TestResolveDefaults_RejectsNonPositiveThreads(t *testing.T) {
	cfg := NewForTesting()
	cfg.IndexerThreads = 0
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for non-positive indexer threads")
	}
}

func TestResolveDefaults_RejectsNonPositivePoolSize(t *testing.T) {
	cfg := NewForTesting()
	cfg.IndexerPoolSize = -1
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for non-positive indexer pool size")
	}
}

func TestResolveDefaults_AcceptsValidConfig(t *testing.T) {
	cfg := NewForTesting()
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("expected valid testing config to resolve cleanly: %v", err)
	}
}

func TestPollInterval_MatchesSeconds(t *testing.T) {
	cfg := NewForTesting()
	cfg.IndexerPollSeconds = 5
	if got, want := cfg.PollInterval().Seconds(), 5.0; got != want {
		t.Fatalf("PollInterval() = %v, want %v", got, want)
	}
}
