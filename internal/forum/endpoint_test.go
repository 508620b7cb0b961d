package forum

import "testing"

func urls(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.URL())
	}
	return out
}

func TestCandidatesReadWithPrefixFallback(t *testing.T) {
	r := NewResolver("http://api.example/", false, false, nil)
	got := urls(r.Candidates("/api/v1/topics/1", true))
	want := []string{
		"http://api.example/api/v1/topics/1",
		"http://api.example/answer/api/v1/topics/1",
	}
	if len(got) != len(want) {
		t.Fatalf("Candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Candidates[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCandidatesLegacyPrefixSwapsBack(t *testing.T) {
	r := NewResolver("http://api.example", false, false, nil)
	got := urls(r.Candidates("/answer/api/v1/user/info", true))
	if len(got) != 2 || got[1] != "http://api.example/api/v1/user/info" {
		t.Fatalf("Candidates = %v", got)
	}
}

func TestCandidatesProbingOrderAndDedup(t *testing.T) {
	r := NewResolver("http://localhost:9080", false, true, []string{"http://localhost:9080/", "http://127.0.0.1:9080"})
	got := urls(r.Candidates("/api/v1/boards", true))
	want := []string{
		"http://localhost:9080/api/v1/boards",
		"http://localhost:9080/answer/api/v1/boards",
		"http://127.0.0.1:9080/api/v1/boards",
		"http://127.0.0.1:9080/answer/api/v1/boards",
	}
	if len(got) != len(want) {
		t.Fatalf("Candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Candidates[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCandidatesWriteHasSingleEntry(t *testing.T) {
	for _, probe := range []bool{false, true} {
		r := NewResolver("http://api.example", false, probe, []string{"http://other:1"})
		got := r.Candidates("/api/v1/topics/1/merge-jobs", false)
		if len(got) != 1 || got[0].URL() != "http://api.example/api/v1/topics/1/merge-jobs" {
			t.Errorf("probe=%v: write Candidates = %v, want exactly the primary", probe, urls(got))
		}
	}
}

func TestCandidatesUnknownPrefix(t *testing.T) {
	r := NewResolver("http://api.example", false, false, nil)
	got := r.Candidates("/healthz", true)
	if len(got) != 1 {
		t.Fatalf("Candidates = %v, want one entry", urls(got))
	}
	// "/api/v10" must not be mistaken for the /api/v1 prefix.
	if got := r.Candidates("/api/v10/x", true); len(got) != 1 {
		t.Fatalf("Candidates(/api/v10/x) = %v", urls(got))
	}
}

func TestProductionDisablesProbing(t *testing.T) {
	r := NewResolver("http://api.example", true, true, []string{"http://other:1"})
	if r.Probe || len(r.ProbeBases) != 0 {
		t.Fatalf("production resolver should not probe: %+v", r)
	}
}
