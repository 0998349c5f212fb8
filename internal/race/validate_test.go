package race

import "testing"

func TestEvaluateKeystrokeCorrectInsertion(t *testing.T) {
	res := EvaluateKeystroke("return 1", "retu", "retur", 2, DefaultMaxErrors)
	if !res.Accepted || !res.Correct {
		t.Fatalf("expected accepted correct keystroke, got %+v", res)
	}
	if res.Consecutive != 0 {
		t.Fatalf("expected consecutive reset to 0, got %d", res.Consecutive)
	}
	if res.Input != "retur" {
		t.Fatalf("unexpected buffer: %q", res.Input)
	}
}

func TestEvaluateKeystrokeMismatchStillAccepted(t *testing.T) {
	res := EvaluateKeystroke("return 1", "retu", "retux", 0, DefaultMaxErrors)
	if !res.Accepted || res.Correct {
		t.Fatalf("expected accepted incorrect keystroke, got %+v", res)
	}
	if !res.Error {
		t.Fatalf("mismatch must count as an error")
	}
	if res.Consecutive != 1 {
		t.Fatalf("expected consecutive 1, got %d", res.Consecutive)
	}
	if res.Input != "retux" {
		t.Fatalf("mistake must stay visible in the buffer, got %q", res.Input)
	}
}

func TestEvaluateKeystrokeGateBlocksInsertion(t *testing.T) {
	res := EvaluateKeystroke("return 1", "xxxxxxx", "xxxxxxxy", DefaultMaxErrors, DefaultMaxErrors)
	if res.Accepted {
		t.Fatalf("expected gated insertion to be rejected")
	}
	if res.Input != "xxxxxxx" {
		t.Fatalf("rejected input must leave the buffer unchanged, got %q", res.Input)
	}
	if res.Consecutive != DefaultMaxErrors {
		t.Fatalf("expected consecutive unchanged, got %d", res.Consecutive)
	}
}

func TestEvaluateKeystrokeDeletionRecoversOneError(t *testing.T) {
	res := EvaluateKeystroke("return 1", "retx", "ret", 3, DefaultMaxErrors)
	if !res.Accepted {
		t.Fatalf("deletion must always be accepted")
	}
	if res.Consecutive != 2 {
		t.Fatalf("expected consecutive decremented to 2, got %d", res.Consecutive)
	}
	if res.Error {
		t.Fatalf("deletion must not count as an error")
	}
}

func TestEvaluateKeystrokeDeletionAtZeroStaysZero(t *testing.T) {
	res := EvaluateKeystroke("return 1", "ret", "re", 0, DefaultMaxErrors)
	if res.Consecutive != 0 {
		t.Fatalf("expected consecutive 0, got %d", res.Consecutive)
	}
}

func TestEvaluateKeystrokeDeletionUnblocksGate(t *testing.T) {
	res := EvaluateKeystroke("return 1", "xxxxxxx", "xxxxxx", DefaultMaxErrors, DefaultMaxErrors)
	if !res.Accepted {
		t.Fatalf("deletion must be accepted at the gate")
	}
	next := EvaluateKeystroke("return 1", res.Input, res.Input+"z", res.Consecutive, DefaultMaxErrors)
	if !next.Accepted {
		t.Fatalf("insertion after a deletion must pass the gate")
	}
}

func TestEvaluateKeystrokePasteRejected(t *testing.T) {
	res := EvaluateKeystroke("return 1", "re", "return 1", 0, DefaultMaxErrors)
	if res.Accepted {
		t.Fatalf("multi-character insertion must be rejected")
	}
	if res.Input != "re" {
		t.Fatalf("buffer must be unchanged after paste, got %q", res.Input)
	}
}

func TestEvaluateKeystrokeBeyondTargetIsError(t *testing.T) {
	res := EvaluateKeystroke("ab", "ab", "abc", 0, DefaultMaxErrors)
	if !res.Accepted || res.Correct {
		t.Fatalf("typing past the target must be an accepted error, got %+v", res)
	}
	if !res.Error {
		t.Fatalf("expected error past end of target")
	}
}

func TestMatchesTargetExact(t *testing.T) {
	cases := []struct {
		target string
		input  string
		want   bool
	}{
		{"return 1", "return 1", true},
		{"return 1", "return 1 ", false},
		{"return 1", "Return 1", false},
		{"return 1", "return", false},
		{"", "", true},
	}
	for _, tc := range cases {
		if got := MatchesTarget(tc.target, tc.input); got != tc.want {
			t.Fatalf("MatchesTarget(%q, %q) = %v, want %v", tc.target, tc.input, got, tc.want)
		}
	}
}
