package race

// DefaultMaxErrors is the consecutive-error threshold at which further
// insertions are blocked until the user deletes.
const DefaultMaxErrors = 7

// Keystroke is the outcome of evaluating one input-buffer change.
type Keystroke struct {
	// Input is the accepted buffer. Equal to the previous buffer when
	// the change was rejected.
	Input string
	// Accepted reports whether the buffer change was applied.
	Accepted bool
	// Correct reports whether an accepted insertion matched the target.
	// Always false for deletions and rejected input.
	Correct bool
	// Error reports whether the change counts toward the global error
	// count.
	Error bool
	// Consecutive is the consecutive-error count after the change.
	Consecutive int
}

// EvaluateKeystroke classifies a change of the input buffer from prev to
// next against the target line.
//
// Deletions are always accepted and recover one consecutive error.
// Insertions of more than one character at a time are rejected; pasting
// is not allowed. A single inserted character is compared against the
// target at the same position: a match resets the consecutive-error
// count, a mismatch is still accepted (so the mistake is visible) but
// counts as an error. Once consecutive reaches maxErrors no further
// insertion is accepted until a deletion occurs.
func EvaluateKeystroke(target, prev, next string, consecutive, maxErrors int) Keystroke {
	prevRunes := []rune(prev)
	nextRunes := []rune(next)

	if len(nextRunes) < len(prevRunes) {
		recovered := consecutive - 1
		if recovered < 0 {
			recovered = 0
		}
		return Keystroke{Input: next, Accepted: true, Consecutive: recovered}
	}

	if len(nextRunes) > len(prevRunes)+1 {
		return Keystroke{Input: prev, Consecutive: consecutive}
	}

	if consecutive >= maxErrors {
		return Keystroke{Input: prev, Consecutive: consecutive}
	}

	if len(nextRunes) == len(prevRunes) {
		return Keystroke{Input: prev, Consecutive: consecutive}
	}

	targetRunes := []rune(target)
	pos := len(nextRunes) - 1
	if pos < len(targetRunes) && nextRunes[pos] == targetRunes[pos] {
		return Keystroke{Input: next, Accepted: true, Correct: true}
	}
	return Keystroke{Input: next, Accepted: true, Error: true, Consecutive: consecutive + 1}
}

// MatchesTarget reports whether the input commits the target line. A
// line submission is accepted only on an exact full-string match.
func MatchesTarget(target, input string) bool {
	return input == target
}
