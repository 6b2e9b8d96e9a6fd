package matcher

import (
	"github.com/numtide/notes/walk"
)

type Result int

const (
	// File explicitly selected.
	Wanted Result = iota
	// File explicitly rejected.
	Unwanted
	// File neither selected nor rejected.
	Indifferent
	// Something went wrong.
	Error
)

type MatchFn = func(file *walk.File) (Result, error)

// ExcludeSet rejects files whose relative path is matched by the set.
func ExcludeSet(set *Set) MatchFn {
	if set == nil || set.Len() == 0 {
		return noOp
	}

	return func(file *walk.File) (Result, error) {
		if set.Matches(file.RelPath) {
			return Unwanted, nil
		}

		return Indifferent, nil
	}
}

// ExcludeBinaries rejects files whose leading bytes do not look like text.
func ExcludeBinaries() MatchFn {
	return func(file *walk.File) (Result, error) {
		binary, err := file.IsBinary()
		if err != nil {
			return Error, err
		}

		if binary {
			return Unwanted, nil
		}

		return Indifferent, nil
	}
}

// ExcludeExecutables rejects files with any execute permission bit set.
func ExcludeExecutables() MatchFn {
	return func(file *walk.File) (Result, error) {
		if file.IsExecutable() {
			return Unwanted, nil
		}

		return Indifferent, nil
	}
}

func noOp(_ *walk.File) (Result, error) {
	return Indifferent, nil
}

// Combine combines multiple matchers into a single matcher.
// The order of the matchers is important, which is why have explicit parameters for includes and excludes.
func Combine(includes []MatchFn, excludes []MatchFn) MatchFn {
	// exclusions are applied first, a file matching any exclude is rejected even if it matches an include
	matchers := make([]MatchFn, 0, len(excludes)+len(includes))
	matchers = append(matchers, excludes...)
	matchers = append(matchers, includes...)

	return func(file *walk.File) (Result, error) {
		for _, matchFn := range matchers {
			result, err := matchFn(file)
			if err != nil {
				return Error, err
			}

			switch result {
			case Wanted, Unwanted:
				return result, nil
			case Indifferent:
			case Error:
			default:
			}
		}

		return Indifferent, nil
	}
}

func (r Result) String() string {
	switch r {
	case Wanted:
		return "wanted"
	case Unwanted:
		return "unwanted"
	case Indifferent:
		return "indifferent"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}
