package competitionservice

// Diff is the minimal set of mutations that turns actual into desired.
type Diff[T comparable] struct {
	Add    []T
	Remove []T
}

// Empty reports whether no mutation is needed.
func (d Diff[T]) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// Reconcile computes Add = desired \ actual and Remove = actual \ desired.
// Both slices keep the order of their source and contain no duplicates.
func Reconcile[T comparable](desired, actual []T) Diff[T] {
	want := make(map[T]struct{}, len(desired))
	for _, v := range desired {
		want[v] = struct{}{}
	}
	have := make(map[T]struct{}, len(actual))
	for _, v := range actual {
		have[v] = struct{}{}
	}

	var diff Diff[T]
	seen := make(map[T]struct{}, len(desired))
	for _, v := range desired {
		if _, ok := have[v]; ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		diff.Add = append(diff.Add, v)
	}
	clear(seen)
	for _, v := range actual {
		if _, ok := want[v]; ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		diff.Remove = append(diff.Remove, v)
	}
	return diff
}
