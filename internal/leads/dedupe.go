package leads

// Merge appends to existing every incoming record whose signature is not
// already present, in incoming order. Duplicates within incoming collapse
// to their first occurrence. The existing set is never mutated; callers
// may keep a reference to it until they choose to swap. Merge is
// deterministic and has no failure mode.
func Merge(existing ResultSet, incoming []Business) ResultSet {
	merged := make(ResultSet, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, b := range existing {
		seen[Signature(b)] = struct{}{}
	}

	for _, b := range incoming {
		sig := Signature(b)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		merged = append(merged, b)
	}

	return merged
}
