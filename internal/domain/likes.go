package domain

import "slices"

// toggleMembership flips the presence of userID in a likers list.
// Returns the updated list and true when userID was added, false when removed.
// Comparison is plain string equality against each stored reference.
func toggleMembership(likes []string, userID string) ([]string, bool) {
	if i := slices.Index(likes, userID); i >= 0 {
		return slices.Delete(likes, i, i+1), false
	}
	return append(likes, userID), true
}
