package guarantee

import (
	"fmt"

	customError "github.com/kapatiran/lending-engine/pkg/errors"
)

// Group lending bounds on the guarantor set.
const (
	MinCoMakers = 2
	MaxCoMakers = 15
)

// GuarantorSet is a validated co-maker set for one application. Membership
// is a many-to-many relation: the same guarantor may back any number of
// concurrent loans. There is no aggregate exposure cap across loans; that
// mirrors how solidarity groups actually operate and is a known risk
// surface rather than an oversight.
type GuarantorSet struct {
	BorrowerID string
	MemberIDs  []string
}

// Validate checks a candidate co-maker set for a borrower. It rejects
// duplicates, self-reference, empty identifiers, and sizes outside
// [MinCoMakers, MaxCoMakers]. The returned set preserves candidate order.
func Validate(borrowerID string, candidateIDs []string) (*GuarantorSet, error) {
	if len(candidateIDs) < MinCoMakers || len(candidateIDs) > MaxCoMakers {
		return nil, customError.WrapValidation(
			fmt.Sprintf("co-maker count must be between %d and %d, got %d", MinCoMakers, MaxCoMakers, len(candidateIDs)))
	}

	seen := make(map[string]struct{}, len(candidateIDs))
	members := make([]string, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if id == "" {
			return nil, customError.WrapValidation("co-maker identifier must not be empty")
		}
		if id == borrowerID {
			return nil, customError.WrapValidation("borrower cannot co-make their own loan")
		}
		if _, dup := seen[id]; dup {
			return nil, customError.WrapValidation(fmt.Sprintf("duplicate co-maker %s", id))
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}

	return &GuarantorSet{
		BorrowerID: borrowerID,
		MemberIDs:  members,
	}, nil
}
