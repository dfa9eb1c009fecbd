package enums

import "fmt"

// CommitStage names one step of the Processing sequence. The sequence is
// strictly ordered and short-circuits on the first failing stage.
type CommitStage string

const (
	CommitStageRevalidateStock CommitStage = "revalidate_stock"
	CommitStageCreateCustomer  CommitStage = "create_customer"
	CommitStageCreateOrder     CommitStage = "create_order"
	CommitStageMarkPaid        CommitStage = "mark_paid"
)

var validCommitStages = []CommitStage{
	CommitStageRevalidateStock,
	CommitStageCreateCustomer,
	CommitStageCreateOrder,
	CommitStageMarkPaid,
}

// String implements fmt.Stringer.
func (c CommitStage) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CommitStage.
func (c CommitStage) IsValid() bool {
	for _, candidate := range validCommitStages {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCommitStage converts raw input into a CommitStage.
func ParseCommitStage(value string) (CommitStage, error) {
	for _, candidate := range validCommitStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commit stage %q", value)
}
