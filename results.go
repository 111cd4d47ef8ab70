package survival

import (
	"github.com/aouyang1/go-survival/predictive"
)

// Results holds the predictive samples and checks of both samplers so the truncated
// draws can be compared against the unrestricted ones
type Results struct {
	Truncated      *predictive.Samples `json:"-"`
	Naive          *predictive.Samples `json:"-"`
	TruncatedCheck *predictive.Check   `json:"truncated_check"`
	NaiveCheck     *predictive.Check   `json:"naive_check"`
}
