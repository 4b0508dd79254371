package payment

import (
	"fmt"
	"math/rand"

	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

// Approver decides whether a charge goes through.
type Approver interface {
	Approve(cart domain.Cart, amount int64) (bool, string)
}

// ApproveAll accepts every charge. Kiosk accounts may go negative; settling
// balances is a back-office concern.
type ApproveAll struct{}

func (ApproveAll) Approve(domain.Cart, int64) (bool, string) {
	return true, ""
}

// FlakyApprover refuses a configurable percentage of charges, for exercising
// the failure path in demos and tests.
type FlakyApprover struct {
	RefusalPercent int
}

func (f FlakyApprover) Approve(domain.Cart, int64) (bool, string) {
	if rand.Intn(100) < f.RefusalPercent {
		return false, fmt.Sprintf("refused by policy (%d%% refusal rate)", f.RefusalPercent)
	}
	return true, ""
}
