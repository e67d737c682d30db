package booking

import "time"

// RefundPolicy computes the refund for a cancellation. Operators vary
// terms per deployment, so the policy is injected, never hard-coded.
type RefundPolicy interface {
	RefundCents(amountCents int64, start time.Time, now time.Time) int64
}

// RefundPolicyFunc adapts a plain function to RefundPolicy.
type RefundPolicyFunc func(amountCents int64, start time.Time, now time.Time) int64

func (f RefundPolicyFunc) RefundCents(amountCents int64, start time.Time, now time.Time) int64 {
	return f(amountCents, start, now)
}

// CutoffRefundPolicy refunds in three bands:
//   - cancelled earlier than Cutoff before start: full refund
//   - cancelled inside the cutoff but before start: LatePercent
//   - cancelled once the window has started: nothing
type CutoffRefundPolicy struct {
	Cutoff      time.Duration
	LatePercent int
}

func NewCutoffRefundPolicy(cutoff time.Duration, latePercent int) *CutoffRefundPolicy {
	if latePercent < 0 {
		latePercent = 0
	}
	if latePercent > 100 {
		latePercent = 100
	}
	return &CutoffRefundPolicy{
		Cutoff:      cutoff,
		LatePercent: latePercent,
	}
}

func (p *CutoffRefundPolicy) RefundCents(amountCents int64, start time.Time, now time.Time) int64 {
	if !now.Before(start) {
		return 0
	}
	if now.Add(p.Cutoff).Before(start) {
		return amountCents
	}
	return amountCents * int64(p.LatePercent) / 100
}
