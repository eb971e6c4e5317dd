package optimizer

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrInfeasibleModel means no squad satisfies the rules for this catalog.
	ErrInfeasibleModel = errors.New("no squad satisfies the league rules for this catalog")
	// ErrUnboundedModel means the objective has no finite optimum.
	ErrUnboundedModel = errors.New("squad objective is unbounded")
	// ErrNegativeLambda rejects a negative cost multiplier.
	ErrNegativeLambda = errors.New("lambda must be non-negative")
	// ErrInternalConsistency is the parent of every post-solve check failure.
	// It signals a modeling or solver defect, not a property of the input.
	ErrInternalConsistency = errors.New("internal consistency check failed")
)

// IntegralityViolation reports a decision variable that is not exactly 0 or 1.
type IntegralityViolation struct {
	Index int
	Value *big.Rat
}

func (e *IntegralityViolation) Error() string {
	return fmt.Sprintf("variable %d has non-binary value %s", e.Index, e.Value.RatString())
}

func (e *IntegralityViolation) Is(target error) bool {
	return target == ErrInternalConsistency
}

// ConstraintViolation reports a row the returned point breaks.
type ConstraintViolation struct {
	Row   string
	Lhs   *big.Rat
	Bound *big.Rat
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("row %s violated: lhs %s, bound %s", e.Row, e.Lhs.RatString(), e.Bound.RatString())
}

func (e *ConstraintViolation) Is(target error) bool {
	return target == ErrInternalConsistency
}

// OptimalityViolation reports a dual certificate that does not prove the
// returned point optimal, or an objective that does not match the point.
type OptimalityViolation struct {
	Reason string
}

func (e *OptimalityViolation) Error() string {
	return "optimality certificate rejected: " + e.Reason
}

func (e *OptimalityViolation) Is(target error) bool {
	return target == ErrInternalConsistency
}
