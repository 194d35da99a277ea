package calculation

import (
	"github.com/amara/rosterd/internal/limits"
	"github.com/amara/rosterd/internal/model"
	"github.com/amara/rosterd/internal/scheme"
)

// PolicyKind selects the hour formula applied to an employee's assignments.
type PolicyKind int

const (
	// PolicyMom is the standard split: lunch, per-day normal cap, weekly cap.
	PolicyMom PolicyKind = iota
	// PolicyApgdD10 is the exemption split: no weekly cap, rest-day pay on the
	// 6th and 7th consecutive work days.
	PolicyApgdD10
	// PolicyDailyContractual is scheme-B SO accounting against the monthly
	// contractual minimum.
	PolicyDailyContractual
)

// productSO is the product type routed to daily-contractual accounting under
// scheme B when the monthly limits request the daily method.
const productSO = "SO"

// PolicyFor selects the hour policy for an employee, once per employee.
func PolicyFor(e *model.Employee, resolver *limits.Resolver) PolicyKind {
	if e.IsApgdD10() {
		return PolicyApgdD10
	}
	if e.SchemeLetter() == scheme.B &&
		e.ProductType == productSO &&
		resolver.CalculationMethod() == model.CalculationMethodDaily {
		return PolicyDailyContractual
	}
	return PolicyMom
}
