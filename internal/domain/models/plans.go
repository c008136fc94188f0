package models

import "time"

// Plan types.
const (
	Plan3Months  = "3_months"
	Plan6Months  = "6_months"
	Plan12Months = "12_months"
)

// Plan describes a subscription duration tier.
type Plan struct {
	Type   string `json:"type"`
	Months int    `json:"months"`
	Price  int64  `json:"price"` // minor units
}

var plans = map[string]Plan{
	Plan3Months:  {Type: Plan3Months, Months: 3, Price: 150000},
	Plan6Months:  {Type: Plan6Months, Months: 6, Price: 270000},
	Plan12Months: {Type: Plan12Months, Months: 12, Price: 480000},
}

// LookupPlan returns the plan for planType.
func LookupPlan(planType string) (Plan, bool) {
	p, ok := plans[planType]
	return p, ok
}

// Plans returns all plans ordered by duration.
func Plans() []Plan {
	return []Plan{plans[Plan3Months], plans[Plan6Months], plans[Plan12Months]}
}

// EndDate returns start advanced by the plan's duration.
func (p Plan) EndDate(start time.Time) time.Time {
	return start.AddDate(0, p.Months, 0)
}
