package order

// Op is a comparison used by a Criterion
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
)

// Field names a queryable order attribute
type Field string

const (
	FieldCustomerID Field = "customer_id"
	FieldStatus     Field = "status"
	FieldTotal      Field = "total"
)

// Criterion is one conjunct of a specification in a storage-neutral form.
// Adapters translate criteria into their query language.
type Criterion struct {
	Field Field
	Op    Op
	Value any
}

// Specification selects orders. IsSatisfiedBy evaluates in memory;
// Criteria exposes the same predicate for repositories that push it down.
type Specification interface {
	IsSatisfiedBy(o *Order) bool
	Criteria() []Criterion
}

type criterionSpec struct {
	criterion Criterion
	match     func(o *Order) bool
}

func (s criterionSpec) IsSatisfiedBy(o *Order) bool { return s.match(o) }
func (s criterionSpec) Criteria() []Criterion       { return []Criterion{s.criterion} }

// ByCustomer selects orders placed by customerID
func ByCustomer(customerID int64) Specification {
	return criterionSpec{
		criterion: Criterion{Field: FieldCustomerID, Op: OpEq, Value: customerID},
		match:     func(o *Order) bool { return o.customerID == customerID },
	}
}

// WithStatus selects orders in status
func WithStatus(status Status) Specification {
	return criterionSpec{
		criterion: Criterion{Field: FieldStatus, Op: OpEq, Value: string(status)},
		match:     func(o *Order) bool { return o.status == status },
	}
}

// TotalAtLeast selects orders whose total is >= min
func TotalAtLeast(min int64) Specification {
	return criterionSpec{
		criterion: Criterion{Field: FieldTotal, Op: OpGte, Value: min},
		match:     func(o *Order) bool { return o.total >= min },
	}
}

type andSpec []Specification

// And combines specifications; an empty And matches every order
func And(specs ...Specification) Specification {
	return andSpec(specs)
}

func (a andSpec) IsSatisfiedBy(o *Order) bool {
	for _, s := range a {
		if !s.IsSatisfiedBy(o) {
			return false
		}
	}
	return true
}

func (a andSpec) Criteria() []Criterion {
	var out []Criterion
	for _, s := range a {
		out = append(out, s.Criteria()...)
	}
	return out
}
