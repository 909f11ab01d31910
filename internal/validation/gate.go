// Package validation implements the order gate: field-level checks live on
// the request DTOs (validator/v10 tags), while the data-dependent predicate
// checks are composed here as independent functions over injected finders.
package validation

import "sync"

// Failure describes one failed check, keyed by the request field it concerns.
type Failure struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
}

// Check is a single predicate over persisted data. It returns nil on pass.
type Check func() *Failure

// ProductLine is one requested (product, quantity) pair, the unit the
// predicate checks operate on.
type ProductLine struct {
	ProductID uint
	Quantity  int
}

// Run executes the checks concurrently and aggregates their failures in
// declaration order. Checks are read-only and independent of one another.
func Run(checks ...Check) []Failure {
	results := make([]*Failure, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func(i int, check Check) {
			defer wg.Done()
			results[i] = check()
		}(i, check)
	}
	wg.Wait()

	var failures []Failure
	for _, res := range results {
		if res != nil {
			failures = append(failures, *res)
		}
	}
	return failures
}

func productIDs(lines []ProductLine) []uint {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}
