package inventory

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SortBatchesFEFO orders batches for depletion: earliest expiry first,
// batches without an expiry date last, creation time as the tiebreak.
// The input slice is not modified.
func SortBatchesFEFO(batches []ProductBatch) []ProductBatch {
	sorted := make([]ProductBatch, len(batches))
	copy(sorted, batches)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ExpiryDate != nil && sorted[j].ExpiryDate != nil {
			if !sorted[i].ExpiryDate.Equal(*sorted[j].ExpiryDate) {
				return sorted[i].ExpiryDate.Before(*sorted[j].ExpiryDate)
			}
		} else if sorted[i].ExpiryDate != nil {
			return true
		} else if sorted[j].ExpiryDate != nil {
			return false
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	return sorted
}

// TotalAvailable sums the quantity on hand across batches that still
// hold stock
func TotalAvailable(batches []ProductBatch) decimal.Decimal {
	total := decimal.Zero
	for i := range batches {
		if batches[i].HasStock() {
			total = total.Add(batches[i].QuantityOnHand)
		}
	}
	return total
}
