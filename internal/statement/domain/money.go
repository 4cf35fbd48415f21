package domain

// Amounts are integer KRW. VAT is one tenth of the line total,
// truncated toward zero by integer division.

func LineTotal(quantity, unitPrice int64) int64 {
	return quantity * unitPrice
}

func Tax(lineTotal int64) int64 {
	return lineTotal / 10
}

func Total(quantity, unitPrice int64) int64 {
	lineTotal := LineTotal(quantity, unitPrice)
	return lineTotal + Tax(lineTotal)
}

// StatementTotal folds every line's total including tax.
func StatementTotal(items []StatementItem) int64 {
	var total int64
	for _, item := range items {
		total += Total(item.Quantity, item.UnitPrice)
	}
	return total
}
