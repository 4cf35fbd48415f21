package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineMath(t *testing.T) {
	assert.Equal(t, int64(30000), LineTotal(3, 10000))
	assert.Equal(t, int64(3000), Tax(30000))
	assert.Equal(t, int64(33000), Total(3, 10000))
}

func TestTaxTruncatesTowardZero(t *testing.T) {
	// 3 x 3333 = 9999, one tenth is 999.9 and the fraction is dropped.
	assert.Equal(t, int64(999), Tax(LineTotal(3, 3333)))
	assert.Equal(t, int64(10998), Total(3, 3333))

	assert.Equal(t, int64(0), Tax(9))
	assert.Equal(t, int64(0), Tax(0))
}

func TestStatementTotalFoldsLines(t *testing.T) {
	items := []StatementItem{
		{Quantity: 3, UnitPrice: 10000},
		{Quantity: 1, UnitPrice: 3333},
	}
	// 33000 + 3666
	assert.Equal(t, int64(36666), StatementTotal(items))

	assert.Equal(t, int64(0), StatementTotal(nil))
}
