package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListQuery_Apply(t *testing.T) {
	products := sample()

	items, total := ListQuery{}.Apply(products)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 3)

	items, total = ListQuery{Category: " SHOES "}.Apply(products)
	assert.Equal(t, 1, total)
	assert.Equal(t, "product1", items[0].ID)

	items, total = ListQuery{Query: "ca"}.Apply(products)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Cap", items[0].Title)

	items, total = ListQuery{Limit: 1, Offset: 1}.Apply(products)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"product2:Cap"}, titles(items))

	items, total = ListQuery{Offset: 10}.Apply(products)
	assert.Equal(t, 3, total)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}
