// File path: internal/vector/helpers_test.go
package vector

import "github.com/nicodishanthj/partfinder/internal/catalog"

func samplePart(id, name string, price float64) catalog.Part {
	return catalog.Part{
		ID:            id,
		Name:          name,
		PriceAmount:   price,
		PriceCurrency: "USD",
		Source:        catalog.SourceEbay,
		URL:           "https://www.ebay.com/itm/" + id,
		EmbeddingText: name,
	}
}
