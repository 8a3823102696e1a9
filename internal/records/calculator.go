package records

import (
	"fmt"
	"strings"
)

// CalculatorItem is one billable case service.
type CalculatorItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ShortName string  `json:"shortName"`
	Price     float64 `json:"price"`
}

// Catalogue is the fixed price list.
var Catalogue = []CalculatorItem{
	{ID: "VIZS", Name: "Vizsgálat", ShortName: "(VIZS)", Price: 50000},
	{ID: "KOT", Name: "Kötözés", ShortName: "(KÖT)", Price: 15000},
	{ID: "GIP", Name: "Gipszelés", ShortName: "(GIP)", Price: 20000},
	{ID: "GYOGY", Name: "Gyógyszerezés", ShortName: "(GYÓGY)", Price: 9000},
	{ID: "MT", Name: "Műtét", ShortName: "(MT)", Price: 35000},
	{ID: "TH", Name: "Téves hívás", ShortName: "(TH)", Price: 60000},
}

// Quote is the result of pricing a selection.
type Quote struct {
	Names []string `json:"names"`
	Total float64  `json:"total"`
}

// Description joins the selected names the way a report expects them.
func (q Quote) Description() string {
	return strings.Join(q.Names, ", ")
}

// QuoteItems prices the selected ids. Names come out in selection order
// and a repeated id counts once.
func QuoteItems(ids []string) (Quote, error) {
	if len(ids) == 0 {
		return Quote{}, ErrEmptyQuote
	}

	q := Quote{Names: []string{}}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		item, ok := lookupItem(id)
		if !ok {
			return Quote{}, fmt.Errorf("%q: %w", id, ErrUnknownCalculatorItem)
		}
		seen[id] = true
		q.Names = append(q.Names, item.Name)
		q.Total += item.Price
	}
	return q, nil
}

func lookupItem(id string) (CalculatorItem, bool) {
	for _, item := range Catalogue {
		if item.ID == id {
			return item, true
		}
	}
	return CalculatorItem{}, false
}
