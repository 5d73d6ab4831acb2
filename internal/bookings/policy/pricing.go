package policy

import (
	"errors"

	"tourbook/pkg/model"
)

var ErrDiscountTooLarge = errors.New("discount exceeds booking subtotal")

// Quote prices a booking: unitPrice per traveler, taxes on the gross
// subtotal, discount taken off the total.
func Quote(unitPrice float64, travelers int, discount float64, taxRate float64, currency string) (model.Price, error) {
	subtotal := unitPrice * float64(travelers)
	if discount < 0 || discount > subtotal {
		return model.Price{}, ErrDiscountTooLarge
	}

	taxes := model.RoundMoney(subtotal * taxRate)
	return model.Price{
		BasePrice:      unitPrice,
		DiscountAmount: model.RoundMoney(discount),
		Taxes:          taxes,
		TotalPrice:     model.RoundMoney(subtotal - discount + taxes),
		Currency:       currency,
	}, nil
}

// WithDiscount re-prices p for a new discount keeping unit price and taxes.
func WithDiscount(p model.Price, travelers int, discount float64) (model.Price, error) {
	subtotal := p.BasePrice * float64(travelers)
	if discount < 0 || discount > subtotal {
		return model.Price{}, ErrDiscountTooLarge
	}
	p.DiscountAmount = model.RoundMoney(discount)
	p.TotalPrice = model.RoundMoney(subtotal - discount + p.Taxes)
	return p, nil
}

// PriceConsistent checks totalPrice = basePrice*travelers - discount + taxes.
func PriceConsistent(p model.Price, travelers int) bool {
	want := model.RoundMoney(p.BasePrice*float64(travelers) - p.DiscountAmount + p.Taxes)
	diff := want - p.TotalPrice
	return diff > -0.005 && diff < 0.005
}
