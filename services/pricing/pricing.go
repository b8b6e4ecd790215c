// Package pricing computes authoritative shipment costs. It performs no I/O.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"shipbook/config"
	"shipbook/models"
)

// ErrInvalidDestination is returned when the destination is not in the rate table.
var ErrInvalidDestination = errors.New("InvalidDestination")

// Error wraps a pricing failure with its condition code.
type Error struct {
	Code    error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Code }

// PackageSpec is one package as seen by the engine. A zero weight or zero
// dimensions are treated as unknown.
type PackageSpec struct {
	Weight        float64
	Length        float64
	Width         float64
	Height        float64
	DeclaredValue float64
}

// QuoteRequest is the pricing input for a whole booking.
type QuoteRequest struct {
	Destination      string
	ServiceLevel     models.ServiceLevel
	Packages         []PackageSpec
	DoorToDoor       bool
	CustomsClearance bool
	Insurance        bool
}

// PackageQuote is the per-package breakdown.
type PackageQuote struct {
	DimWeight      float64 `json:"dimWeight"`
	BillableWeight float64 `json:"billableWeight"`
	Cost           float64 `json:"cost"`
}

// Quote is the itemized result. Amounts are unrounded; use Cents or the
// Rounded view at presentation boundaries.
type Quote struct {
	Destination         string         `json:"destination"`
	BaseRate            float64        `json:"baseRate"`
	Packages            []PackageQuote `json:"packages"`
	TotalBillableWeight float64        `json:"totalBillableWeight"`
	Subtotal            float64        `json:"subtotal"`
	WeightTierDiscount  float64        `json:"weightTierDiscount"`
	MultiPackageDisc    float64        `json:"multiPackageDiscount"`
	ServiceSurcharge    float64        `json:"serviceSurcharge"`
	HeavyWeightFee      float64        `json:"heavyWeightFee"`
	HandlingFee         float64        `json:"handlingFee"`
	DoorToDoorFee       float64        `json:"doorToDoorFee"`
	CustomsFee          float64        `json:"customsFee"`
	InsuranceFee        float64        `json:"insuranceFee"`
	Total               float64        `json:"total"`
}

// Discount is the sum of all discounts.
func (q *Quote) Discount() float64 {
	return q.WeightTierDiscount + q.MultiPackageDisc
}

// Fees is the sum of flat fees, excluding insurance and surcharge.
func (q *Quote) Fees() float64 {
	return q.HeavyWeightFee + q.HandlingFee + q.DoorToDoorFee + q.CustomsFee
}

// Rounded returns a copy with every monetary field rounded to cents.
func (q *Quote) Rounded() Quote {
	r := *q
	r.Packages = make([]PackageQuote, len(q.Packages))
	for i, p := range q.Packages {
		r.Packages[i] = PackageQuote{DimWeight: Round2(p.DimWeight), BillableWeight: Round2(p.BillableWeight), Cost: Round2(p.Cost)}
	}
	r.TotalBillableWeight = Round2(q.TotalBillableWeight)
	r.Subtotal = Round2(q.Subtotal)
	r.WeightTierDiscount = Round2(q.WeightTierDiscount)
	r.MultiPackageDisc = Round2(q.MultiPackageDisc)
	r.ServiceSurcharge = Round2(q.ServiceSurcharge)
	r.HeavyWeightFee = Round2(q.HeavyWeightFee)
	r.HandlingFee = Round2(q.HandlingFee)
	r.DoorToDoorFee = Round2(q.DoorToDoorFee)
	r.CustomsFee = Round2(q.CustomsFee)
	r.InsuranceFee = Round2(q.InsuranceFee)
	r.Total = Round2(q.Total)
	return r
}

// Engine prices bookings against a rate table.
type Engine struct {
	cfg          config.PricingConfig
	destinations map[string]config.Destination
}

// NewEngine indexes the rate table by destination code.
func NewEngine(cfg config.PricingConfig) *Engine {
	dests := make(map[string]config.Destination, len(cfg.Destinations))
	for _, d := range cfg.Destinations {
		dests[strings.ToUpper(d.Code)] = d
	}
	return &Engine{cfg: cfg, destinations: dests}
}

// Destination looks up a destination by code.
func (e *Engine) Destination(code string) (config.Destination, bool) {
	d, ok := e.destinations[strings.ToUpper(code)]
	return d, ok
}

// Quote computes the full breakdown for req.
func (e *Engine) Quote(req QuoteRequest) (*Quote, error) {
	dest, ok := e.Destination(req.Destination)
	if !ok {
		return nil, &Error{Code: ErrInvalidDestination, Message: fmt.Sprintf("destination %q is not served", req.Destination)}
	}
	if len(req.Packages) == 0 {
		return nil, fmt.Errorf("pricing: at least one package is required")
	}

	q := &Quote{
		Destination: dest.Code,
		BaseRate:    dest.BaseRate,
		Packages:    make([]PackageQuote, 0, len(req.Packages)),
	}

	var declared float64
	for _, p := range req.Packages {
		dim := e.DimWeight(p.Length, p.Width, p.Height)
		billable := math.Max(p.Weight, dim)
		cost := math.Max(billable*dest.BaseRate, e.cfg.MinimumCharge)
		q.Packages = append(q.Packages, PackageQuote{DimWeight: dim, BillableWeight: billable, Cost: cost})
		q.TotalBillableWeight += billable
		q.Subtotal += cost
		declared += p.DeclaredValue
	}

	q.WeightTierDiscount = q.Subtotal * e.tierPercent(q.TotalBillableWeight)
	if e.cfg.MultiPackageThreshold > 0 && len(req.Packages) >= e.cfg.MultiPackageThreshold {
		q.MultiPackageDisc = e.cfg.MultiPackageDiscount
	}
	discounted := math.Max(q.Subtotal-q.Discount(), 0)

	if req.ServiceLevel == models.ServiceLevelExpress {
		q.ServiceSurcharge = discounted * e.cfg.ExpressSurchargeRate
	}
	if q.TotalBillableWeight > e.cfg.HeavyWeightThreshold {
		q.HeavyWeightFee = e.cfg.HeavyWeightFee
	}
	q.HandlingFee = math.Max(e.cfg.HandlingMinimum, e.cfg.HandlingPerPackage*float64(len(req.Packages)))
	if req.DoorToDoor {
		q.DoorToDoorFee = e.cfg.DoorToDoorFee
	}
	if req.CustomsClearance {
		q.CustomsFee = e.cfg.CustomsFee
	}
	if req.Insurance {
		q.InsuranceFee = e.InsuranceFee(declared)
	}

	q.Total = discounted + q.ServiceSurcharge + q.Fees() + q.InsuranceFee
	return q, nil
}

// DimWeight is the volumetric weight; zero when any dimension is unknown.
func (e *Engine) DimWeight(l, w, h float64) float64 {
	if l <= 0 || w <= 0 || h <= 0 || e.cfg.DimDivisor <= 0 {
		return 0
	}
	return l * w * h / e.cfg.DimDivisor
}

// InsuranceFee prices coverage for the declared value.
func (e *Engine) InsuranceFee(declared float64) float64 {
	if declared <= 0 {
		return 0
	}
	return math.Max(e.cfg.InsuranceMinimum, (declared-e.cfg.InsuranceDeductible)*e.cfg.InsuranceRate)
}

func (e *Engine) tierPercent(weight float64) float64 {
	var best config.WeightTier
	found := false
	for _, t := range e.cfg.WeightTiers {
		if weight >= t.MinWeight && (!found || t.MinWeight > best.MinWeight) {
			best = t
			found = true
		}
	}
	if !found {
		return 0
	}
	return best.Percent
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Cents converts a currency amount to integer minor units.
func Cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// FromCents converts minor units back to a currency amount.
func FromCents(c int64) float64 {
	return float64(c) / 100
}
