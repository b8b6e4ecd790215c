package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipbook/config"
	"shipbook/models"
)

func newTestEngine() *Engine {
	return NewEngine(config.DefaultPricing())
}

func TestQuote(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name          string
		req           QuoteRequest
		wantTotal     float64
		wantSubtotal  float64
		wantBillable  float64
		wantHeavyFee  float64
		wantSurcharge float64
	}{
		{
			name: "two packages at 3.50 per lb stay under the heavy threshold",
			req: QuoteRequest{
				Destination:  "JM",
				ServiceLevel: models.ServiceLevelStandard,
				Packages:     []PackageSpec{{Weight: 10}, {Weight: 60}},
			},
			wantTotal:    260.00,
			wantSubtotal: 245.00,
			wantBillable: 70,
		},
		{
			name: "express adds surcharge on discounted subtotal",
			req: QuoteRequest{
				Destination:  "JM",
				ServiceLevel: models.ServiceLevelExpress,
				Packages:     []PackageSpec{{Weight: 20}},
			},
			wantTotal:     102.50,
			wantSubtotal:  70,
			wantBillable:  20,
			wantSurcharge: 17.50,
		},
		{
			name: "minimum charge floors light packages",
			req: QuoteRequest{
				Destination: "JM",
				Packages:    []PackageSpec{{Weight: 1}},
			},
			wantTotal:    25.00,
			wantSubtotal: 10,
			wantBillable: 1,
		},
		{
			name: "unknown weight and dimensions fall back to minimum charge",
			req: QuoteRequest{
				Destination: "JM",
				Packages:    []PackageSpec{{}},
			},
			wantTotal:    25.00,
			wantSubtotal: 10,
			wantBillable: 0,
		},
		{
			name: "dimensional weight wins over actual weight",
			req: QuoteRequest{
				Destination: "JM",
				Packages:    []PackageSpec{{Weight: 10, Length: 20, Width: 20, Height: 20}},
			},
			wantTotal:    216.44,
			wantSubtotal: 201.44,
			wantBillable: 57.55,
		},
		{
			name: "weight tier and multi-package discounts apply",
			req: QuoteRequest{
				Destination: "JM",
				Packages:    []PackageSpec{{Weight: 50}, {Weight: 50}, {Weight: 50}},
			},
			wantTotal:    528.75,
			wantSubtotal: 525,
			wantBillable: 150,
			wantHeavyFee: 25,
		},
		{
			name: "heavy fee applies strictly above threshold",
			req: QuoteRequest{
				Destination: "JM",
				Packages:    []PackageSpec{{Weight: 71}},
			},
			wantTotal:    288.50,
			wantSubtotal: 248.50,
			wantBillable: 71,
			wantHeavyFee: 25,
		},
		{
			name: "door to door and customs add flat fees",
			req: QuoteRequest{
				Destination:      "JM",
				Packages:         []PackageSpec{{Weight: 10}},
				DoorToDoor:       true,
				CustomsClearance: true,
			},
			wantTotal:    105.00,
			wantSubtotal: 35,
			wantBillable: 10,
		},
		{
			name: "lowercase destination codes resolve",
			req: QuoteRequest{
				Destination: "jm",
				Packages:    []PackageSpec{{Weight: 10}},
			},
			wantTotal:    50.00,
			wantSubtotal: 35,
			wantBillable: 10,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := engine.Quote(tc.req)
			require.NoError(t, err)

			r := q.Rounded()
			assert.Equal(t, tc.wantTotal, r.Total)
			assert.Equal(t, tc.wantSubtotal, r.Subtotal)
			assert.Equal(t, tc.wantBillable, r.TotalBillableWeight)
			assert.Equal(t, tc.wantHeavyFee, r.HeavyWeightFee)
			assert.Equal(t, tc.wantSurcharge, r.ServiceSurcharge)
			assert.Equal(t, Cents(tc.wantTotal), Cents(q.Total))
		})
	}
}

func TestQuoteInvalidDestination(t *testing.T) {
	engine := newTestEngine()

	q, err := engine.Quote(QuoteRequest{
		Destination: "ZZ",
		Packages:    []PackageSpec{{Weight: 10}},
	})
	require.Error(t, err)
	assert.Nil(t, q)
	assert.ErrorIs(t, err, ErrInvalidDestination)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "ZZ")
}

func TestQuoteRequiresPackages(t *testing.T) {
	_, err := newTestEngine().Quote(QuoteRequest{Destination: "JM"})
	require.Error(t, err)
}

func TestInsuranceFee(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		declared float64
		want     float64
	}{
		{declared: 600, want: 37.50},
		{declared: 200, want: 15},
		{declared: 100, want: 15},
		{declared: 0, want: 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Round2(engine.InsuranceFee(tc.declared)), "declared %.2f", tc.declared)
	}

	q, err := engine.Quote(QuoteRequest{
		Destination: "JM",
		Packages:    []PackageSpec{{Weight: 10, DeclaredValue: 600}},
		Insurance:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 37.50, q.Rounded().InsuranceFee)
	assert.Equal(t, 87.50, q.Rounded().Total)

	q, err = engine.Quote(QuoteRequest{
		Destination: "JM",
		Packages:    []PackageSpec{{Weight: 10, DeclaredValue: 600}},
	})
	require.NoError(t, err)
	assert.Zero(t, q.InsuranceFee)
}

func TestQuotePackageCostsReconcileWithTotal(t *testing.T) {
	engine := newTestEngine()

	sets := [][]PackageSpec{
		{{Weight: 10}, {Weight: 60}},
		{{Weight: 40, Length: 18, Width: 14, Height: 9}, {Weight: 1}, {Weight: 33}},
		{{Weight: 120}, {Weight: 200, DeclaredValue: 900}, {Weight: 7}},
	}

	for i, pkgs := range sets {
		for _, level := range []models.ServiceLevel{models.ServiceLevelStandard, models.ServiceLevelExpress} {
			q, err := engine.Quote(QuoteRequest{
				Destination:  "JM",
				ServiceLevel: level,
				Packages:     pkgs,
				DoorToDoor:   i%2 == 0,
				Insurance:    true,
			})
			require.NoError(t, err)

			var sum int64
			for _, p := range q.Packages {
				sum += Cents(p.Cost)
			}
			fees := Cents(q.ServiceSurcharge) + Cents(q.Fees()) + Cents(q.InsuranceFee) - Cents(q.Discount())
			diff := math.Abs(float64(sum + fees - Cents(q.Total)))
			assert.LessOrEqual(t, diff, 1.0, "set %d level %s", i, level)
		}
	}
}
