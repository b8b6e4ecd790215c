package config

import "github.com/spf13/viper"

// Destination is one entry of the static rate table.
type Destination struct {
	Code             string   `mapstructure:"code" json:"code"`
	Name             string   `mapstructure:"name" json:"name"`
	BaseRate         float64  `mapstructure:"base_rate" json:"baseRate"` // per billable lb
	BlackoutWeekdays []string `mapstructure:"blackout_weekdays" json:"blackoutWeekdays"`
	BlackoutDates    []string `mapstructure:"blackout_dates" json:"blackoutDates"` // YYYY-MM-DD
}

// WeightTier grants Percent off the subtotal once total billable weight
// reaches MinWeight. The highest matching tier wins.
type WeightTier struct {
	MinWeight float64 `mapstructure:"min_weight" json:"minWeight"`
	Percent   float64 `mapstructure:"percent" json:"percent"`
}

// PricingConfig holds the pricing constants and the destination rate table.
type PricingConfig struct {
	DimDivisor            float64       `mapstructure:"dim_divisor"`
	MinimumCharge         float64       `mapstructure:"minimum_charge"`
	WeightTiers           []WeightTier  `mapstructure:"weight_tiers"`
	MultiPackageThreshold int           `mapstructure:"multi_package_threshold"`
	MultiPackageDiscount  float64       `mapstructure:"multi_package_discount"`
	ExpressSurchargeRate  float64       `mapstructure:"express_surcharge_rate"`
	HeavyWeightThreshold  float64       `mapstructure:"heavy_weight_threshold"`
	HeavyWeightFee        float64       `mapstructure:"heavy_weight_fee"`
	HandlingMinimum       float64       `mapstructure:"handling_minimum"`
	HandlingPerPackage    float64       `mapstructure:"handling_per_package"`
	DoorToDoorFee         float64       `mapstructure:"door_to_door_fee"`
	CustomsFee            float64       `mapstructure:"customs_fee"`
	InsuranceMinimum      float64       `mapstructure:"insurance_minimum"`
	InsuranceDeductible   float64       `mapstructure:"insurance_deductible"`
	InsuranceRate         float64       `mapstructure:"insurance_rate"`
	Destinations          []Destination `mapstructure:"destinations"`
}

func setPricingDefaults() {
	d := DefaultPricing()
	viper.SetDefault("pricing.dim_divisor", d.DimDivisor)
	viper.SetDefault("pricing.minimum_charge", d.MinimumCharge)
	viper.SetDefault("pricing.multi_package_threshold", d.MultiPackageThreshold)
	viper.SetDefault("pricing.multi_package_discount", d.MultiPackageDiscount)
	viper.SetDefault("pricing.express_surcharge_rate", d.ExpressSurchargeRate)
	viper.SetDefault("pricing.heavy_weight_threshold", d.HeavyWeightThreshold)
	viper.SetDefault("pricing.heavy_weight_fee", d.HeavyWeightFee)
	viper.SetDefault("pricing.handling_minimum", d.HandlingMinimum)
	viper.SetDefault("pricing.handling_per_package", d.HandlingPerPackage)
	viper.SetDefault("pricing.door_to_door_fee", d.DoorToDoorFee)
	viper.SetDefault("pricing.customs_fee", d.CustomsFee)
	viper.SetDefault("pricing.insurance_minimum", d.InsuranceMinimum)
	viper.SetDefault("pricing.insurance_deductible", d.InsuranceDeductible)
	viper.SetDefault("pricing.insurance_rate", d.InsuranceRate)
	viper.SetDefault("pricing.weight_tiers", []map[string]any{
		{"min_weight": 100, "percent": 0.05},
		{"min_weight": 250, "percent": 0.10},
		{"min_weight": 500, "percent": 0.15},
	})
}

// DefaultPricing returns the built-in pricing constants and rate table.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		DimDivisor:    139,
		MinimumCharge: 10,
		WeightTiers: []WeightTier{
			{MinWeight: 100, Percent: 0.05},
			{MinWeight: 250, Percent: 0.10},
			{MinWeight: 500, Percent: 0.15},
		},
		MultiPackageThreshold: 3,
		MultiPackageDiscount:  10,
		ExpressSurchargeRate:  0.25,
		HeavyWeightThreshold:  70,
		HeavyWeightFee:        25,
		HandlingMinimum:       15,
		HandlingPerPackage:    5,
		DoorToDoorFee:         20,
		CustomsFee:            35,
		InsuranceMinimum:      15,
		InsuranceDeductible:   100,
		InsuranceRate:         0.075,
		Destinations:          DefaultDestinations(),
	}
}

// DefaultDestinations is the rate table used when config.yaml has none.
func DefaultDestinations() []Destination {
	return []Destination{
		{Code: "JM", Name: "Jamaica", BaseRate: 3.50, BlackoutWeekdays: []string{"Sunday"}},
		{Code: "TT", Name: "Trinidad and Tobago", BaseRate: 3.75, BlackoutWeekdays: []string{"Sunday"}},
		{Code: "GY", Name: "Guyana", BaseRate: 4.25, BlackoutWeekdays: []string{"Sunday"}},
		{Code: "BB", Name: "Barbados", BaseRate: 3.90, BlackoutWeekdays: []string{"Sunday"}},
		{Code: "LC", Name: "Saint Lucia", BaseRate: 4.10, BlackoutWeekdays: []string{"Sunday", "Saturday"}},
	}
}
