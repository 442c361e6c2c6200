package generic

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Setting keys in the external key-value settings store.
const (
	SettingPaymentDueDays   = "payment_due_days"
	SettingLateFeeDailyRate = "late_fee_daily_rate"
)

const DefaultPaymentDueDays = 7

var DefaultLateFeeDailyRate = decimal.RequireFromString("0.05")

// Settings are the configured values the engine reads. They are passed into
// every entry point that needs them.
type Settings struct {
	// PaymentDueDays is the grace period after a due date before an
	// obligation turns overdue.
	PaymentDueDays int

	// LateFeeDailyRate is the fraction of the amount charged per overdue day.
	LateFeeDailyRate decimal.Decimal
}

func DefaultSettings() Settings {
	return Settings{
		PaymentDueDays:   DefaultPaymentDueDays,
		LateFeeDailyRate: DefaultLateFeeDailyRate,
	}
}

func (s Settings) Validate() error {
	if s.PaymentDueDays < 0 {
		return fmt.Errorf("%s must not be negative, got %d", SettingPaymentDueDays, s.PaymentDueDays)
	}
	if s.LateFeeDailyRate.IsNegative() {
		return fmt.Errorf("%s must not be negative, got %s", SettingLateFeeDailyRate, s.LateFeeDailyRate)
	}
	return nil
}

// SettingsFromMap builds Settings from raw key-value pairs. Missing keys
// take their defaults.
func SettingsFromMap(values map[string]string) (Settings, error) {
	s := DefaultSettings()
	if raw, ok := values[SettingPaymentDueDays]; ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return s, fmt.Errorf("invalid %s %q: %w", SettingPaymentDueDays, raw, err)
		}
		s.PaymentDueDays = n
	}
	if raw, ok := values[SettingLateFeeDailyRate]; ok && raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return s, fmt.Errorf("invalid %s %q: %w", SettingLateFeeDailyRate, raw, err)
		}
		s.LateFeeDailyRate = d
	}
	return s, s.Validate()
}

func (s Settings) ToMap() map[string]string {
	return map[string]string{
		SettingPaymentDueDays:   strconv.Itoa(s.PaymentDueDays),
		SettingLateFeeDailyRate: s.LateFeeDailyRate.String(),
	}
}
