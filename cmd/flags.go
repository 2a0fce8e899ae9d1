package cmd

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

// decimalValue is a pflag.Value holding a money amount.
type decimalValue struct {
	d   *decimal.Decimal
	set bool
}

var _ pflag.Value = (*decimalValue)(nil)

func (v *decimalValue) String() string {
	if v.d == nil || !v.set {
		return ""
	}

	return v.d.String()
}

func (v *decimalValue) Set(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}

	*v.d = d
	v.set = true

	return nil
}

func (v *decimalValue) Type() string {
	return "decimal"
}

// decimalVar binds a decimal flag to p.
func decimalVar(fs *pflag.FlagSet, p *decimal.Decimal, name string, value decimal.Decimal, usage string) {
	*p = value
	fs.Var(&decimalValue{d: p, set: !value.IsZero()}, name, usage)
}
