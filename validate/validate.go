package validate

import (
	"errors"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"tinacopro/fault"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New()
		// numeric tags (gt, gte, ...) compare decimals as float64
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
	})
	return v
}

// Struct validates s against its `validate` tags. Rule failures come back as a
// *fault.ValidationError keyed by field name.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		fields[fe.Field()] = fe.Tag()
	}
	return &fault.ValidationError{Fields: fields}
}
