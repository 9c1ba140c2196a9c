package validate_test

import (
	"testing"

	"github.com/mangesh-sakordekar/Neighborhood-Library/pkg/validate"
	"github.com/stretchr/testify/require"
)

func TestRequiredString(t *testing.T) {
	t.Parallel()
	var (
		nilPtr *string
		s      = "  spaced  "
	)
	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{name: "ok", value: "value"},
		{name: "ok. spaced", value: "   spaced   "},
		{name: "ok. pointer", value: &s},
		{name: "err. nil", value: nil, wantErr: true},
		{name: "err. nil pointer", value: nilPtr, wantErr: true},
		{name: "err. empty", value: "", wantErr: true},
		{name: "err. whitespace", value: " \t\n ", wantErr: true},
		{name: "err. wrong type", value: 123, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validate.RequiredString("title", tt.value)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, "title is required and must be a non-empty string")
			var fe *validate.FieldError
			require.ErrorAs(t, err, &fe)
			require.Equal(t, "title", fe.Field)
		})
	}
}

func TestPositiveInteger(t *testing.T) {
	t.Parallel()
	var (
		nilPtr *int64
		n      int64 = 7
	)
	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{name: "ok", value: 1},
		{name: "ok. int64", value: int64(100)},
		{name: "ok. uint", value: uint32(5)},
		{name: "ok. pointer", value: &n},
		{name: "err. nil", value: nil, wantErr: true},
		{name: "err. nil pointer", value: nilPtr, wantErr: true},
		{name: "err. zero", value: 0, wantErr: true},
		{name: "err. negative", value: -1, wantErr: true},
		{name: "err. string", value: "123", wantErr: true},
		{name: "err. float", value: 1.5, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validate.PositiveInteger("book_id", tt.value)
			if tt.wantErr {
				require.EqualError(t, err, "book_id must be a positive integer")
				return
			}
			require.NoError(t, err)
		})
	}
}
