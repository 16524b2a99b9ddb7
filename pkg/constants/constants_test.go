package constants

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate_CustomTags(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tag   string
		value string
		ok    bool
	}{
		{tag: "percentage", value: "50", ok: true},
		{tag: "percentage", value: "12.5%", ok: true},
		{tag: "percentage", value: "150", ok: true},
		{tag: "percentage", value: "12.345", ok: false},
		{tag: "percentage", value: "abc", ok: false},
		{tag: "amount", value: "1500", ok: true},
		{tag: "amount", value: "1500.25", ok: true},
		{tag: "amount", value: "1,500", ok: false},
		{tag: "amount", value: "10%", ok: false},
		{tag: "omitempty,amount", value: "", ok: true},
	}
	for _, tc := range cases {
		err := Validate.Var(tc.value, tc.tag)
		if tc.ok {
			require.NoError(t, err, "%s %q", tc.tag, tc.value)
		} else {
			require.Error(t, err, "%s %q", tc.tag, tc.value)
		}
	}
}
