package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "192.168.1.10", want: "192.168.1.10"},
		{in: "fe80::1%eth0", want: "fe80::1"},
		{in: "2001:DB8::0001", want: "2001:db8::1"},
		{in: "", want: "unknown"},
		{in: "not-an-ip", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientKey(tt.in))
		})
	}
}
