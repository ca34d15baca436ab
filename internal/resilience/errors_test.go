package resilience

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"wrapped transient", Transient(eris.New("rate limited"), 429), true},
		{"transient under eris wrap", eris.Wrap(Transient(eris.New("x"), 503), "webhook: deliver"), true},
		{"plain error", eris.New("validation failed"), false},
		{"connection reset string", eris.New("read tcp: connection reset by peer"), true},
		{"io timeout string", eris.New("dial tcp: i/o timeout"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestRetryableStatus(t *testing.T) {
	assert.True(t, RetryableStatus(429))
	assert.True(t, RetryableStatus(503))
	assert.False(t, RetryableStatus(200))
	assert.False(t, RetryableStatus(404))
	assert.False(t, RetryableStatus(400))
}
