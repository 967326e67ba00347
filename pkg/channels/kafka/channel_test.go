package kafka

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokers(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		want    []string
		wantErr bool
	}{
		{name: "unset", env: "", wantErr: true},
		{name: "only separators", env: " , ,", wantErr: true},
		{name: "single", env: "localhost:9092", want: []string{"localhost:9092"}},
		{name: "trimmed list", env: "a:9092, b:9092 ,", want: []string{"a:9092", "b:9092"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KAFKA_BROKERS", tt.env)

			got, err := Brokers()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoBrokers)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateChannel_NoBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")

	pub, sub, err := CreateChannel(watermill.NopLogger{}, "test")

	require.ErrorIs(t, err, ErrNoBrokers)
	assert.Nil(t, pub)
	assert.Nil(t, sub)
}
