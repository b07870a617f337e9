package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLoader(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		err  error
		want float64
	}{
		{name: "configured rate", rate: 7.5, want: 7.5},
		{name: "zero rate is allowed", rate: 0, want: 0},
		{name: "upstream failure falls back", err: errors.New("timeout"), want: 5},
		{name: "negative rate falls back", rate: -1, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewRateLoader(&fakeSettings{Rate: tt.rate, Err: tt.err}, 5)
			assert.Equal(t, tt.want, l.Rate(context.Background()))
		})
	}
}
