package notify

import (
	"github.com/ivstanko/cryptoscan/internal/models"
)

// ChartRenderer draws a candle chart for a signal's symbol. Rendering
// is optional; a nil image with a nil error means "nothing to send".
type ChartRenderer interface {
	Render(candles models.Candles, symbol, timeframeLabel string) ([]byte, error)
}

// NoopRenderer disables chart delivery.
type NoopRenderer struct{}

func (NoopRenderer) Render(candles models.Candles, symbol, timeframeLabel string) ([]byte, error) {
	return nil, nil
}
