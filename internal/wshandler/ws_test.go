package wshandler

import (
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/kdudkov/geogate/pkg/model"
)

func TestSendEventDrops(t *testing.T) {
	w := &JSONWsHandler{log: slog.Default(), ch: make(chan *model.Event, 2), active: 1}
	before := testutil.ToFloat64(droppedMetric)

	for range 5 {
		assert.True(t, w.SendEvent(model.NewEvent(model.EVENT_ISSUED, "K1", "alice")))
	}

	assert.Len(t, w.ch, 2)
	assert.EqualValues(t, 3, w.Dropped())
	assert.Equal(t, before+3, testutil.ToFloat64(droppedMetric))
}

func TestSendEventInactive(t *testing.T) {
	var nilHandler *JSONWsHandler
	assert.False(t, nilHandler.SendEvent(nil))

	w := &JSONWsHandler{log: slog.Default(), ch: make(chan *model.Event, 2)}
	assert.False(t, w.SendEvent(model.NewEvent(model.EVENT_ISSUED, "K1", "alice")))
}
