package wshandler

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kdudkov/geogate/pkg/model"
)

var droppedMetric = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "geogate",
	Name:      "events_dropped_total",
	Help:      "Events dropped because a websocket client queue was full",
})

type JSONWsHandler struct {
	log     *slog.Logger
	ws      *websocket.Conn
	ch      chan *model.Event
	active  int32
	dropped atomic.Int64
}

func NewHandler(log *slog.Logger, name string, ws *websocket.Conn) *JSONWsHandler {
	return &JSONWsHandler{
		log:    log.With("client", name),
		ws:     ws,
		ch:     make(chan *model.Event, 10),
		active: 1,
	}
}

func (w *JSONWsHandler) IsActive() bool {
	return w != nil && atomic.LoadInt32(&w.active) == 1
}

func (w *JSONWsHandler) stop() {
	if atomic.CompareAndSwapInt32(&w.active, 1, 0) {
		close(w.ch)
		w.ws.Close()
	}
}

func (w *JSONWsHandler) writer() {
	for evt := range w.ch {
		if !w.IsActive() {
			return
		}

		if evt == nil {
			continue
		}

		if err := w.ws.WriteJSON(evt); err != nil {
			w.log.Debug("write error", slog.Any("error", err))
			w.stop()

			return
		}
	}
}

func (w *JSONWsHandler) reader() {
	defer w.stop()

	for {
		if _, _, err := w.ws.ReadMessage(); err != nil {
			w.log.Debug("error on read", slog.Any("error", err))

			return
		}
	}
}

// SendEvent queues the event for the client. Returns false once the client is gone,
// so it can be used as a callback directly.
func (w *JSONWsHandler) SendEvent(evt *model.Event) (ok bool) {
	if w == nil || !w.IsActive() {
		return false
	}

	// stop may close the channel between the check and the send
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case w.ch <- evt:
	default:
		w.dropped.Add(1)
		droppedMetric.Inc()
	}

	return true
}

func (w *JSONWsHandler) Dropped() int64 {
	return w.dropped.Load()
}

func (w *JSONWsHandler) closehandler(code int, text string) error {
	w.log.Info(fmt.Sprintf("closed with code %d, msg %s", code, text))
	w.stop()

	return nil
}

func (w *JSONWsHandler) Listen() {
	w.log.Debug("ws start")
	w.ws.SetCloseHandler(w.closehandler)

	go w.writer()
	w.reader()
	w.log.Debug("ws stop", slog.Int64("dropped", w.Dropped()))
}
