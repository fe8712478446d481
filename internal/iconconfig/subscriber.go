package iconconfig

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Subscriber listens on the store's change socket and turns each message
// into a wake-up signal. It redials after a fixed delay whenever the socket
// drops; polling covers the gap.
type Subscriber struct {
	url    string
	dialer *websocket.Dialer
	retry  time.Duration
	logger *zap.Logger
}

// NewSubscriber returns a Subscriber for the server at baseURL.
func NewSubscriber(baseURL string, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{
		url:    wsURL(baseURL),
		dialer: websocket.DefaultDialer,
		retry:  3 * time.Second,
		logger: logger.Named("subscriber"),
	}
}

// Notify starts listening and returns a channel that receives a value after
// every change. The channel is closed when ctx is done.
func (s *Subscriber) Notify(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for {
			s.listen(ctx, out)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retry):
			}
		}
	}()
	return out
}

func (s *Subscriber) listen(ctx context.Context, out chan<- struct{}) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Debug("dial change socket failed", zap.String("url", s.url), zap.Error(err))
		}
		return
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var c Change
		if err := conn.ReadJSON(&c); err != nil {
			if ctx.Err() == nil {
				s.logger.Debug("change socket closed", zap.Error(err))
			}
			return
		}
		select {
		case out <- struct{}{}:
		default:
		}
	}
}

func wsURL(base string) string {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return base
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/icon-config"
	return u.String()
}
