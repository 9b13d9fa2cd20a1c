package exchange

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultPingInterval   = 20 * time.Second
	defaultReconnectDelay = 5 * time.Second
	defaultWriteTimeout   = 10 * time.Second
	subscribeBatch        = 10
)

var ErrStreamClosed = errors.New("ticker stream closed")

// StreamDialect describes the subscribe/ping/ticker wire format of one venue.
type StreamDialect interface {
	SubscribeMessage(symbols []string) interface{}
	PingMessage() []byte
	ParseTicker(message []byte) (symbol string, price float64, ok bool)
}

// wsWriter is the write side of a websocket connection.
type wsWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
}

// TickerStream keeps a public websocket open and pushes last prices to callbacks.
// Dropped connections are re-dialed and every known symbol is re-subscribed.
type TickerStream struct {
	url            string
	dialect        StreamDialect
	dialer         *websocket.Dialer
	logger         *zap.Logger
	pingInterval   time.Duration
	reconnectDelay time.Duration
	writeTimeout   time.Duration
	timeNow        func() time.Time

	mu        sync.Mutex
	conn      *websocket.Conn
	symbols   map[string]bool
	callbacks []func(symbol string, price float64)
	closed    bool
	done      chan struct{}
}

func NewTickerStream(url string, dialect StreamDialect, logger *zap.Logger) *TickerStream {
	return &TickerStream{
		url:            url,
		dialect:        dialect,
		dialer:         websocket.DefaultDialer,
		logger:         logger,
		pingInterval:   defaultPingInterval,
		reconnectDelay: defaultReconnectDelay,
		writeTimeout:   defaultWriteTimeout,
		timeNow:        time.Now,
		symbols:        make(map[string]bool),
		done:           make(chan struct{}),
	}
}

func (s *TickerStream) OnPriceUpdate(callback func(symbol string, price float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, callback)
}

// Subscribe connects on first use and subscribes symbols not seen before.
func (s *TickerStream) Subscribe(symbols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}

	var fresh []string
	for _, sym := range symbols {
		if !s.symbols[sym] {
			s.symbols[sym] = true
			fresh = append(fresh, sym)
		}
	}

	if s.conn == nil {
		return s.connectLocked()
	}
	return s.subscribeLocked(fresh)
}

func (s *TickerStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

func (s *TickerStream) connectLocked() error {
	c, _, err := s.dialer.Dial(s.url, nil)
	if err != nil {
		return err
	}
	s.conn = c
	go s.readLoop(c)
	go s.pingLoop(c)

	all := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		all = append(all, sym)
	}
	return s.subscribeLocked(all)
}

func (s *TickerStream) subscribeLocked(symbols []string) error {
	for start := 0; start < len(symbols); start += subscribeBatch {
		end := start + subscribeBatch
		if end > len(symbols) {
			end = len(symbols)
		}
		data, err := json.Marshal(s.dialect.SubscribeMessage(symbols[start:end]))
		if err != nil {
			return err
		}
		if err := s.write(s.conn, data); err != nil {
			return err
		}
	}
	return nil
}

// write sends one text frame. Writes happen under s.mu, so the deadline keeps
// a stalled socket from blocking Subscribe and Close.
func (s *TickerStream) write(w wsWriter, data []byte) error {
	if err := w.SetWriteDeadline(s.timeNow().Add(s.writeTimeout)); err != nil {
		return err
	}
	return w.WriteMessage(websocket.TextMessage, data)
}

func (s *TickerStream) pingLoop(c *websocket.Conn) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.conn != c {
				s.mu.Unlock()
				return
			}
			err := s.write(c, s.dialect.PingMessage())
			s.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *TickerStream) readLoop(c *websocket.Conn) {
	defer func() {
		c.Close()
		s.mu.Lock()
		if s.conn == c {
			s.conn = nil
		}
		closed := s.closed
		s.mu.Unlock()
		if !closed {
			go s.reconnect()
		}
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			s.logger.Warn("ticker stream read failed", zap.Error(err))
			return
		}

		symbol, price, ok := s.dialect.ParseTicker(message)
		if !ok {
			continue
		}

		s.mu.Lock()
		callbacks := make([]func(string, float64), len(s.callbacks))
		copy(callbacks, s.callbacks)
		s.mu.Unlock()

		for _, cb := range callbacks {
			cb(symbol, price)
		}
	}
}

func (s *TickerStream) reconnect() {
	for {
		select {
		case <-s.done:
			return
		case <-time.After(s.reconnectDelay):
		}

		s.mu.Lock()
		if s.closed || s.conn != nil {
			s.mu.Unlock()
			return
		}
		err := s.connectLocked()
		s.mu.Unlock()
		if err == nil {
			s.logger.Info("ticker stream reconnected")
			return
		}
		s.logger.Warn("ticker stream reconnect failed", zap.Error(err))
	}
}

// BybitDialect speaks the v5 public linear "tickers.<symbol>" topic.
type BybitDialect struct{}

func (BybitDialect) SubscribeMessage(symbols []string) interface{} {
	args := make([]string, len(symbols))
	for i, sym := range symbols {
		args[i] = "tickers." + sym
	}
	return map[string]interface{}{"op": "subscribe", "args": args}
}

func (BybitDialect) PingMessage() []byte {
	return []byte(`{"op":"ping"}`)
}

func (BybitDialect) ParseTicker(message []byte) (string, float64, bool) {
	var event struct {
		Topic string `json:"topic"`
		Data  struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"data"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		return "", 0, false
	}
	if !strings.HasPrefix(event.Topic, "tickers.") || event.Data.LastPrice == "" {
		// deltas without a lastPrice change carry nothing for us
		return "", 0, false
	}
	price, err := strconv.ParseFloat(event.Data.LastPrice, 64)
	if err != nil || price <= 0 {
		return "", 0, false
	}
	symbol := event.Data.Symbol
	if symbol == "" {
		symbol = strings.TrimPrefix(event.Topic, "tickers.")
	}
	return symbol, price, true
}

// OKXDialect speaks the v5 public "tickers" channel.
type OKXDialect struct{}

func (OKXDialect) SubscribeMessage(symbols []string) interface{} {
	args := make([]map[string]string, len(symbols))
	for i, sym := range symbols {
		args[i] = map[string]string{"channel": "tickers", "instId": sym}
	}
	return map[string]interface{}{"op": "subscribe", "args": args}
}

func (OKXDialect) PingMessage() []byte {
	return []byte("ping")
}

func (OKXDialect) ParseTicker(message []byte) (string, float64, bool) {
	var event struct {
		Arg struct {
			Channel string `json:"channel"`
		} `json:"arg"`
		Data []struct {
			InstID string `json:"instId"`
			Last   string `json:"last"`
		} `json:"data"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		return "", 0, false
	}
	if event.Arg.Channel != "tickers" || len(event.Data) == 0 {
		return "", 0, false
	}
	price, err := strconv.ParseFloat(event.Data[0].Last, 64)
	if err != nil || price <= 0 {
		return "", 0, false
	}
	return event.Data[0].InstID, price, true
}
