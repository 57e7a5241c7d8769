// Package api 通过节点的 websocket 接口订阅新区块
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrClosed 监听器已关闭
var ErrClosed = errors.New("head watcher closed")

// rpcRequest JSON-RPC 请求
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcMessage 订阅应答与推送共用的结构，Params 延迟解析
type rpcMessage struct {
	ID     *int            `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Method string `json:"method"`
	Params struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

// Head 新区块头中用到的字段
type Head struct {
	Number    hexutil.Uint64 `json:"number"`
	Timestamp hexutil.Uint64 `json:"timestamp"`
}

// HeadWatcher 订阅 newHeads，记录最新的区块时间
type HeadWatcher struct {
	wsURL  string
	logger *zap.Logger
	conn   *websocket.Conn
	now    func() time.Time

	mu     sync.Mutex
	latest Head
	err    error
	notify chan struct{} // 每次状态变化时关闭并替换

	done      chan struct{}
	closeOnce sync.Once
}

func NewHeadWatcher(wsURL string, logger *zap.Logger) *HeadWatcher {
	return &HeadWatcher{
		wsURL:  wsURL,
		logger: logger.With(zap.String("component", "headWatcher")),
		now:    time.Now,
		notify: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start 建立连接并发送订阅请求，读循环在后台运行直到 Close
func (w *HeadWatcher) Start(ctx context.Context) error {
	w.logger.Info("Connecting to node websocket...", zap.String("url", w.wsURL))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.wsURL, err)
	}

	sub := rpcRequest{JSONRPC: "2.0", ID: 1, Method: "eth_subscribe", Params: []interface{}{"newHeads"}}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe newHeads: %w", err)
	}
	w.conn = conn
	w.logger.Info("Subscribed to newHeads")

	go w.readLoop()
	return nil
}

func (w *HeadWatcher) readLoop() {
	defer close(w.done)
	for {
		_, message, err := w.conn.ReadMessage()
		if err != nil {
			w.fail(fmt.Errorf("read head: %w", err))
			return
		}

		var msg rpcMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			w.logger.Debug("Skip malformed frame", zap.Error(err))
			continue
		}
		if msg.Error != nil {
			w.fail(fmt.Errorf("subscribe newHeads: rpc error %d: %s", msg.Error.Code, msg.Error.Message))
			return
		}
		if msg.Method != "eth_subscription" || len(msg.Params.Result) == 0 {
			continue
		}

		var head Head
		if err := json.Unmarshal(msg.Params.Result, &head); err != nil {
			w.logger.Debug("Skip malformed head", zap.Error(err))
			continue
		}
		w.update(head)
	}
}

func (w *HeadWatcher) update(head Head) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if head.Timestamp < w.latest.Timestamp {
		return
	}
	w.latest = head
	w.logger.Debug("New head", zap.Uint64("number", uint64(head.Number)), zap.Uint64("timestamp", uint64(head.Timestamp)))
	close(w.notify)
	w.notify = make(chan struct{})
}

func (w *HeadWatcher) fail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
	close(w.notify)
	w.notify = make(chan struct{})
}

// Latest 最近收到的区块头，还没有收到时为零值
func (w *HeadWatcher) Latest() Head {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.latest
}

// WaitUntil 阻塞到出现时间戳不早于 timestamp 的区块，或本地时钟越过 timestamp
// 只在有交易时出块的链上不会有新区块，越过之后的下一笔交易所在区块满足要求
func (w *HeadWatcher) WaitUntil(ctx context.Context, timestamp uint64) error {
	w.logger.Info("Wait for auction to end...", zap.Uint64("endTime", timestamp))
	deadline := time.Unix(int64(timestamp), 0)
	for {
		w.mu.Lock()
		head, err, ch := w.latest, w.err, w.notify
		w.mu.Unlock()

		if uint64(head.Timestamp) >= timestamp {
			return nil
		}
		if err != nil {
			return err
		}
		remaining := deadline.Sub(w.now())
		if remaining <= 0 {
			w.logger.Info("Auction end time passed on local clock", zap.Uint64("latestHead", uint64(head.Timestamp)))
			return nil
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-ch:
		case <-timer.C:
		}
		timer.Stop()
	}
}

// Close 关闭连接并等待读循环退出
func (w *HeadWatcher) Close() error {
	if w.conn == nil {
		return nil
	}
	var err error
	w.closeOnce.Do(func() {
		w.mu.Lock()
		if w.err == nil {
			w.err = ErrClosed
		}
		w.mu.Unlock()

		_ = w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = w.conn.Close()
		<-w.done
	})
	return err
}
