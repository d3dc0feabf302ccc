package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"WarehouseApp/internal/model"
)

// DefaultSubject: subject NATS для событий о расхождениях.
const DefaultSubject = "warehouse.discrepancies"

// FlushTimeout ограничивает ожидание flush, если у ctx нет своего дедлайна.
const FlushTimeout = 5 * time.Second

type publisher interface {
	PublishMsg(m *nats.Msg) error
	FlushWithContext(ctx context.Context) error
}

// NATSNotifier публикует DiscrepancyEvent в NATS.
type NATSNotifier struct {
	pub        publisher
	conn       *nats.Conn
	subject    string
	adminEmail string
}

var _ Notifier = (*NATSNotifier)(nil)

// DialNATS connects to url. Close must be called on shutdown.
func DialNATS(url, subject, adminEmail string) (*NATSNotifier, error) {
	if url == "" {
		return nil, errors.New("notify: nats url is required")
	}
	nc, err := nats.Connect(url,
		nats.Name("warehouse-app"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: connect to NATS: %w", err)
	}
	n := newNATSNotifier(nc, subject, adminEmail)
	n.conn = nc
	return n, nil
}

func newNATSNotifier(pub publisher, subject, adminEmail string) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSNotifier{pub: pub, subject: subject, adminEmail: adminEmail}
}

// NotifyDiscrepancies publishes the event and waits for the server to acknowledge the flush.
// The event id goes into Nats-Msg-Id so JetStream streams can drop duplicates.
func (n *NATSNotifier) NotifyDiscrepancies(ctx context.Context, c model.Container) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	ev := NewEvent(c, n.adminEmail)
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}
	msg := nats.NewMsg(n.subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, ev.EventID)
	msg.Header.Set("Content-Type", "application/json")
	if err := n.pub.PublishMsg(msg); err != nil {
		return fmt.Errorf("notify: publish %s: %w", n.subject, err)
	}
	// FlushWithContext требует ctx с дедлайном.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, FlushTimeout)
		defer cancel()
	}
	if err := n.pub.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("notify: flush: %w", err)
	}
	return nil
}

// Close drains the connection if it was opened by DialNATS.
func (n *NATSNotifier) Close() error {
	if n == nil || n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
