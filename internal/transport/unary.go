package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tobyv/a11yrelay/internal/model"
	"github.com/tobyv/a11yrelay/internal/wire"
)

// UnaryClient is the deprecated per-call binding of the push
// capability. Each push opens a fresh connection, sends one payload and
// reads one response whose error string, when non-empty, becomes the
// returned error. Kept functionally intact for old controllers; new
// behavior belongs on the bidi channel.
type UnaryClient struct {
	Dialer  Dialer
	Address string

	// Timeout bounds one whole call. Zero means no deadline.
	Timeout time.Duration
}

// PushForest sends one forest via the deprecated unary call.
func (u *UnaryClient) PushForest(forest *model.Forest) error {
	var resp wire.ForestResponse
	if err := u.call(wire.MethodSendForest, forest, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	return nil
}

// PushEvent sends one event via the deprecated unary call.
func (u *UnaryClient) PushEvent(event map[string]string) error {
	var resp wire.EventResponse
	if err := u.call(wire.MethodSendEvent, &wire.EventPayload{Event: event}, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	return nil
}

func (u *UnaryClient) call(method wire.Method, payload, response any) error {
	ctx := context.Background()
	if u.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.Timeout)
		defer cancel()
	}
	conn, err := u.Dialer.DialContext(ctx, u.Address)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", u.Address, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	enc := wire.NewEncoder(conn)
	if err := enc.Encode(wire.Hello{Method: method}); err != nil {
		return fmt.Errorf("transport: %s: %w", method, err)
	}
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("transport: %s: %w", method, err)
	}
	if err := wire.NewDecoder(conn).Decode(response); err != nil {
		return fmt.Errorf("transport: %s response: %w", method, err)
	}
	return nil
}
