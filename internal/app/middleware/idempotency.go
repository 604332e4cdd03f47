package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"rentcal/internal/app/commands"
)

// IdempotentCommand is implemented by commands that can be replayed safely
// under a client supplied key.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // pointer to the handler result type
}

type IdempotencyRecord struct {
	Key        string
	Command    string
	Payload    []byte
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

type IdempotencyOptions struct {
	Codec ResultCodec
	// TTL bounds how long a stored result is replayed; zero keeps it forever.
	TTL time.Duration
	Now func() time.Time
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency replays the stored result of a successful command carrying the
// same key. Failed commands are not recorded so the client may retry them.
func Idempotency(store IdempotencyStore, opts IdempotencyOptions) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	codec := opts.Codec
	if codec == nil {
		codec = JSONResultCodec{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return func(next commands.Bus) commands.Bus {
		return CommandBusFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := cmd.Key() + ":" + idCmd.IdempotencyKey()
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found && (opts.TTL <= 0 || now().Sub(rec.OccurredAt) < opts.TTL) {
				proto := idCmd.ResultPrototype()
				if proto == nil {
					return nil, errMissingPrototype
				}
				if len(rec.Payload) == 0 {
					return nil, nil
				}
				if err := codec.Decode(rec.Payload, proto); err != nil {
					return nil, err
				}
				return normalizePrototype(proto), nil
			}
			result, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			record := IdempotencyRecord{Key: key, Command: cmd.Key(), OccurredAt: now().UTC()}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if err := store.Save(ctx, record); err != nil {
				return nil, err
			}
			return result, nil
		})
	}
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
