// Package control implements the optional interactive control channel:
// a status/step key-value bucket, a command-and-policy queue a driver
// loop drains between run segments, and a push-only history stream.
// It reproduces the four primitives original_source/src/control.rs and
// rec.rs back with Redis (`status`, `cmds`, `state:history`,
// `state:step`) on top of NATS JetStream instead, since no example in
// the retrieved pack imports a Redis client but tomtom215-cartographus
// depends on exactly this durable-queue-plus-KV combination.
package control

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/niceyeti/mediaworld/internal/policy"
	"github.com/niceyeti/mediaworld/internal/simerr"
	"github.com/niceyeti/mediaworld/internal/simparams"
)

const (
	statusBucket      = "ctl_status"
	cmdsStreamName    = "ctl_cmds"
	cmdsSubject       = "ctl.cmds"
	historyStreamName = "ctl_history"
	historySubject    = "ctl.history"

	fetchWait = 2 * time.Second
)

// Status is the coarse run phase a driver reports into the status key,
// mirroring control.rs's Loading/Ready/Running enum.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusRunning Status = "running"
)

// RunCommand asks the driver to advance n more ticks.
type RunCommand struct {
	N int `json:"n"`
}

// ResetCommand asks the driver to reload its config and restart the
// step counter and history, mirroring Commander.reset.
type ResetCommand struct {
	Config simparams.Params `json:"config"`
}

// CommandMessage is the decoded Command half of control.rs's Message
// enum: exactly one of Run or Reset is set.
type CommandMessage struct {
	Run   *RunCommand    `json:"run,omitempty"`
	Reset *ResetCommand  `json:"reset,omitempty"`
}

// PolicyMessage is the wire form of a policy.Policy: a kind tag plus
// whichever of n/f that kind's constructor takes. Policy itself carries
// no exported fields to marshal directly, so control owns this
// JSON-tagged shape and converts to/from the real type.
type PolicyMessage struct {
	Kind string  `json:"kind"`
	N    int     `json:"n,omitempty"`
	F    float64 `json:"f,omitempty"`
}

// ToPolicy constructs the policy.Policy this message describes.
func (m PolicyMessage) ToPolicy() (policy.Policy, error) {
	switch m.Kind {
	case "recession":
		return policy.Recession(m.N), nil
	case "media_literacy":
		return policy.MediaLiteracy(m.F), nil
	case "found_platforms":
		return policy.FoundPlatforms(m.N), nil
	case "tax_advertising":
		return policy.TaxAdvertising(m.F), nil
	case "subsidize_production":
		return policy.SubsidizeProduction(m.F), nil
	case "population_change":
		return policy.PopulationChange(m.N), nil
	default:
		return policy.Policy{}, fmt.Errorf("control: unknown policy kind %q", m.Kind)
	}
}

// Message is the wire envelope published to ctl_cmds: exactly one of
// Command or Policy is set, the same discriminated union
// control.rs's Message enum carries.
type Message struct {
	Command *CommandMessage `json:"command,omitempty"`
	Policy  *PolicyMessage  `json:"policy,omitempty"`
}

// Adapter is whatever a driver loop needs from the control channel.
// COMMAND=1 constructs the NATS-backed implementation; a driver that
// never sets COMMAND never touches this interface at all.
type Adapter interface {
	SetStatus(ctx context.Context, status Status) error
	Reset(ctx context.Context, cfg simparams.Params) error
	// WaitForCommand drains queued messages until a Command arrives,
	// accumulating every Policy seen along the way, mirroring
	// Commander.wait_for_command/process_messages.
	WaitForCommand(ctx context.Context) (CommandMessage, []policy.Policy, error)
	// PublishSnapshot pushes one recorder snapshot to the status bucket
	// and history stream, hashing it with md5 for cheap change
	// detection by a polling UI, per rec.rs::sync.
	PublishSnapshot(ctx context.Context, step int, snapshot any) error
	Close() error
}

// NATSAdapter is the JetStream-backed Adapter.
type NATSAdapter struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	statusKV jetstream.KeyValue
	consumer jetstream.Consumer
}

var _ Adapter = (*NATSAdapter)(nil)

// Dial connects to url and provisions the status bucket plus the
// ctl_cmds/ctl_history streams, idempotently (safe to call against an
// already-provisioned broker).
func Dial(ctx context.Context, url string) (*NATSAdapter, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, &simerr.IOError{Op: "nats connect " + url, Err: err}
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, &simerr.IOError{Op: "jetstream context", Err: err}
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: statusBucket})
	if err != nil {
		nc.Close()
		return nil, &simerr.IOError{Op: "create kv bucket " + statusBucket, Err: err}
	}

	cmdStream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cmdsStreamName,
		Subjects: []string{cmdsSubject},
	})
	if err != nil {
		nc.Close()
		return nil, &simerr.IOError{Op: "create stream " + cmdsStreamName, Err: err}
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     historyStreamName,
		Subjects: []string{historySubject},
	}); err != nil {
		nc.Close()
		return nil, &simerr.IOError{Op: "create stream " + historyStreamName, Err: err}
	}

	consumer, err := cmdStream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       "mediaworld-cmds",
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		nc.Close()
		return nil, &simerr.IOError{Op: "create consumer", Err: err}
	}

	return &NATSAdapter{nc: nc, js: js, statusKV: kv, consumer: consumer}, nil
}

// SetStatus writes the status key.
func (a *NATSAdapter) SetStatus(ctx context.Context, status Status) error {
	if _, err := a.statusKV.Put(ctx, "status", []byte(status)); err != nil {
		return &simerr.IOError{Op: "put status", Err: err}
	}
	return nil
}

// Reset rewrites the step counter to -1 and stores the fresh config,
// mirroring Commander.reset's del(cmds)/del(state:history)/
// set(state:step,-1)/set(config,...) sequence (the cmds/history purge
// is a no-op here since JetStream streams are durably retained rather
// than cleared on reset).
func (a *NATSAdapter) Reset(ctx context.Context, cfg simparams.Params) error {
	if _, err := a.statusKV.Put(ctx, "state:step", []byte("-1")); err != nil {
		return &simerr.IOError{Op: "put state:step", Err: err}
	}
	body, err := gojson.Marshal(cfg)
	if err != nil {
		return &simerr.IOError{Op: "marshal reset config", Err: err}
	}
	if _, err := a.statusKV.Put(ctx, "config", body); err != nil {
		return &simerr.IOError{Op: "put config", Err: err}
	}
	return nil
}

// WaitForCommand fetches queued ctl_cmds messages until a Command
// arrives, accumulating every Policy seen first.
func (a *NATSAdapter) WaitForCommand(ctx context.Context) (CommandMessage, []policy.Policy, error) {
	var policies []policy.Policy
	for {
		select {
		case <-ctx.Done():
			return CommandMessage{}, policies, ctx.Err()
		default:
		}

		batch, err := a.consumer.Fetch(1, jetstream.FetchMaxWait(fetchWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			return CommandMessage{}, policies, &simerr.IOError{Op: "fetch command", Err: err}
		}

		for msg := range batch.Messages() {
			_ = msg.Ack()
			var envelope Message
			if err := gojson.Unmarshal(msg.Data(), &envelope); err != nil {
				continue
			}
			if envelope.Policy != nil {
				p, err := envelope.Policy.ToPolicy()
				if err == nil {
					policies = append(policies, p)
				}
			}
			if envelope.Command != nil {
				return *envelope.Command, policies, nil
			}
		}
		if err := batch.Error(); err != nil {
			return CommandMessage{}, policies, &simerr.IOError{Op: "consume command batch", Err: err}
		}
	}
}

// PublishSnapshot writes snapshot's JSON, its md5 digest, and the
// current step into the status bucket, and pushes the same payload
// onto the history stream.
func (a *NATSAdapter) PublishSnapshot(ctx context.Context, step int, snapshot any) error {
	body, err := gojson.Marshal(snapshot)
	if err != nil {
		return &simerr.IOError{Op: "marshal snapshot", Err: err}
	}
	sum := md5.Sum(body)
	key := hex.EncodeToString(sum[:])

	if _, err := a.statusKV.Put(ctx, "state", body); err != nil {
		return &simerr.IOError{Op: "put state", Err: err}
	}
	if _, err := a.statusKV.Put(ctx, "state:key", []byte(key)); err != nil {
		return &simerr.IOError{Op: "put state:key", Err: err}
	}
	if _, err := a.statusKV.Put(ctx, "state:step", []byte(fmt.Sprintf("%d", step))); err != nil {
		return &simerr.IOError{Op: "put state:step", Err: err}
	}
	if _, err := a.js.Publish(ctx, historySubject, body); err != nil {
		return &simerr.IOError{Op: "publish history", Err: err}
	}
	return nil
}

// Close drains and closes the underlying NATS connection.
func (a *NATSAdapter) Close() error {
	a.nc.Close()
	return nil
}
