package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/lovoo/goka"
	"github.com/lovoo/goka/codec"
	gokastorage "github.com/lovoo/goka/storage"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
	"github.com/niksmo/shopcart/pkg/schema"
)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "runProc"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// An identityEventCodec used for serde [schema.IdentityEventV1]
type identityEventCodec struct {
	serde Serde
}

func newIdentityEventCodec(s Serde) identityEventCodec {
	return identityEventCodec{s}
}

func (c identityEventCodec) Encode(v any) ([]byte, error) {
	const op = "identityEventCodec.Encode"
	if _, ok := v.(schema.IdentityEventV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c identityEventCodec) Decode(data []byte) (any, error) {
	const op = "identityEventCodec.Decode"
	var s schema.IdentityEventV1
	if err := c.serde.Decode(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// IdentityProcessorConfig used for setup [IdentityProcessor].
//
// StoragePath is optional, goka keeps the group table
// in its default location when it's empty.
type IdentityProcessorConfig struct {
	SeedBrokers []string
	InputStream string
	Group       string
	Serde       Serde
	StoragePath string
}

// An IdentityProcessor applies sign in and sign out events from the
// input stream to the switcher and keeps the last user of every device
// in the group table.
type IdentityProcessor struct {
	opPrefix string
	proc     processor
	switcher port.IdentitySwitcher
}

func NewIdentityProcessor(
	config IdentityProcessorConfig, switcher port.IdentitySwitcher,
) (*IdentityProcessor, error) {
	const op = "NewIdentityProcessor"

	p := &IdentityProcessor{
		opPrefix: "IdentityProcessor",
		switcher: switcher,
	}

	gg := goka.DefineGroup(goka.Group(config.Group),
		goka.Input(
			goka.Stream(config.InputStream),
			newIdentityEventCodec(config.Serde),
			p.processFn,
		),
		goka.Persist(new(codec.String)),
	)

	procOpts := []goka.ProcessorOption{withNonlogProcOpt()}
	if config.StoragePath != "" {
		procOpts = append(procOpts, goka.WithStorageBuilder(
			gokastorage.DefaultBuilder(config.StoragePath),
		))
	}

	gp, err := goka.NewProcessor(config.SeedBrokers, gg, procOpts...)
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{opPrefix: p.opPrefix, gp: gp}
	return p, nil
}

func (p *IdentityProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *IdentityProcessor) Close() {
	p.proc.close()
}

func (p *IdentityProcessor) processFn(ctx goka.Context, msg any) {
	event, ok := msg.(schema.IdentityEventV1)
	if !ok {
		return
	}
	prev, _ := ctx.Value().(string)

	if p.apply(ctx.Key(), prev, event) && ctx.Key() != "" {
		if event.UserID == "" {
			ctx.Delete()
			return
		}
		ctx.SetValue(event.UserID)
	}
}

// apply switches the device identity and reports whether the stored
// user differs from the event. The message key wins over the device ID
// in the event body, keyless events are never persisted.
func (p *IdentityProcessor) apply(
	key string, prev string, event schema.IdentityEventV1,
) bool {
	const op = "apply"

	deviceID := key
	if deviceID == "" {
		deviceID = event.DeviceID
	}
	log := slog.With("op", makeOp(p.opPrefix, op), "deviceID", deviceID)

	if deviceID == "" {
		log.Warn("skip event without device")
		return false
	}

	if event.UserID == "" {
		p.switcher.Logout(deviceID)
		log.Info("sign out applied")
		return prev != ""
	}

	if _, err := uuid.Parse(event.UserID); err != nil {
		log.Warn("skip event with invalid user", "err", err)
		return false
	}

	p.switcher.Login(deviceID, domain.User{ID: event.UserID})
	log.Info("sign in applied", "switched", prev != "" && prev != event.UserID)
	return prev != event.UserID
}
