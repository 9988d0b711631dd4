package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lovoo/goka"
	"github.com/lovoo/goka/codec"
	gokastorage "github.com/lovoo/goka/storage"
	"github.com/niksmo/shopcart/internal/core/domain"
)

// A Getter reads a table value by key.
type Getter interface {
	Get(key string) (any, error)
}

// An IdentityView reads the last user of every device from the
// identity processor group table.
//
// The view keeps its copy in memory, the processor owns
// the persistent table storage.
type IdentityView struct {
	getter Getter
	gv     *goka.View
}

func NewIdentityView(seedBrokers []string, group string) (*IdentityView, error) {
	const op = "NewIdentityView"

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(group)),
		new(codec.String),
		goka.WithViewStorageBuilder(gokastorage.MemoryBuilder()),
		goka.WithViewLogger(nonlogLogger()),
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	return &IdentityView{getter: gv, gv: gv}, nil
}

// NewIdentityViewFromGetter is used when the table is read elsewhere.
func NewIdentityViewFromGetter(g Getter) *IdentityView {
	return &IdentityView{getter: g}
}

func (v *IdentityView) Run(ctx context.Context) {
	const op = "IdentityView.Run"
	log := slog.With("op", op)

	if v.gv == nil {
		return
	}

	log.Info("running")
	err := v.gv.Run(ctx)
	if err != nil {
		log.Error("unexpected fail on run", "err", err)
		return
	}
	log.Info("stopped")
}

// LastUser returns the user the device was signed in as when its
// last identity event was processed.
func (v *IdentityView) LastUser(deviceID string) (domain.User, bool) {
	const op = "IdentityView.LastUser"
	log := slog.With("op", op, "deviceID", deviceID)

	value, err := v.getter.Get(deviceID)
	if err != nil {
		log.Error("failed to get view data", "err", err)
		return domain.User{}, false
	}

	if value == nil {
		return domain.User{}, false
	}

	userID, ok := value.(string)
	if !ok {
		log.Error("unexpected type of data", "type", fmt.Sprintf("%T", value))
		return domain.User{}, false
	}
	if userID == "" {
		return domain.User{}, false
	}
	return domain.User{ID: userID}, true
}
