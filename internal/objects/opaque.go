// opaque.go — spec.md §4.4: server object types this binding does not
// surface rich behavior for yet (Android, Electron, Tracing,
// APIRequestContext, LocalUtils). Registering them explicitly means the
// factory's "opaque" fallback never logs an unknown-type warning for them;
// they still participate fully in the dispose tree.
package objects

import (
	"encoding/json"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
)

type opaqueNamed struct {
	channelowner.Base
}

func newOpaqueConstructor(typeName string) channelowner.Constructor {
	return func(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
		return &opaqueNamed{Base: channelowner.NewBase(sender, guid, typeName, parent, initializer)}
	}
}
