package reconcile

import (
	"github.com/google/uuid"

	"github.com/labs/fleamarket/internal/localcache"
	"github.com/labs/fleamarket/internal/models"
)

// Merge builds the canonical copy of an item from the cached row and the
// server's answer. A server record that carries an id is authoritative for
// every field, empty ones included, so cleared images or auction fields stay
// cleared. The cached row is used only when the server answer has no id.
// The result is never a draft.
func Merge(local *localcache.CachedItem, remote models.Item) models.Item {
	if remote.ID != uuid.Nil || local == nil {
		return remote
	}
	return local.ToItem()
}
