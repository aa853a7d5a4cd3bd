package providers

import (
	"github.com/samber/do/v2"

	"github.com/fablesound/fable-server/internal/config"
	"github.com/fablesound/fable-server/internal/docstore"
	"github.com/fablesound/fable-server/internal/logger"
	"github.com/fablesound/fable-server/internal/search"
)

// StoreHandle wraps the document store for lifecycle management.
type StoreHandle struct {
	docstore.Client
	badger *docstore.BadgerStore
}

// Shutdown closes the underlying store.
func (h *StoreHandle) Shutdown() error {
	if h.badger != nil {
		return h.badger.Close()
	}
	return nil
}

// ProvideDocStore provides the Badger-backed document store.
func ProvideDocStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	store, err := docstore.OpenBadger(cfg.DocStorePath(), log.Logger)
	if err != nil {
		return nil, err
	}
	return &StoreHandle{Client: store, badger: store}, nil
}

// SearchIndexHandle wraps the search index for lifecycle management.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown closes the index.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Index.Close()
}

// ProvideSearchIndex provides the catalog search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.Open(cfg.SearchIndexPath(), log.Logger)
	if err != nil {
		return nil, err
	}
	return &SearchIndexHandle{Index: index}, nil
}
