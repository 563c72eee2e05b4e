package iocache

import (
	"sync"

	"github.com/huangsam/riskscan/internal/contract"
)

// StoreManagerImpl holds the registry cache and the snapshot store.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	cache        contract.CacheStore
	snapshot     contract.SnapshotStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetRegistryCache returns the registry CacheStore.
func (mgr *StoreManagerImpl) GetRegistryCache() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.cache
}

// GetSnapshotStore returns the SnapshotStore.
func (mgr *StoreManagerImpl) GetSnapshotStore() contract.SnapshotStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.snapshot
}
