// Package catalog resolves game catalog ids to store listings.
//
// Lookups consult, in order:
//   - JSON files in the catalog directory (one GameInfo object per file)
//   - The built-in developed games (Connect Four, Higher / Lower, Memory Match)
//   - An optional remote game store reached through StoreClient
//
// Catalog ids and session ids are separate numbering spaces.
//
// Usage:
//
//	manager, err := catalog.NewManager("catalog", catalog.NewStoreClient(storeURL))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	info, err := manager.GetGameInfo(ctx, 1)
//	if errors.Is(err, catalog.ErrGameNotFound) {
//		// absent everywhere
//	}
//
// ValidateDir and ValidateFile check catalog files offline; the arcadectl
// validate-catalog command is built on them.
package catalog
