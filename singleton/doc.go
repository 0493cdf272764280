// Package singleton provides lazily built, shared values.
//
// Cell[T] holds one value built on first use. Map[V, A] holds one value per
// string key, built on first use of that key with a caller supplied argument.
// Both collapse concurrent first calls into a single build (single-flight),
// never hold a lock while a factory runs, and serve built values without
// locking.
//
//	clients := singleton.NewMap(func(ctx context.Context, key string, region string) (*Client, error) {
//	    return dial(ctx, key, region)
//	})
//	c, err := clients.Get(ctx, "orders", "westeurope")
package singleton
