package reqcache

// OnCleanup sets a hook called after each scheduled cleanup ran.
func OnCleanup(c *Cache, hook func(key string, removed bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCleanup = hook
}
